package mixed

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "mixed")
