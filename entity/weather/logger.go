package weather

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "weather")
