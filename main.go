package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"os"

	"git.fiblab.net/general/common/v2/mongoutil"
	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/scenario"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/task"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/input"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v2"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 轨迹输出文件，设置为空则不记录
	tracePath = flag.String("trace", "", "msgpack trace output path (empty means no trace)")
	// 启动时应用的场景模板，覆盖input.templates.apply
	templateID = flag.String("template", "", "scenario template id to apply before running")
	// 车辆位置以debug日志输出
	logPositions = flag.Bool("log.positions", false, "log every vehicle position update at debug level")
	// 结束时输出的统计文件
	statsPath = flag.String("stats", "", "final statistics JSON output path (empty means stdout only at debug level)")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "mixedtraffic")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", c.Control)
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		log.Panicf("config err: %v", err)
	}

	bg := context.Background()
	in, err := input.Init(bg, c)
	if err != nil {
		log.Panicf("input load err: %v", err)
	}
	g, err := roadgraph.New(in.Network)
	if err != nil {
		log.Panicf("road network err: %v", err)
	}

	sink := newSink()
	t := task.NewContext(g, rc, sink)
	if tpl := loadTemplate(bg, c.Input); tpl != nil {
		if err := t.ApplyTemplate(tpl); err != nil {
			log.Panicf("apply template err: %v", err)
		}
	}
	t.Run()

	writeStatistics(t.GetSimulationStatistics())
	if err := t.Close(); err != nil {
		log.Errorf("close err: %v", err)
	}
}

func newSink() entity.IVisualizationSink {
	switch {
	case *tracePath != "":
		s, err := task.CreateRecordingSink(*tracePath)
		if err != nil {
			log.Panicf("trace err: %v", err)
		}
		log.Infof("recording trace to %s", *tracePath)
		return s
	case *logPositions:
		return task.NewLogSink()
	default:
		return task.NullSink{}
	}
}

// loadTemplate 按-template或input.templates.apply加载场景模板，未指定时返回nil
// 说明：模板存储为空时先写入内置模板
func loadTemplate(ctx context.Context, in config.Input) *scenario.Template {
	id := *templateID
	if id == "" && in.Templates != nil {
		id = in.Templates.Apply
	}
	if id == "" {
		return nil
	}

	var store scenario.Store
	if ti := in.Templates; ti != nil {
		switch {
		case ti.Dir != "":
			s, err := scenario.NewFileStore(ti.Dir)
			if err != nil {
				log.Panicf("template store err: %v", err)
			}
			store = s
		case ti.Mongo != nil && in.URI != "":
			client := mongoutil.NewClient(in.URI)
			store = scenario.NewMongoStore(mongoutil.GetMongoColl(client, ti.Mongo))
			defer disconnect(client)
		}
	}
	m := scenario.NewManager(store)
	n, err := m.LoadAllTemplates(ctx)
	if err != nil {
		log.Panicf("template load err: %v", err)
	}
	if n == 0 {
		log.Infof("%d default templates initialized", m.InitializeDefaultTemplates(ctx))
	}
	tpl, err := m.LoadTemplate(ctx, id)
	if err != nil {
		log.Panicf("template %s err: %v (available: %v)", id, err, m.ListTemplates(""))
	}
	return tpl
}

func disconnect(client *mongo.Client) {
	if err := client.Disconnect(context.Background()); err != nil {
		log.Warnf("mongo disconnect err: %v", err)
	}
}

func writeStatistics(s task.Statistics) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		log.Errorf("statistics marshal err: %v", err)
		return
	}
	if *statsPath == "" {
		log.Debugf("final statistics: %s", data)
		return
	}
	if err := os.WriteFile(*statsPath, data, 0o644); err != nil {
		log.Errorf("statistics write err: %v", err)
		return
	}
	log.Infof("statistics written to %s", *statsPath)
}
