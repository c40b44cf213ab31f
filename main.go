package main

import (
	"encoding/base64"
	"flag"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/agentsociety-perception/task"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")

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

	log = logrus.WithField("module", "perception-demo")
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
	var rc *config.RuntimeConfig
	var err error
	if *configPath != "" {
		rc, err = config.Load(*configPath)
	} else if *configData != "" {
		var file []byte
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
		rc, err = config.Parse(file)
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", rc.All.Perception)

	t, err := task.NewContext(rc.All)
	if err != nil {
		log.Panicf("task init err: %v", err)
	}
	if err := t.Run(); err != nil {
		log.Panicf("task run err: %v", err)
	}
}
