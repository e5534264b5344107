package loggers

import (
	"github.com/eigerco/beerus/internal/repo"
	"github.com/meshplus/bitxhub-kit/log"
	"github.com/sirupsen/logrus"
)

const (
	ApiServer = "api_server"
	App       = "app"
	Lite      = "lite"
	RPC       = "rpc"
	State     = "state"
	Syncer    = "syncer"
	Upstream  = "upstream"
)

var w *loggerWrapper

type loggerWrapper struct {
	loggers map[string]*logrus.Entry
}

func levels(config *repo.Config) map[string]string {
	return map[string]string{
		App:       config.Log.Level,
		ApiServer: config.Log.Module.ApiServer,
		Lite:      config.Log.Module.Lite,
		RPC:       config.Log.Module.RPC,
		State:     config.Log.Module.State,
		Syncer:    config.Log.Module.Syncer,
		Upstream:  config.Log.Module.Upstream,
	}
}

func InitializeLogger(config *repo.Config) {
	m := make(map[string]*logrus.Entry)
	for name, level := range levels(config) {
		m[name] = log.NewWithModule(name)
		m[name].Logger.SetLevel(log.ParseLevel(level))
	}

	w = &loggerWrapper{loggers: m}
}

// Refresh applies the log levels of config to the existing loggers.
func Refresh(config *repo.Config) {
	if w == nil {
		InitializeLogger(config)
		return
	}
	for name, level := range levels(config) {
		w.loggers[name].Logger.SetLevel(log.ParseLevel(level))
	}
}

func Logger(name string) logrus.FieldLogger {
	if w == nil {
		return log.NewWithModule(name)
	}
	if l, ok := w.loggers[name]; ok {
		return l
	}
	return log.NewWithModule(name)
}
