package helpers

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a configured Logrus logger
func NewLogger(appName, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.AddHook(appHook{app: appName})
	logger.WithFields(logrus.Fields{"env": env}).Info("logger initialized")
	return logger
}

// appHook stamps every entry with the binary name so API, worker and CLI
// lines can be told apart in a shared sink.
type appHook struct{ app string }

func (appHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h appHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["app"]; !ok {
		e.Data["app"] = h.app
	}
	return nil
}

func entry(logger *logrus.Logger, fields logrus.Fields, err error) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if fields == nil {
		fields = logrus.Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	return logger.WithFields(fields)
}

// LogError Convenience methods to keep a unified logging interface
func LogError(logger *logrus.Logger, msg string, err error, fields logrus.Fields) {
	entry(logger, fields, err).Error(msg)
}

// LogWarn is for collaborator failures that are swallowed.
func LogWarn(logger *logrus.Logger, msg string, err error, fields logrus.Fields) {
	entry(logger, fields, err).Warn(msg)
}

func LogInfo(logger *logrus.Logger, msg string, fields logrus.Fields) {
	entry(logger, fields, nil).Info(msg)
}
