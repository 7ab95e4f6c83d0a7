// internal/config/logging.go
package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ApplyToStandardLogger configures the package-level logrus logger.
// Unknown levels fall back to info.
func (l LogConfig) ApplyToStandardLogger() {
	logrus.SetOutput(os.Stdout)
	l.apply(logrus.StandardLogger())
}

func (l LogConfig) apply(logger *logrus.Logger) {
	level, err := logrus.ParseLevel(strings.ToLower(l.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(l.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
