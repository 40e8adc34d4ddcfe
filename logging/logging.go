package logging

import (
	"claudebridge/config"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the standard logrus logger from the loaded configuration.
func InitLogger() {
	Configure(logrus.StandardLogger(), config.AppConfig.Logging)
	logrus.Info("Logger initialized successfully")
}

// Configure applies level, format and output settings to logger.
// Invalid values fall back to info, text and stdout respectively.
func Configure(logger *logrus.Logger, cfg config.LoggingConfig) {
	// Set log level
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", cfg.Level, err)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Set log format
	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	// Set log output
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logger.Warnf("Failed to open log file '%s', using 'stdout' instead. Error: %v", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}
	logger.SetOutput(output)
}
