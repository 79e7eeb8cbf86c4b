package config

import (
	"os"

	"github.com/phuslu/log"
	"gorm.io/gorm/logger"
)

// SetupLogging configures the process-wide logger
func SetupLogging(cfg LoggingConfig) {
	level := log.ParseLevel(cfg.Level)

	var writer log.Writer
	if cfg.Format == "json" {
		writer = &log.IOWriter{Writer: os.Stdout}
	} else {
		writer = &log.ConsoleWriter{
			ColorOutput:    log.IsTerminal(os.Stdout.Fd()),
			EndWithMessage: true,
		}
	}

	log.DefaultLogger = log.Logger{
		Level:      level,
		Caller:     1,
		TimeFormat: "2006-01-02 15:04:05.000",
		Writer:     writer,
	}
}

// GormLogLevel maps the database log level setting to gorm's logger level
func GormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
