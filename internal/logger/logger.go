package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	// Set log level from environment variable
	level := zerolog.InfoLevel
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		level = zerolog.DebugLevel
	case "WARN", "WARNING":
		level = zerolog.WarnLevel
	case "ERROR":
		level = zerolog.ErrorLevel
	}

	log = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()
}

// Debug logs a debug message (only shown when LOG_LEVEL=DEBUG)
func Debug(format string, v ...interface{}) {
	log.Debug().Msg(fmt.Sprintf(format, v...))
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	log.Info().Msg(fmt.Sprintf(format, v...))
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	log.Warn().Msg(fmt.Sprintf(format, v...))
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	log.Error().Msg(fmt.Sprintf(format, v...))
}

// Fatal logs a fatal message and exits the program
func Fatal(format string, v ...interface{}) {
	log.Fatal().Msg(fmt.Sprintf(format, v...))
}
