/*
Package logx provides a structured logging wrapper based on zerolog.

It initializes the global logger, picks the output format (console or JSON)
based on the environment, and exposes small helpers for the common levels.
*/
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog instance. Development gets a colored
// console writer at debug level; everything else gets JSON at info level. All
// logs carry a Unix timestamp and caller information.
func Init(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns a pointer to the global zerolog.Logger instance. Components
// derive contextual child loggers from it.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Info records a message at the Info level.
func Info(msg string) {
	Logger().Info().CallerSkipFrame(1).Msg(msg)
}

// Warn records a message at the Warn level.
func Warn(msg string) {
	Logger().Warn().CallerSkipFrame(1).Msg(msg)
}

// Error records an error and message at the Error level.
func Error(err error, msg string) {
	Logger().Error().Err(err).CallerSkipFrame(1).Msg(msg)
}

// Fatal records an error at the Fatal level and terminates the process.
func Fatal(err error, msg string) {
	Logger().Fatal().Err(err).CallerSkipFrame(1).Msg(msg)
}
