package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

type Logger = zerolog.Logger

type Fields map[string]interface{}

func New(env string) Logger {
	level := zerolog.InfoLevel
	out := io.Writer(os.Stdout)
	if env == "local" {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func With(logger Logger, fields Fields) Logger {
	event := logger
	for k, v := range fields {
		event = event.With().Interface(k, v).Logger()
	}
	return event
}
