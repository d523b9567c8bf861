package pebble

import (
	"fmt"

	"github.com/rs/zerolog"
)

// engineLogger routes pebble's internal logging into zerolog.
type engineLogger struct {
	log zerolog.Logger
}

func (l engineLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l engineLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l engineLogger) Fatalf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
	panic(fmt.Sprintf(format, args...))
}
