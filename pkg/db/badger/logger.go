package badger

import "github.com/rs/zerolog"

// engineLogger routes badger's internal logging into zerolog.
type engineLogger struct {
	log zerolog.Logger
}

func (l engineLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l engineLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l engineLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l engineLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(format, args...)
}
