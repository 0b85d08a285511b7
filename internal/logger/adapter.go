package logger

import (
	"fmt"

	"registration-assistant/internal/domain"
)

type ZLogXAdapter struct {
	*ZLogX
}

var _ domain.Logger = (*ZLogXAdapter)(nil)

// Print implements Logging.
func (s *ZLogXAdapter) Print(args ...any) {
	s.Logger.Print(args...)
}

// Debug implements Logging.
func (s *ZLogXAdapter) Debug(args ...any) {
	s.Logger.Debug().Msg(fmt.Sprint(args...))
}

// Info implements Logging.
func (s *ZLogXAdapter) Info(args ...any) {
	s.Logger.Info().Msg(fmt.Sprint(args...))
}

// Warn implements Logging.
func (s *ZLogXAdapter) Warn(args ...any) {
	s.Logger.Warn().Msg(fmt.Sprint(args...))
}

// Error implements Logging.
func (s *ZLogXAdapter) Error(args ...any) {
	s.Logger.Error().Msg(fmt.Sprint(args...))
}

// Fatal implements Logging.
func (s *ZLogXAdapter) Fatal(args ...any) {
	s.Logger.Fatal().Msg(fmt.Sprint(args...))
}

// Panic implements Logging.
func (s *ZLogXAdapter) Panic(args ...any) {
	s.Logger.Panic().Msg(fmt.Sprint(args...))
}

// Printf implements Logging.
func (s *ZLogXAdapter) Printf(format string, args ...any) {
	s.Logger.Printf(format, args...)
}

// Debugf implements Logging.
func (s *ZLogXAdapter) Debugf(format string, args ...any) {
	s.Logger.Debug().Msgf(format, args...)
}

// Infof implements Logging.
func (s *ZLogXAdapter) Infof(format string, args ...any) {
	s.Logger.Info().Msgf(format, args...)
}

// Warnf implements Logging.
func (s *ZLogXAdapter) Warnf(format string, args ...any) {
	s.Logger.Warn().Msgf(format, args...)
}

// Errorf implements Logging.
func (s *ZLogXAdapter) Errorf(format string, args ...any) {
	s.Logger.Error().Msgf(format, args...)
}

// Fatalf implements Logging.
func (s *ZLogXAdapter) Fatalf(format string, args ...any) {
	s.Logger.Fatal().Msgf(format, args...)
}

// Panicf implements Logging.
func (s *ZLogXAdapter) Panicf(format string, args ...any) {
	s.Logger.Panic().Msgf(format, args...)
}

// WithError implements Logging.
func (s *ZLogXAdapter) WithError(err error) domain.Logger {
	newLogger := s.With().Err(err).Logger()
	return &ZLogXAdapter{&ZLogX{Logger: &newLogger, config: s.config}}
}

// WithField implements Logging.
func (s *ZLogXAdapter) WithField(key string, value any) domain.Logger {
	newLogger := s.With().Interface(key, value).Logger()
	return &ZLogXAdapter{&ZLogX{Logger: &newLogger, config: s.config}}
}

// WithFields implements Logging.
func (s *ZLogXAdapter) WithFields(fields map[string]any) domain.Logger {
	newLogger := s.With().Fields(fields).Logger()
	return &ZLogXAdapter{&ZLogX{Logger: &newLogger, config: s.config}}
}

// Success implements Logging.
func (s *ZLogXAdapter) Success(msg string) {
	s.ZLogX.Success(msg)
}

// Failure implements Logging.
func (s *ZLogXAdapter) Failure(msg string) {
	s.ZLogX.Failure(msg)
}
