package badger

import "go.uber.org/zap"

// zapLogger routes badger's internal logging into zap. Badger is chatty at
// info level, so info is demoted to debug.
type zapLogger struct {
	s *zap.SugaredLogger
}

func newLogger(l *zap.Logger) *zapLogger {
	return &zapLogger{s: l.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *zapLogger) Errorf(format string, args ...any)   { l.s.Errorf(format, args...) }
func (l *zapLogger) Warningf(format string, args ...any) { l.s.Warnf(format, args...) }
func (l *zapLogger) Infof(format string, args ...any)    { l.s.Debugf(format, args...) }
func (l *zapLogger) Debugf(format string, args ...any)   { l.s.Debugf(format, args...) }
