package cli

import "go.uber.org/zap"

// verboseLogger builds the zap logger handed to capture components. Debug
// JSON on stderr under --verbose, a nop logger otherwise, so ndjson stdout
// stays protocol-clean.
func verboseLogger(globals *Globals) *zap.Logger {
	if globals == nil || !globals.Verbose {
		return zap.NewNop()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// captureLogger wraps zap for verbose debug with capture session context.
type captureLogger struct {
	sugared   *zap.SugaredLogger
	sessionFn func() string
}

func newCaptureLogger(globals *Globals, sessionFn func() string) *captureLogger {
	if globals == nil || !globals.Verbose {
		return &captureLogger{}
	}
	return &captureLogger{
		sugared:   verboseLogger(globals).Sugar(),
		sessionFn: sessionFn,
	}
}

func (l *captureLogger) Debug(format string, args ...interface{}) {
	if l.sugared == nil {
		return
	}
	session := ""
	if l.sessionFn != nil {
		session = l.sessionFn()
	}
	l.sugared.With("session", session).Debugf(format, args...)
}
