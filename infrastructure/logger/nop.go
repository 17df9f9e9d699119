package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewNop returns a Logger that writes nothing. Fatal does not exit, so tests
// can exercise fatal paths.
func NewNop() Logger {
	return &zapLogger{logger: zap.NewNop().WithOptions(zap.WithFatalHook(continueHook{}))}
}

// continueHook lets execution go on after a fatal entry. zap turns
// zapcore.WriteThenNoop into an exit.
type continueHook struct{}

func (continueHook) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {}
