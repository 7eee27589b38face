package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapCore adapts Logger into a zapcore.Core so that dependencies which only
// know how to log through zap (e.g. library-internal diagnostics) can be
// pointed at the same structured sink as the rest of the module.
type zapCore struct{ L Logger }

func (z zapCore) Enabled(level zapcore.Level) bool {
	if z.L.Debug {
		return true
	}
	return level > zapcore.DebugLevel
}

func (z zapCore) With(fields []zapcore.Field) zapcore.Core {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	merged := make(map[string]interface{}, len(z.L.Fields)+len(enc.Fields))
	for k, v := range z.L.Fields {
		merged[k] = v
	}
	for k, v := range enc.Fields {
		merged[k] = v
	}
	z.L.Fields = merged
	return z
}

func (z zapCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if z.Enabled(entry.Level) {
		return ce.AddCore(entry, z)
	}
	return ce
}

func (z zapCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	if entry.LoggerName != "" {
		z.L.Name += "/" + entry.LoggerName
	}
	z.L.log(entry.Level == zapcore.DebugLevel, z.L.formatMsg(entry.Message, enc.Fields))
	return nil
}

func (zapCore) Sync() error { return nil }

// Zap returns a *zap.Logger backed by this Logger's sink, for handing to
// library code (e.g. go-smtp's client dialer) that only accepts zap.
func (l Logger) Zap() *zap.Logger {
	return zap.New(zapCore{L: l})
}
