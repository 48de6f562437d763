package logger

import (
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level       string // debug, info, warn, error
	Development bool
	OutputPaths []string
}

var (
	baseMu sync.RWMutex
	base   = mustBuild(Config{Level: "info"})
)

// Configure replaces the process-wide base logger. Loggers created earlier
// keep writing through the previous one.
func Configure(cfg Config) error {
	z, err := build(cfg)
	if err != nil {
		return err
	}
	baseMu.Lock()
	old := base
	base = z
	baseMu.Unlock()
	_ = old.Sync()
	return nil
}

// Sync flushes the base logger.
func Sync() { _ = current().Sync() }

func current() *zap.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

func build(cfg Config) (*zap.Logger, error) {
	var lvl zapcore.Level
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}
	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	enc := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		CallerKey:      zapcore.OmitKey,
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	encoding := "json"
	if cfg.Development {
		encoding = "console"
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
}

func mustBuild(cfg Config) *zap.Logger {
	z, err := build(cfg)
	if err != nil {
		return zap.NewNop()
	}
	return z
}

// Logger writes one structured entry per action, tagged with the service
// that produced it.
type Logger struct {
	z *zap.Logger
}

func New(service string) *Logger {
	return &Logger{z: current().With(
		zap.String("service", service),
		zap.String("hostname", hostname()),
		zap.Int("pid", os.Getpid()),
	)}
}

// NewNop discards everything; used by tests.
func NewNop() *Logger { return &Logger{z: zap.NewNop()} }

// FromZap wraps an existing zap logger, e.g. an observer core in tests.
func FromZap(z *zap.Logger) *Logger { return &Logger{z: z} }

// With returns a child logger carrying extra fields on every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{z: l.z.With(toZap(fields)...)}
}

func (l *Logger) log(level zapcore.Level, action string, fields map[string]any, err error) {
	zf := make([]zap.Field, 0, len(fields)+2)
	zf = append(zf, zap.String("action", action))
	zf = append(zf, toZap(fields)...)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	if ce := l.z.Check(level, action); ce != nil {
		ce.Write(zf...)
	}
}

func (l *Logger) Info(action string, fields map[string]any)  { l.log(zapcore.InfoLevel, action, fields, nil) }
func (l *Logger) Debug(action string, fields map[string]any) { l.log(zapcore.DebugLevel, action, fields, nil) }
func (l *Logger) Warn(action string, fields map[string]any)  { l.log(zapcore.WarnLevel, action, fields, nil) }
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(zapcore.ErrorLevel, action, fields, err)
}

func toZap(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

func hostname() string { h, _ := os.Hostname(); return h }
