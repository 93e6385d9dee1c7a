package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = zap.NewNop().Sugar()
)

// Init builds the process logger. Production gets JSON output at info level,
// everything else a console encoder at debug level.
func Init(environment string) {
	var cfg zap.Config
	if strings.EqualFold(environment, "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		// DPanic must not crash a dev server on a malformed key/value pair.
		cfg.Development = false
	}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// fall back to a bare stderr core so startup logs are never lost
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			zapcore.DebugLevel,
		)
		built = zap.New(core)
	}

	Set(built)
}

// Set replaces the process logger. Tests use it with zaptest/observer cores.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l.Sugar()
}

func Sync() {
	_ = current().Sync()
}

func Debug(msg string, keysAndValues ...any) {
	current().Debugw(msg, normalize(keysAndValues)...)
}

func Info(msg string, keysAndValues ...any) {
	current().Infow(msg, normalize(keysAndValues)...)
}

func Warn(msg string, keysAndValues ...any) {
	current().Warnw(msg, normalize(keysAndValues)...)
}

func Error(msg string, keysAndValues ...any) {
	current().Errorw(msg, normalize(keysAndValues)...)
}

func Fatal(msg string, keysAndValues ...any) {
	current().Fatalw(msg, normalize(keysAndValues)...)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// normalize lets callers pass a bare error (logger.Error("msg", err)) and
// pads a dangling key so zap never sees an odd-length list.
func normalize(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv)+1)
	for i := 0; i < len(kv); i++ {
		if err, ok := kv[i].(error); ok {
			out = append(out, zap.Error(err))
			continue
		}
		if _, ok := kv[i].(zap.Field); ok {
			out = append(out, kv[i])
			continue
		}
		if i+1 >= len(kv) {
			out = append(out, "extra", kv[i])
			break
		}
		out = append(out, kv[i], kv[i+1])
		i++
	}
	return out
}
