// Package logx builds the client's diagnostic logger. The terminal belongs
// to the TUI, so log output goes to a file under the user cache dir; unless
// debug logging is enabled the logger is a no-op.
package logx

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const appDir = "meetflix-cli"

// New returns a file-backed debug logger, or zap.NewNop() when debug is off
// or the log file cannot be opened.
func New(debug bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}

	dir, err := os.UserCacheDir()
	if err != nil {
		return zap.NewNop()
	}
	path := filepath.Join(dir, appDir, "meetflix.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zap.NewNop()
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return zap.NewNop()
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(file), zapcore.DebugLevel)
	return zap.New(core)
}
