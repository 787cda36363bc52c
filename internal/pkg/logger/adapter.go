package logger

import (
	"io"
	"log/slog"

	"token_screener/internal/app/port"
)

// slogAdapter реализует интерфейс port.Logger поверх *slog.Logger.
type slogAdapter struct {
	l *slog.Logger
}

// NewSlogAdapter wraps l as a port.Logger. A nil l uses the package logger.
func NewSlogAdapter(l *slog.Logger) port.Logger {
	if l == nil {
		ensureInitialized()
		l = globalLogger
	}
	return &slogAdapter{l: l}
}

// Nop returns a port.Logger that discards everything.
func Nop() port.Logger {
	return &slogAdapter{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Info логирует информационное сообщение.
func (a *slogAdapter) Info(msg string, args ...any) {
	a.l.Info(msg, args...)
}

// Debug логирует отладочное сообщение.
func (a *slogAdapter) Debug(msg string, args ...any) {
	a.l.Debug(msg, args...)
}

// Warn логирует предупреждающее сообщение.
func (a *slogAdapter) Warn(msg string, args ...any) {
	a.l.Warn(msg, args...)
}

// Error логирует сообщение об ошибке.
func (a *slogAdapter) Error(msg string, args ...any) {
	a.l.Error(msg, args...)
}

// With returns a logger that adds args to every record.
func (a *slogAdapter) With(args ...any) port.Logger {
	return &slogAdapter{l: a.l.With(args...)}
}
