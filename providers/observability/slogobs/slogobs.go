// Package slogobs implements observability.Observer on top of the standard
// library's log/slog. Trace maps to a custom level below Debug so verbose
// adapter events can be filtered out with an ordinary slog.LevelVar.
package slogobs

import (
	"context"
	"log/slog"

	"github.com/codbun/chatcore/providers/observability"
)

// LevelTrace sits below slog.LevelDebug, matching slog's level arithmetic.
const LevelTrace = slog.Level(-8)

// Observer implements observability.Observer using slog.
type Observer struct {
	logger *slog.Logger
}

// New creates a slog-backed observer. A nil logger falls back to
// slog.Default().
func New(logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{logger: logger}
}

// Ensure Observer implements observability.Observer
var _ observability.Observer = (*Observer)(nil)

func (o *Observer) Trace(msg string, attrs ...observability.Attribute) {
	o.log(LevelTrace, msg, attrs)
}

func (o *Observer) Debug(msg string, attrs ...observability.Attribute) {
	o.log(slog.LevelDebug, msg, attrs)
}

func (o *Observer) Info(msg string, attrs ...observability.Attribute) {
	o.log(slog.LevelInfo, msg, attrs)
}

func (o *Observer) Warn(msg string, attrs ...observability.Attribute) {
	o.log(slog.LevelWarn, msg, attrs)
}

func (o *Observer) Error(msg string, attrs ...observability.Attribute) {
	o.log(slog.LevelError, msg, attrs)
}

func (o *Observer) log(level slog.Level, msg string, attrs []observability.Attribute) {
	logAttrs := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	o.logger.LogAttrs(context.Background(), level, msg, logAttrs...)
}
