// Package notification delivers trading alerts to external channels.
// Its most important consumer is the unwind-failure path: a failed
// emergency close leaves unhedged exposure and must reach an operator,
// not just a log file.
package notification

import (
	"context"

	"go.uber.org/zap"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the bot's logger. It is the fallback
// when no webhook is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	fields := []zap.Field{
		zap.String("title", alert.Title),
		zap.String("message", alert.Message),
	}
	switch alert.Level {
	case AlertCritical:
		n.logger.Error("alert", fields...)
	case AlertWarning:
		n.logger.Warn("alert", fields...)
	default:
		n.logger.Info("alert", fields...)
	}
	return nil
}
