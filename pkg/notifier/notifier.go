package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/jinjin-academy/schedule-api/pkg/config"
)

// DecisionNotification describes a change-request decision to announce.
type DecisionNotification struct {
	TemplateName string
	DayLabel     string
	TimeLabel    string
	Status       string
	RequestedBy  string
	DecidedBy    string
}

// Notifier delivers decision notifications. Implementations must be safe to
// call after the decision transaction has committed; errors are advisory only.
type Notifier interface {
	SendDecisionNotification(ctx context.Context, n DecisionNotification) error
}

// New picks the SendGrid implementation when an API key is configured and a
// log-only fallback otherwise.
func New(cfg config.NotifyConfig, logger *zap.Logger) Notifier {
	if cfg.SendGridKey != "" && cfg.FromEmail != "" && cfg.ToEmail != "" {
		return newSendGridNotifier(cfg, logger)
	}
	return &logNotifier{logger: logger}
}

// logNotifier writes the notification to the application log instead of
// delivering email. Used when SMTP/SendGrid settings are absent.
type logNotifier struct {
	logger *zap.Logger
}

func (n *logNotifier) SendDecisionNotification(_ context.Context, msg DecisionNotification) error {
	n.logger.Info("decision notification (email not configured)",
		zap.String("template", msg.TemplateName),
		zap.String("day", msg.DayLabel),
		zap.String("time", msg.TimeLabel),
		zap.String("status", msg.Status),
		zap.String("requested_by", msg.RequestedBy),
		zap.String("decided_by", msg.DecidedBy),
	)
	return nil
}
