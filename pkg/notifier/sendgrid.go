package notifier

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/jinjin-academy/schedule-api/pkg/config"
)

type sendGridNotifier struct {
	client *sendgrid.Client
	from   *sgmail.Email
	to     *sgmail.Email
	logger *zap.Logger
}

func newSendGridNotifier(cfg config.NotifyConfig, logger *zap.Logger) *sendGridNotifier {
	return &sendGridNotifier{
		client: sendgrid.NewSendClient(cfg.SendGridKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		to:     sgmail.NewEmail("", cfg.ToEmail),
		logger: logger,
	}
}

func (n *sendGridNotifier) SendDecisionNotification(_ context.Context, msg DecisionNotification) error {
	verdict := "거절"
	if msg.Status == "approved" {
		verdict = "승인"
	}
	subject := fmt.Sprintf("[진진영어] 수정 요청 %s 안내", verdict)
	body := fmt.Sprintf("안녕하세요 %s님\n\n요청하신 시간표 변경이 %s되었습니다.\n템플릿: %s\n요일/시간: %s %s\n처리자: %s\n\n학원 시스템에서 자세한 내용을 확인해 주세요.",
		msg.RequestedBy, verdict, msg.TemplateName, msg.DayLabel, msg.TimeLabel, msg.DecidedBy)

	message := sgmail.NewSingleEmail(n.from, subject, n.to, body, "")
	resp, err := n.client.Send(message)
	if err != nil {
		return fmt.Errorf("send decision notification: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected notification: status %d", resp.StatusCode)
	}
	n.logger.Debug("decision notification delivered", zap.Int("status", resp.StatusCode))
	return nil
}
