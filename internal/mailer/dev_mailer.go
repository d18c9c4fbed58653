package mailer

import "github.com/serenespa/membership/pkg/logger"

// DevMailer prints emails to the log instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (m *DevMailer) SendAdminAlert(subject, text string) error {
	logger.Info("DEV EMAIL: admin alert", "subject", subject, "text", text)
	return nil
}
