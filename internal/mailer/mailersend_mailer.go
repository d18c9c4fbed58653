package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	adminTo mailersend.Recipient
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail, adminEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "" && adminEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
		adminTo: mailersend.Recipient{
			Name:  "Admin",
			Email: adminEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendAdminAlert(subject, text string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	message := m.client.Email.NewMessage()
	message.SetFrom(m.from)
	message.SetRecipients([]mailersend.Recipient{m.adminTo})
	message.SetSubject(subject)
	message.SetText(text)

	_, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send admin alert: %w", err)
	}
	return nil
}
