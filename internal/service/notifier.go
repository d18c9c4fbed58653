package service

import (
	"context"
	"fmt"
	"time"

	"github.com/serenespa/membership/internal/domain"
	"github.com/serenespa/membership/internal/mailer"
	"github.com/serenespa/membership/internal/repository"
	"github.com/serenespa/membership/pkg/events"
	"github.com/serenespa/membership/pkg/logger"
)

// Notifier fans admin-facing workflow events out to the notification
// inbox, the event bus, and email. Delivery is best effort: failures
// are logged and retried once, and never propagate into the workflow
// transition that triggered them.
type Notifier interface {
	Notify(ctx context.Context, typ domain.NotificationType, memberID int64, memberType domain.MemberType)
}

type adminNotifier struct {
	notificationRepo repository.NotificationRepository
	eventBus         events.Publisher
	mailer           mailer.Service
}

func NewAdminNotifier(
	notificationRepo repository.NotificationRepository,
	eventBus events.Publisher,
	mailer mailer.Service,
) Notifier {
	return &adminNotifier{
		notificationRepo: notificationRepo,
		eventBus:         eventBus,
		mailer:           mailer,
	}
}

var notificationSubjects = map[domain.NotificationType]string{
	domain.NotifyNewGoLive:          events.AdminNewGoLive,
	domain.NotifyPaymentProof:       events.AdminPaymentProof,
	domain.NotifyAccountDeactivated: events.AdminAccountDeactived,
}

func (n *adminNotifier) Notify(ctx context.Context, typ domain.NotificationType, memberID int64, memberType domain.MemberType) {
	title, description := domain.NotificationContent(typ, memberID, memberType)

	record := &domain.AdminNotification{
		Type:        typ,
		MemberID:    memberID,
		MemberType:  memberType,
		Title:       title,
		Description: description,
	}

	stored, err := n.notificationRepo.Create(ctx, record)
	if err != nil {
		logger.WarnContext(ctx, "Failed to store admin notification, retrying", "error", err, "type", typ, "member_id", memberID)
		stored, err = n.notificationRepo.Create(ctx, record)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to store admin notification", "error", err, "type", typ, "member_id", memberID)
		}
	}

	event := events.AdminNotificationEvent{
		Type:        string(typ),
		MemberID:    memberID,
		MemberType:  string(memberType),
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if stored != nil {
		event.CreatedAt = stored.CreatedAt
	}

	if subject, ok := notificationSubjects[typ]; ok {
		if err := n.eventBus.Publish(ctx, subject, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish admin notification event", "error", err, "subject", subject, "member_id", memberID)
		}
	}

	// Deactivations also get an email so a missed inbox entry does
	// not leave a suspended provider unnoticed.
	if typ == domain.NotifyAccountDeactivated && n.mailer != nil {
		body := fmt.Sprintf("%s\n\n%s", title, description)
		if err := n.mailer.SendAdminAlert(title, body); err != nil {
			logger.WarnContext(ctx, "Failed to send admin alert email", "error", err, "member_id", memberID)
		}
	}
}
