package domain

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotifyNewGoLive          NotificationType = "new_go_live"
	NotifyPaymentProof       NotificationType = "payment_proof_uploaded"
	NotifyAccountDeactivated NotificationType = "account_deactivated"
)

// AdminNotification is an append-only log entry for the admin inbox.
// Only the read flag is ever mutated after creation.
type AdminNotification struct {
	ID          int64            `json:"id"`
	Type        NotificationType `json:"type"`
	MemberID    int64            `json:"member_id"`
	MemberType  MemberType       `json:"member_type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationContent returns the admin-facing title and description
// for a notification type.
func NotificationContent(t NotificationType, memberID int64, memberType MemberType) (title, description string) {
	switch t {
	case NotifyNewGoLive:
		return "New provider went live",
			fmt.Sprintf("%s member %d submitted go-live and is awaiting payment", memberType, memberID)
	case NotifyPaymentProof:
		return "Payment proof uploaded",
			fmt.Sprintf("%s member %d uploaded a proof of payment for review", memberType, memberID)
	case NotifyAccountDeactivated:
		return "Provider account deactivated",
			fmt.Sprintf("%s member %d was deactivated", memberType, memberID)
	default:
		return string(t), fmt.Sprintf("%s member %d", memberType, memberID)
	}
}
