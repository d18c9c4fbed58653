package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/serenespa/membership/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	// Signup workflow events
	SignupCreated      = "signup.created"
	SignupAccountMade  = "signup.account_created"
	SignupWentLive     = "signup.went_live"
	SignupActivated    = "signup.activated"
	SignupDeactivated  = "signup.deactivated"

	// Admin-facing events
	AdminNewGoLive        = "admin.new_go_live"
	AdminPaymentProof     = "admin.payment_proof_uploaded"
	AdminAccountDeactived = "admin.account_deactivated"
)

// Event payloads
type SignupCreatedEvent struct {
	SignupID  int64     `json:"signup_id"`
	PlanType  string    `json:"plan_type"`
	CreatedAt time.Time `json:"created_at"`
}

type SignupWentLiveEvent struct {
	SignupID        int64     `json:"signup_id"`
	MemberID        int64     `json:"member_id"`
	MemberType      string    `json:"member_type"`
	PaymentDeadline time.Time `json:"payment_deadline"`
	WentLiveAt      time.Time `json:"went_live_at"`
}

type SignupActivatedEvent struct {
	SignupID    int64     `json:"signup_id"`
	MemberID    int64     `json:"member_id"`
	ApprovedBy  int64     `json:"approved_by"`
	ActivatedAt time.Time `json:"activated_at"`
}

type SignupDeactivatedEvent struct {
	SignupID      int64     `json:"signup_id"`
	MemberID      *int64    `json:"member_id,omitempty"`
	Reason        string    `json:"reason"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

type AdminNotificationEvent struct {
	Type        string    `json:"type"`
	MemberID    int64     `json:"member_id"`
	MemberType  string    `json:"member_type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
