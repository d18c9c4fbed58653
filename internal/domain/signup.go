package domain

import "time"

type SignupStatus string

const (
	SignupPlanSelected    SignupStatus = "plan_selected"
	SignupTermsAccepted   SignupStatus = "terms_accepted"
	SignupPortalSelected  SignupStatus = "portal_selected"
	SignupAccountCreated  SignupStatus = "account_created"
	SignupProfileUploaded SignupStatus = "profile_uploaded"
	SignupAwaitingPayment SignupStatus = "awaiting_payment"
	SignupPaymentPending  SignupStatus = "payment_pending"
	SignupActive          SignupStatus = "active"
	SignupDeactivated     SignupStatus = "deactivated"
	SignupRejected        SignupStatus = "rejected"
)

func ParseSignupStatus(s string) (SignupStatus, bool) {
	switch SignupStatus(s) {
	case SignupPlanSelected, SignupTermsAccepted, SignupPortalSelected,
		SignupAccountCreated, SignupProfileUploaded, SignupAwaitingPayment,
		SignupPaymentPending, SignupActive, SignupDeactivated, SignupRejected:
		return SignupStatus(s), true
	default:
		return "", false
	}
}

// forwardEdges is the onboarding graph. Each status has exactly one
// forward successor; deactivated and rejected are reachable from any
// non-terminal status and are handled separately.
var forwardEdges = map[SignupStatus]SignupStatus{
	SignupPlanSelected:    SignupTermsAccepted,
	SignupTermsAccepted:   SignupPortalSelected,
	SignupPortalSelected:  SignupAccountCreated,
	SignupAccountCreated:  SignupProfileUploaded,
	SignupProfileUploaded: SignupAwaitingPayment,
	SignupAwaitingPayment: SignupPaymentPending,
	SignupPaymentPending:  SignupActive,
}

// NextStatus returns the single forward successor of s, or false for
// terminal states.
func NextStatus(s SignupStatus) (SignupStatus, bool) {
	next, ok := forwardEdges[s]
	return next, ok
}

func (s SignupStatus) IsTerminal() bool {
	return s == SignupActive || s == SignupDeactivated || s == SignupRejected
}

// Signup is one provider onboarding attempt. Status is the single
// source of truth for workflow position; every mutation goes through a
// compare-and-swap on it.
type Signup struct {
	ID                 int64        `json:"id"`
	PlanType           PlanType     `json:"plan_type"`
	PortalType         PortalType   `json:"portal_type,omitempty"`
	Status             SignupStatus `json:"status"`
	TermsAccepted      bool         `json:"terms_accepted"`
	TermsAcceptedAt    *time.Time   `json:"terms_accepted_at,omitempty"`
	TermsPolicyVersion string       `json:"terms_policy_version,omitempty"`
	TermsIP            string       `json:"terms_ip,omitempty"`
	TermsUserAgent     string       `json:"terms_user_agent,omitempty"`
	UserID             *int64       `json:"user_id,omitempty"`
	Email              string       `json:"email,omitempty"`
	MemberID           *int64       `json:"member_id,omitempty"`
	PaymentDeadline    *time.Time   `json:"payment_deadline,omitempty"`
	PaymentProofURL    string       `json:"payment_proof_url,omitempty"`
	PaymentMethod      string       `json:"payment_method,omitempty"`
	IsLive             bool         `json:"is_live"`
	DeactivationReason string       `json:"deactivation_reason,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// DeadlinePassed reports whether the payment deadline has elapsed. A
// signup without a deadline has nothing to miss.
func (s *Signup) DeadlinePassed(now time.Time) bool {
	return s.PaymentDeadline != nil && now.After(*s.PaymentDeadline)
}

// CanUploadProof reports whether a proof-of-payment upload is permitted
// from the current status: first upload while awaiting payment, or a
// re-upload after a rejection while still payment_pending.
func (s *Signup) CanUploadProof() bool {
	return s.Status == SignupAwaitingPayment || s.Status == SignupPaymentPending
}
