package domain

import "time"

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
	SubmissionExpired  SubmissionStatus = "expired"
)

func ParseSubmissionStatus(s string) (SubmissionStatus, bool) {
	switch SubmissionStatus(s) {
	case SubmissionPending, SubmissionApproved, SubmissionRejected, SubmissionExpired:
		return SubmissionStatus(s), true
	default:
		return "", false
	}
}

// PaymentSubmission is one proof-of-payment upload attempt. Multiple
// submissions per signup are allowed when a rejected one is retried.
// Deadline is copied from the signup at submission time and immutable;
// approving or rejecting is a one-way terminal transition.
type PaymentSubmission struct {
	ID              int64            `json:"id"`
	SignupID        int64            `json:"signup_id"`
	MemberID        int64            `json:"member_id"`
	Amount          int64            `json:"amount"`
	ProofURL        string           `json:"proof_url"`
	BankName        string           `json:"bank_name"`
	AccountName     string           `json:"account_name"`
	Method          string           `json:"method"`
	Status          SubmissionStatus `json:"status"`
	Deadline        time.Time        `json:"deadline"`
	ReviewedBy      *int64           `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
