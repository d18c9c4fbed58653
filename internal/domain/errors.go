package domain

import (
	"fmt"
	"time"
)

// InvalidTransitionError reports an operation attempted from a status
// that does not permit it. It is always surfaced to the caller, never
// silently corrected.
type InvalidTransitionError struct {
	SignupID int64
	From     SignupStatus
	Op       string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("signup %d: cannot %s from status %q", e.SignupID, e.Op, e.From)
}

// DeadlinePassedError reports a proof upload attempted after the
// payment deadline. It carries the original deadline so the caller can
// explain why.
type DeadlinePassedError struct {
	SignupID int64
	Deadline time.Time
}

func (e *DeadlinePassedError) Error() string {
	return fmt.Sprintf("signup %d: payment deadline passed at %s, account will be deactivated",
		e.SignupID, e.Deadline.Format(time.RFC3339))
}

// PendingSubmissionError reports a proof upload attempted while an
// earlier submission is still awaiting review. One open submission per
// signup at a time keeps the admin queue free of superseded uploads.
type PendingSubmissionError struct {
	SignupID int64
}

func (e *PendingSubmissionError) Error() string {
	return fmt.Sprintf("signup %d already has a payment proof under review", e.SignupID)
}

// ConflictError reports a duplicate account creation attempt.
type ConflictError struct {
	Email string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("account with email %q already exists", e.Email)
}

// ConfigurationError reports an unrecognized portal type reaching the
// profile factory. The signup must abort rather than create a
// malformed profile.
type ConfigurationError struct {
	PortalType string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unrecognized portal type %q", e.PortalType)
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}
