package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/serenespa/membership/internal/domain"
	"github.com/serenespa/membership/internal/repository"
	"github.com/serenespa/membership/internal/storage"
	"github.com/serenespa/membership/pkg/events"
	"github.com/serenespa/membership/pkg/logger"
)

// PaymentService accepts proof-of-payment uploads against the hard
// deadline and carries admin adjudication through to the signup and
// member records.
type PaymentService interface {
	UploadProof(ctx context.Context, req *UploadProofRequest) (*domain.PaymentSubmission, error)
	ApprovePayment(ctx context.Context, submissionID, adminID int64) (*domain.PaymentSubmission, error)
	RejectPayment(ctx context.Context, submissionID, adminID int64, reason string) (*domain.PaymentSubmission, error)
	ListSubmissions(ctx context.Context, status domain.SubmissionStatus, limit, offset int) ([]domain.PaymentSubmission, error)
}

type UploadProofRequest struct {
	SignupID    int64
	Filename    string
	File        io.Reader
	Amount      int64
	BankName    string
	AccountName string
	Method      string
}

type paymentService struct {
	signupRepo  repository.SignupRepository
	paymentRepo repository.PaymentRepository
	memberRepo  repository.MemberRepository
	proofStore  storage.ProofStore
	notifier    Notifier
	eventBus    events.Publisher
	now         func() time.Time
}

func NewPaymentService(
	signupRepo repository.SignupRepository,
	paymentRepo repository.PaymentRepository,
	memberRepo repository.MemberRepository,
	proofStore storage.ProofStore,
	notifier Notifier,
	eventBus events.Publisher,
) PaymentService {
	return &paymentService{
		signupRepo:  signupRepo,
		paymentRepo: paymentRepo,
		memberRepo:  memberRepo,
		proofStore:  proofStore,
		notifier:    notifier,
		eventBus:    eventBus,
		now:         time.Now,
	}
}

func (s *paymentService) UploadProof(ctx context.Context, req *UploadProofRequest) (*domain.PaymentSubmission, error) {
	signup, err := s.signupRepo.GetByID(ctx, req.SignupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get signup: %w", err)
	}
	if signup == nil {
		return nil, &domain.NotFoundError{Entity: "signup", ID: req.SignupID}
	}

	if !signup.CanUploadProof() {
		return nil, &domain.InvalidTransitionError{SignupID: signup.ID, From: signup.Status, Op: "upload payment proof"}
	}
	if signup.PaymentDeadline == nil {
		return nil, fmt.Errorf("signup %d has no payment deadline", signup.ID)
	}

	// The deadline is a hard cutoff: a late proof is rejected
	// outright, never accepted and then ignored.
	if signup.DeadlinePassed(s.now()) {
		return nil, &domain.DeadlinePassedError{SignupID: signup.ID, Deadline: *signup.PaymentDeadline}
	}

	if signup.MemberID == nil {
		return nil, fmt.Errorf("signup %d has no linked member", signup.ID)
	}

	// One open submission per signup: a re-upload is only allowed once
	// the previous proof has been adjudicated.
	open, err := s.paymentRepo.HasPendingForSignup(ctx, signup.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending submissions: %w", err)
	}
	if open {
		return nil, &domain.PendingSubmissionError{SignupID: signup.ID}
	}

	proofURL, err := s.proofStore.Save(ctx, signup.ID, req.Filename, req.File)
	if err != nil {
		return nil, fmt.Errorf("failed to store proof: %w", err)
	}

	// Win the status CAS before writing the submission row, so a
	// concurrent deactivation can never strand a pending submission
	// behind a dead signup.
	updated, err := s.signupRepo.MarkPaymentPending(ctx, signup.ID, proofURL, req.Method)
	if err != nil {
		return nil, fmt.Errorf("failed to mark signup payment pending: %w", err)
	}
	if updated == nil {
		return nil, s.uploadRefusal(ctx, signup.ID)
	}

	submission, err := s.paymentRepo.Create(ctx, &domain.PaymentSubmission{
		SignupID:    signup.ID,
		MemberID:    *signup.MemberID,
		Amount:      req.Amount,
		ProofURL:    proofURL,
		BankName:    req.BankName,
		AccountName: req.AccountName,
		Method:      req.Method,
		Deadline:    *signup.PaymentDeadline,
	})
	if err != nil {
		// The signup is payment_pending with no open submission; the
		// provider can simply upload again.
		return nil, fmt.Errorf("failed to create payment submission: %w", err)
	}

	pending := domain.MemberPaymentPending
	if err := s.memberRepo.Patch(ctx, *signup.MemberID, domain.MemberPatch{PaymentStatus: &pending}); err != nil {
		logger.ErrorContext(ctx, "Failed to update member payment status", "error", err, "member_id", *signup.MemberID)
	}

	memberType, _ := domain.MemberTypeFor(signup.PortalType)
	s.notifier.Notify(ctx, domain.NotifyPaymentProof, *signup.MemberID, memberType)

	return submission, nil
}

func (s *paymentService) ApprovePayment(ctx context.Context, submissionID, adminID int64) (*domain.PaymentSubmission, error) {
	resolved, err := s.paymentRepo.Resolve(ctx, submissionID, domain.SubmissionApproved, adminID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to approve submission: %w", err)
	}
	if resolved == nil {
		return nil, s.resolveFailure(ctx, submissionID, "approve")
	}

	activated, err := s.signupRepo.Activate(ctx, resolved.SignupID)
	if err != nil {
		return nil, fmt.Errorf("failed to activate signup: %w", err)
	}
	if activated == nil {
		// The submission is approved but the signup was not
		// payment_pending anymore; surface it rather than guessing.
		current, gerr := s.signupRepo.GetByID(ctx, resolved.SignupID)
		if gerr != nil || current == nil {
			return nil, fmt.Errorf("approved submission %d but signup %d is unavailable", submissionID, resolved.SignupID)
		}
		return nil, &domain.InvalidTransitionError{SignupID: current.ID, From: current.Status, Op: "activate"}
	}

	verified := true
	paid := domain.MemberPaymentPaid
	if err := s.memberRepo.Patch(ctx, resolved.MemberID, domain.MemberPatch{IsVerified: &verified, PaymentStatus: &paid}); err != nil {
		return nil, fmt.Errorf("failed to mark member verified: %w", err)
	}

	event := events.SignupActivatedEvent{
		SignupID:    activated.ID,
		MemberID:    resolved.MemberID,
		ApprovedBy:  adminID,
		ActivatedAt: s.now(),
	}
	if err := s.eventBus.Publish(ctx, events.SignupActivated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish activation event", "error", err, "signup_id", activated.ID)
	}

	return resolved, nil
}

// RejectPayment resolves the submission but leaves the signup in
// payment_pending: the provider may re-upload while the original
// deadline has not passed. Verification is never touched on reject.
func (s *paymentService) RejectPayment(ctx context.Context, submissionID, adminID int64, reason string) (*domain.PaymentSubmission, error) {
	if reason == "" {
		return nil, fmt.Errorf("rejection reason is required")
	}

	resolved, err := s.paymentRepo.Resolve(ctx, submissionID, domain.SubmissionRejected, adminID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to reject submission: %w", err)
	}
	if resolved == nil {
		return nil, s.resolveFailure(ctx, submissionID, "reject")
	}

	rejected := domain.MemberPaymentRejected
	if err := s.memberRepo.Patch(ctx, resolved.MemberID, domain.MemberPatch{PaymentStatus: &rejected}); err != nil {
		logger.ErrorContext(ctx, "Failed to update member payment status", "error", err, "member_id", resolved.MemberID)
	}

	return resolved, nil
}

func (s *paymentService) ListSubmissions(ctx context.Context, status domain.SubmissionStatus, limit, offset int) ([]domain.PaymentSubmission, error) {
	return s.paymentRepo.ListByStatus(ctx, status, limit, offset)
}

// uploadRefusal turns a lost payment-pending CAS into the true reason:
// the deadline actually elapsing, or a concurrent transition (such as
// an admin deactivation) that has nothing to do with the clock.
func (s *paymentService) uploadRefusal(ctx context.Context, signupID int64) error {
	current, err := s.signupRepo.GetByID(ctx, signupID)
	if err != nil {
		return fmt.Errorf("failed to upload payment proof: %w", err)
	}
	if current == nil {
		return &domain.NotFoundError{Entity: "signup", ID: signupID}
	}
	if current.DeadlinePassed(s.now()) {
		return &domain.DeadlinePassedError{SignupID: current.ID, Deadline: *current.PaymentDeadline}
	}
	return &domain.InvalidTransitionError{SignupID: current.ID, From: current.Status, Op: "upload payment proof"}
}

func (s *paymentService) resolveFailure(ctx context.Context, submissionID int64, op string) error {
	current, err := s.paymentRepo.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to %s submission: %w", op, err)
	}
	if current == nil {
		return &domain.NotFoundError{Entity: "payment submission", ID: submissionID}
	}
	return fmt.Errorf("cannot %s submission %d: already %s", op, submissionID, current.Status)
}
