package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenespa/membership/internal/domain"
)

const adminID int64 = 777

func (env *testEnv) uploadProof(t *testing.T, signupID int64) *domain.PaymentSubmission {
	t.Helper()

	sub, err := env.payments.UploadProof(context.Background(), &UploadProofRequest{
		SignupID:    signupID,
		Filename:    "transfer.jpg",
		File:        strings.NewReader("proof-bytes"),
		Amount:      250000,
		BankName:    "BCA",
		AccountName: "Putri",
		Method:      "bank_transfer",
	})
	require.NoError(t, err)
	return sub
}

func TestUploadAndApproveWithinDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signup := env.liveSignup(t)

	// Proof uploaded four hours into the five-hour window.
	env.clock.Advance(4 * time.Hour)
	sub := env.uploadProof(t, signup.ID)
	assert.Equal(t, domain.SubmissionPending, sub.Status)
	assert.Equal(t, *signup.PaymentDeadline, sub.Deadline)
	assert.NotEmpty(t, sub.ProofURL)

	current, _ := env.signups.GetSignup(ctx, signup.ID)
	assert.Equal(t, domain.SignupPaymentPending, current.Status)

	member, _ := env.memberRepo.GetByID(ctx, *signup.MemberID)
	assert.Equal(t, domain.MemberPaymentPending, member.PaymentStatus)
	assert.Equal(t, 1, env.notifier.countByType(domain.NotifyPaymentProof))

	// Admin approves half an hour later, still inside the window.
	env.clock.Advance(30 * time.Minute)
	resolved, err := env.payments.ApprovePayment(ctx, sub.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionApproved, resolved.Status)
	require.NotNil(t, resolved.ReviewedBy)
	assert.Equal(t, adminID, *resolved.ReviewedBy)

	current, _ = env.signups.GetSignup(ctx, signup.ID)
	assert.Equal(t, domain.SignupActive, current.Status)

	member, _ = env.memberRepo.GetByID(ctx, *signup.MemberID)
	assert.True(t, member.IsVerified)
	assert.Equal(t, domain.MemberPaymentPaid, member.PaymentStatus)

	// The sweep after the deadline must leave the activated account
	// alone.
	env.clock.Advance(2 * time.Hour)
	n, err := env.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	current, _ = env.signups.GetSignup(ctx, signup.ID)
	assert.Equal(t, domain.SignupActive, current.Status)
}

func TestMissedDeadlineDeactivates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signup := env.liveSignup(t)

	// No proof ever arrives; the window elapses.
	env.clock.Advance(5*time.Hour + time.Minute)
	n, err := env.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	current, _ := env.signups.GetSignup(ctx, signup.ID)
	assert.Equal(t, domain.SignupDeactivated, current.Status)
	assert.False(t, current.IsLive)
	assert.Contains(t, current.DeactivationReason, "deadline")

	member, _ := env.memberRepo.GetByID(ctx, *signup.MemberID)
	assert.False(t, member.IsLive)
	assert.Equal(t, 1, env.notifier.countByType(domain.NotifyAccountDeactivated))

	// A second sweep finds nothing and notifies nobody.
	n, err = env.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, env.notifier.countByType(domain.NotifyAccountDeactivated))
}

func TestUploadAfterDeadlineRefused(t *testing.T) {
	env := newTestEnv(t)
	signup := env.liveSignup(t)

	env.clock.Advance(5*time.Hour + 10*time.Minute)
	_, err := env.payments.UploadProof(context.Background(), &UploadProofRequest{
		SignupID: signup.ID,
		Filename: "late.jpg",
		File:     strings.NewReader("too late"),
		Method:   "bank_transfer",
	})

	var deadlineErr *domain.DeadlinePassedError
	require.ErrorAs(t, err, &deadlineErr)
	assert.Equal(t, *signup.PaymentDeadline, deadlineErr.Deadline)

	// The refused upload must leave no trace: nothing stored, no
	// submission row.
	assert.Zero(t, env.proofStore.saved)
	subs, _ := env.paymentRepo.ListByStatus(context.Background(), domain.SubmissionPending, 0, 0)
	assert.Empty(t, subs)
}

func TestRejectThenReupload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signup := env.liveSignup(t)

	env.clock.Advance(4 * time.Hour)
	first := env.uploadProof(t, signup.ID)

	rejected, err := env.payments.RejectPayment(ctx, first.ID, adminID, "amount does not match the invoice")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionRejected, rejected.Status)
	assert.Equal(t, "amount does not match the invoice", rejected.RejectionReason)

	// Rejection leaves the signup awaiting adjudication, never
	// verified, and the member flagged.
	current, _ := env.signups.GetSignup(ctx, signup.ID)
	assert.Equal(t, domain.SignupPaymentPending, current.Status)

	member, _ := env.memberRepo.GetByID(ctx, *signup.MemberID)
	assert.False(t, member.IsVerified)
	assert.Equal(t, domain.MemberPaymentRejected, member.PaymentStatus)

	// A corrected proof inside the original window is accepted.
	env.clock.Advance(50 * time.Minute)
	second := env.uploadProof(t, signup.ID)
	assert.Equal(t, domain.SubmissionPending, second.Status)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = env.payments.ApprovePayment(ctx, second.ID, adminID)
	require.NoError(t, err)
	current, _ = env.signups.GetSignup(ctx, signup.ID)
	assert.Equal(t, domain.SignupActive, current.Status)
}

func TestReuploadAfterDeadlineRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signup := env.liveSignup(t)

	env.clock.Advance(4 * time.Hour)
	first := env.uploadProof(t, signup.ID)
	_, err := env.payments.RejectPayment(ctx, first.ID, adminID, "unreadable scan")
	require.NoError(t, err)

	// The window closed while the provider scanned a new receipt. The
	// deadline is the original one; rejection does not extend it.
	env.clock.Advance(time.Hour + 10*time.Minute)
	_, err = env.payments.UploadProof(ctx, &UploadProofRequest{
		SignupID: signup.ID,
		Filename: "retry.jpg",
		File:     strings.NewReader("retry"),
		Method:   "bank_transfer",
	})
	var deadlineErr *domain.DeadlinePassedError
	require.ErrorAs(t, err, &deadlineErr)
	assert.Equal(t, 1, env.proofStore.saved, "only the first proof was ever stored")
}

func TestRejectRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	signup := env.liveSignup(t)
	env.clock.Advance(time.Hour)
	sub := env.uploadProof(t, signup.ID)

	_, err := env.payments.RejectPayment(context.Background(), sub.ID, adminID, "")
	assert.Error(t, err)

	current, _ := env.paymentRepo.GetByID(context.Background(), sub.ID)
	assert.Equal(t, domain.SubmissionPending, current.Status)
}

func TestResolveIsOneWay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signup := env.liveSignup(t)
	env.clock.Advance(time.Hour)
	sub := env.uploadProof(t, signup.ID)

	_, err := env.payments.ApprovePayment(ctx, sub.ID, adminID)
	require.NoError(t, err)

	// Approving or rejecting an already-resolved submission fails
	// without touching anything.
	_, err = env.payments.ApprovePayment(ctx, sub.ID, adminID)
	assert.ErrorContains(t, err, "already approved")
	_, err = env.payments.RejectPayment(ctx, sub.ID, adminID, "changed my mind")
	assert.ErrorContains(t, err, "already approved")

	current, _ := env.signups.GetSignup(ctx, signup.ID)
	assert.Equal(t, domain.SignupActive, current.Status)
}

func TestUploadBeforeGoLiveRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signup, err := env.signups.SelectPlan(ctx, "pro")
	require.NoError(t, err)

	_, err = env.payments.UploadProof(ctx, &UploadProofRequest{
		SignupID: signup.ID,
		Filename: "early.jpg",
		File:     strings.NewReader("early"),
	})
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.SignupPlanSelected, invalid.From)
}

// hookedSignupRepo runs a callback once just before the
// payment-pending CAS, simulating a transition that commits between
// the service's status read and its write.
type hookedSignupRepo struct {
	*mockSignupRepo
	once       sync.Once
	beforeMark func()
}

func (r *hookedSignupRepo) MarkPaymentPending(ctx context.Context, id int64, proofURL, method string) (*domain.Signup, error) {
	r.once.Do(r.beforeMark)
	return r.mockSignupRepo.MarkPaymentPending(ctx, id, proofURL, method)
}

func (env *testEnv) paymentsWithHook(hook func()) PaymentService {
	repo := &hookedSignupRepo{mockSignupRepo: env.signupRepo, beforeMark: hook}
	svc := NewPaymentService(repo, env.paymentRepo, env.memberRepo, env.proofStore, env.notifier, env.eventBus)
	svc.(*paymentService).now = env.clock.Now
	return svc
}

func TestUploadLosingAdminDeactivationRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signup := env.liveSignup(t)
	env.clock.Advance(time.Hour)

	// An admin deactivation commits after the upload's status read but
	// before its own write.
	payments := env.paymentsWithHook(func() {
		_, err := env.signups.DeactivateAccount(ctx, signup.ID, "fraudulent listing")
		require.NoError(t, err)
	})

	_, err := payments.UploadProof(ctx, &UploadProofRequest{
		SignupID: signup.ID,
		Filename: "transfer.jpg",
		File:     strings.NewReader("proof-bytes"),
		Method:   "bank_transfer",
	})

	// The deadline has four hours left, so the refusal must name the
	// real cause, not the clock.
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.SignupDeactivated, invalid.From)
	var deadlineErr *domain.DeadlinePassedError
	assert.False(t, errors.As(err, &deadlineErr))

	// The lost race must not leave a pending submission behind a dead
	// signup.
	pending, _ := env.paymentRepo.ListByStatus(ctx, domain.SubmissionPending, 0, 0)
	assert.Empty(t, pending)
}

func TestUploadLosingSweepRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signup := env.liveSignup(t)
	env.clock.Advance(5*time.Hour - time.Minute)

	// The window expires and the sweep runs while the upload is in
	// flight; here the clock really is the cause.
	payments := env.paymentsWithHook(func() {
		env.clock.Advance(2 * time.Minute)
		_, err := env.sweeper.Sweep(ctx)
		require.NoError(t, err)
	})

	_, err := payments.UploadProof(ctx, &UploadProofRequest{
		SignupID: signup.ID,
		Filename: "transfer.jpg",
		File:     strings.NewReader("proof-bytes"),
		Method:   "bank_transfer",
	})

	var deadlineErr *domain.DeadlinePassedError
	require.ErrorAs(t, err, &deadlineErr)
	assert.Equal(t, *signup.PaymentDeadline, deadlineErr.Deadline)

	pending, _ := env.paymentRepo.ListByStatus(ctx, domain.SubmissionPending, 0, 0)
	assert.Empty(t, pending)
}

func TestSecondUploadWhilePendingRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signup := env.liveSignup(t)

	env.clock.Advance(time.Hour)
	first := env.uploadProof(t, signup.ID)

	// A second proof while the first is still in the review queue is
	// refused until an admin adjudicates.
	_, err := env.payments.UploadProof(ctx, &UploadProofRequest{
		SignupID:    signup.ID,
		Filename:    "duplicate.jpg",
		File:        strings.NewReader("again"),
		Amount:      250000,
		BankName:    "BCA",
		AccountName: "Putri",
		Method:      "bank_transfer",
	})
	var pendingErr *domain.PendingSubmissionError
	require.ErrorAs(t, err, &pendingErr)
	assert.Equal(t, signup.ID, pendingErr.SignupID)
	assert.Equal(t, 1, env.proofStore.saved)

	// Approving the sole submission leaves no siblings stranded in the
	// queue.
	_, err = env.payments.ApprovePayment(ctx, first.ID, adminID)
	require.NoError(t, err)

	pending, _ := env.paymentRepo.ListByStatus(ctx, domain.SubmissionPending, 0, 0)
	assert.Empty(t, pending)

	current, _ := env.signups.GetSignup(ctx, signup.ID)
	assert.Equal(t, domain.SignupActive, current.Status)
}

func TestUploadUnknownSignup(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.payments.UploadProof(context.Background(), &UploadProofRequest{
		SignupID: 12345,
		Filename: "x.jpg",
		File:     strings.NewReader("x"),
	})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
