package service

import (
	"context"
	"sync"
	"time"

	"github.com/serenespa/membership/internal/domain"
	"github.com/serenespa/membership/internal/repository"
	"github.com/serenespa/membership/pkg/events"
	"github.com/serenespa/membership/pkg/logger"
)

const deadlineReason = "payment deadline passed without an approved payment"

// DeadlineSweeper guarantees that every signup entering
// awaiting_payment is deactivated exactly once when no approved
// payment arrives in time, and never when one does. The durable
// periodic sweep over the store is the correctness mechanism; the
// in-process timers registered at go-live only shave latency and are
// lost without harm on restart.
type DeadlineSweeper struct {
	signupRepo  repository.SignupRepository
	memberRepo  repository.MemberRepository
	paymentRepo repository.PaymentRepository
	notifier    Notifier
	eventBus    events.Publisher
	interval    time.Duration
	now         func() time.Time

	mu     sync.Mutex
	timers map[int64]*time.Timer
}

func NewDeadlineSweeper(
	signupRepo repository.SignupRepository,
	memberRepo repository.MemberRepository,
	paymentRepo repository.PaymentRepository,
	notifier Notifier,
	eventBus events.Publisher,
	interval time.Duration,
) *DeadlineSweeper {
	return &DeadlineSweeper{
		signupRepo:  signupRepo,
		memberRepo:  memberRepo,
		paymentRepo: paymentRepo,
		notifier:    notifier,
		eventBus:    eventBus,
		interval:    interval,
		now:         time.Now,
		timers:      make(map[int64]*time.Timer),
	}
}

// Start runs the periodic sweep until ctx is canceled.
func (w *DeadlineSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Deadline sweeper started", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			logger.Info("Deadline sweeper stopped")
			return
		case <-ticker.C:
			if n, err := w.Sweep(ctx); err != nil {
				logger.Error("Deadline sweep failed", "error", err)
			} else if n > 0 {
				logger.Info("Deadline sweep deactivated overdue signups", "count", n)
			}
		}
	}
}

// Sweep deactivates every overdue awaiting_payment signup it can find.
// Each signup is its own atomic unit: one failure is logged and
// skipped, never aborting the batch.
func (w *DeadlineSweeper) Sweep(ctx context.Context) (int, error) {
	overdue, err := w.signupRepo.ListOverdue(ctx, w.now(), 0)
	if err != nil {
		return 0, err
	}

	deactivated := 0
	for i := range overdue {
		if w.expire(ctx, &overdue[i]) {
			deactivated++
		}
	}
	return deactivated, nil
}

// Schedule registers a best-effort in-process timer for a payment
// deadline. Implements DeadlineRegistrar.
func (w *DeadlineSweeper) Schedule(signupID int64, deadline time.Time) {
	delay := time.Until(deadline)
	if delay < 0 {
		delay = 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if old, ok := w.timers[signupID]; ok {
		old.Stop()
	}
	w.timers[signupID] = time.AfterFunc(delay, func() {
		w.fireTimer(signupID)
	})
}

func (w *DeadlineSweeper) fireTimer(signupID int64) {
	w.mu.Lock()
	delete(w.timers, signupID)
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	signup, err := w.signupRepo.GetByID(ctx, signupID)
	if err != nil {
		logger.Error("Deadline timer failed to load signup", "error", err, "signup_id", signupID)
		return
	}
	// Payment may have been approved between scheduling and firing.
	if signup == nil || signup.Status != domain.SignupAwaitingPayment || !signup.DeadlinePassed(w.now()) {
		return
	}

	w.expire(ctx, signup)
}

// expire deactivates one overdue signup. The compare-and-swap on
// status makes concurrent sweep runs, timers, and admin approvals
// settle on exactly one winner, so notifications fire once.
func (w *DeadlineSweeper) expire(ctx context.Context, signup *domain.Signup) bool {
	updated, err := w.signupRepo.Deactivate(ctx, signup.ID, deadlineReason)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to deactivate overdue signup", "error", err, "signup_id", signup.ID)
		return false
	}
	if updated == nil {
		// Someone else resolved it first: approved, or already swept.
		return false
	}

	if _, err := w.paymentRepo.ExpirePendingForSignup(ctx, updated.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to expire pending submissions", "error", err, "signup_id", updated.ID)
	}

	finishDeactivation(ctx, w.memberRepo, w.notifier, w.eventBus, updated, deadlineReason)

	logger.InfoContext(ctx, "Deactivated signup past payment deadline",
		"signup_id", updated.ID, "deadline", updated.PaymentDeadline)
	return true
}

func (w *DeadlineSweeper) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, t := range w.timers {
		t.Stop()
		delete(w.timers, id)
	}
}
