package domain

import (
	"testing"
	"time"
)

func TestNextStatusWalksWholeChain(t *testing.T) {
	want := []SignupStatus{
		SignupPlanSelected,
		SignupTermsAccepted,
		SignupPortalSelected,
		SignupAccountCreated,
		SignupProfileUploaded,
		SignupAwaitingPayment,
		SignupPaymentPending,
		SignupActive,
	}

	got := []SignupStatus{SignupPlanSelected}
	cur := SignupPlanSelected
	for {
		next, ok := NextStatus(cur)
		if !ok {
			break
		}
		got = append(got, next)
		cur = next
	}

	if len(got) != len(want) {
		t.Fatalf("chain length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chain[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if !cur.IsTerminal() {
		t.Errorf("chain must end in a terminal status, got %s", cur)
	}
}

func TestNextStatusTerminal(t *testing.T) {
	for _, s := range []SignupStatus{SignupActive, SignupDeactivated, SignupRejected} {
		if _, ok := NextStatus(s); ok {
			t.Errorf("NextStatus(%s) should have no successor", s)
		}
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestParseSignupStatus(t *testing.T) {
	if got, ok := ParseSignupStatus("awaiting_payment"); !ok || got != SignupAwaitingPayment {
		t.Errorf("ParseSignupStatus(awaiting_payment) = %v, %v", got, ok)
	}
	if _, ok := ParseSignupStatus("halfway_done"); ok {
		t.Error("ParseSignupStatus should reject unknown values")
	}
}

func TestDeadlinePassed(t *testing.T) {
	now := time.Now()
	deadline := now.Add(5 * time.Hour)

	s := &Signup{Status: SignupAwaitingPayment}
	if s.DeadlinePassed(now.Add(100 * time.Hour)) {
		t.Error("a signup without a deadline can never be overdue")
	}

	s.PaymentDeadline = &deadline
	if s.DeadlinePassed(now.Add(4 * time.Hour)) {
		t.Error("deadline has not passed at T+4h")
	}
	if s.DeadlinePassed(deadline) {
		t.Error("the deadline instant itself is still in time")
	}
	if !s.DeadlinePassed(now.Add(5*time.Hour + time.Minute)) {
		t.Error("deadline passed at T+5h1m")
	}
}

func TestCanUploadProof(t *testing.T) {
	allowed := map[SignupStatus]bool{
		SignupAwaitingPayment: true,
		SignupPaymentPending:  true,
	}
	for _, s := range []SignupStatus{
		SignupPlanSelected, SignupTermsAccepted, SignupPortalSelected,
		SignupAccountCreated, SignupProfileUploaded, SignupAwaitingPayment,
		SignupPaymentPending, SignupActive, SignupDeactivated, SignupRejected,
	} {
		signup := &Signup{Status: s}
		if got := signup.CanUploadProof(); got != allowed[s] {
			t.Errorf("CanUploadProof from %s = %v, want %v", s, got, allowed[s])
		}
	}
}
