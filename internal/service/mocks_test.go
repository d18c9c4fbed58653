package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/serenespa/membership/internal/domain"
)

// ---------- Clock ----------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ---------- Signup repository ----------

type mockSignupRepo struct {
	mu      sync.Mutex
	nextID  int64
	signups map[int64]*domain.Signup
}

func newMockSignupRepo() *mockSignupRepo {
	return &mockSignupRepo{nextID: 1, signups: make(map[int64]*domain.Signup)}
}

func (m *mockSignupRepo) get(id int64) *domain.Signup {
	s, ok := m.signups[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (m *mockSignupRepo) Create(_ context.Context, plan domain.PlanType) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	now := time.Now()
	m.signups[id] = &domain.Signup{
		ID:        id,
		PlanType:  plan,
		Status:    domain.SignupPlanSelected,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return m.get(id), nil
}

func (m *mockSignupRepo) GetByID(_ context.Context, id int64) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id), nil
}

func (m *mockSignupRepo) AcceptTerms(_ context.Context, id int64, at time.Time, policyVersion, ip, userAgent string) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.signups[id]
	if !ok || s.Status != domain.SignupPlanSelected {
		return nil, nil
	}
	s.Status = domain.SignupTermsAccepted
	s.TermsAccepted = true
	s.TermsAcceptedAt = &at
	s.TermsPolicyVersion = policyVersion
	s.TermsIP = ip
	s.TermsUserAgent = userAgent
	return m.get(id), nil
}

func (m *mockSignupRepo) SetPortal(_ context.Context, id int64, portal domain.PortalType) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.signups[id]
	if !ok || s.Status != domain.SignupTermsAccepted {
		return nil, nil
	}
	s.Status = domain.SignupPortalSelected
	s.PortalType = portal
	return m.get(id), nil
}

func (m *mockSignupRepo) LinkAccount(_ context.Context, id, userID, memberID int64, email string) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.signups[id]
	if !ok || s.Status != domain.SignupPortalSelected || s.UserID != nil {
		return nil, nil
	}
	s.Status = domain.SignupAccountCreated
	s.UserID = &userID
	s.MemberID = &memberID
	s.Email = email
	return m.get(id), nil
}

func (m *mockSignupRepo) MarkProfileComplete(_ context.Context, id int64) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.signups[id]
	if !ok || s.Status != domain.SignupAccountCreated {
		return nil, nil
	}
	s.Status = domain.SignupProfileUploaded
	return m.get(id), nil
}

func (m *mockSignupRepo) MarkLive(_ context.Context, id int64, deadline time.Time) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.signups[id]
	if !ok || s.Status != domain.SignupProfileUploaded {
		return nil, nil
	}
	s.Status = domain.SignupAwaitingPayment
	s.IsLive = true
	s.PaymentDeadline = &deadline
	return m.get(id), nil
}

func (m *mockSignupRepo) MarkPaymentPending(_ context.Context, id int64, proofURL, method string) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.signups[id]
	if !ok || (s.Status != domain.SignupAwaitingPayment && s.Status != domain.SignupPaymentPending) {
		return nil, nil
	}
	s.Status = domain.SignupPaymentPending
	s.PaymentProofURL = proofURL
	s.PaymentMethod = method
	return m.get(id), nil
}

func (m *mockSignupRepo) Activate(_ context.Context, id int64) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.signups[id]
	if !ok || s.Status != domain.SignupPaymentPending {
		return nil, nil
	}
	s.Status = domain.SignupActive
	return m.get(id), nil
}

func (m *mockSignupRepo) Deactivate(_ context.Context, id int64, reason string) (*domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.signups[id]
	if !ok || s.Status.IsTerminal() {
		return nil, nil
	}
	s.Status = domain.SignupDeactivated
	s.IsLive = false
	s.DeactivationReason = reason
	return m.get(id), nil
}

func (m *mockSignupRepo) ListOverdue(_ context.Context, now time.Time, _ int) ([]domain.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Signup
	for _, s := range m.signups {
		if s.Status == domain.SignupAwaitingPayment && s.PaymentDeadline != nil && s.PaymentDeadline.Before(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

// ---------- Member repository ----------

type mockMemberRepo struct {
	mu      sync.Mutex
	nextID  int64
	members map[int64]*domain.MemberProfile
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{nextID: 100, members: make(map[int64]*domain.MemberProfile)}
}

func (m *mockMemberRepo) Create(_ context.Context, p *domain.MemberProfile) (*domain.MemberProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	cp.ID = m.nextID
	m.nextID++
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.members[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, id int64) (*domain.MemberProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.members[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockMemberRepo) Patch(_ context.Context, id int64, patch domain.MemberPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.members[id]
	if !ok {
		return &domain.NotFoundError{Entity: "member", ID: id}
	}
	if patch.IsVerified != nil {
		p.IsVerified = *patch.IsVerified
	}
	if patch.IsLive != nil {
		p.IsLive = *patch.IsLive
	}
	if patch.ProfileComplete != nil {
		p.ProfileComplete = *patch.ProfileComplete
	}
	if patch.PaymentStatus != nil {
		p.PaymentStatus = *patch.PaymentStatus
	}
	return nil
}

// ---------- Payment repository ----------

type mockPaymentRepo struct {
	mu          sync.Mutex
	nextID      int64
	submissions map[int64]*domain.PaymentSubmission
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{nextID: 1, submissions: make(map[int64]*domain.PaymentSubmission)}
}

func (m *mockPaymentRepo) Create(_ context.Context, sub *domain.PaymentSubmission) (*domain.PaymentSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *sub
	cp.ID = m.nextID
	m.nextID++
	cp.Status = domain.SubmissionPending
	cp.CreatedAt = time.Now()
	m.submissions[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockPaymentRepo) GetByID(_ context.Context, id int64) (*domain.PaymentSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.submissions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockPaymentRepo) ListByStatus(_ context.Context, status domain.SubmissionStatus, _, _ int) ([]domain.PaymentSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.PaymentSubmission
	for _, s := range m.submissions {
		if s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) Resolve(_ context.Context, id int64, to domain.SubmissionStatus, reviewedBy int64, reason string) (*domain.PaymentSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.submissions[id]
	if !ok || s.Status != domain.SubmissionPending {
		return nil, nil
	}
	now := time.Now()
	s.Status = to
	s.ReviewedBy = &reviewedBy
	s.ReviewedAt = &now
	s.RejectionReason = reason
	cp := *s
	return &cp, nil
}

func (m *mockPaymentRepo) HasPendingForSignup(_ context.Context, signupID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.submissions {
		if s.SignupID == signupID && s.Status == domain.SubmissionPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPaymentRepo) ExpirePendingForSignup(_ context.Context, signupID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, s := range m.submissions {
		if s.SignupID == signupID && s.Status == domain.SubmissionPending {
			s.Status = domain.SubmissionExpired
			n++
		}
	}
	return n, nil
}

// ---------- Notifier ----------

type notifyCall struct {
	Type       domain.NotificationType
	MemberID   int64
	MemberType domain.MemberType
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{}
}

func (m *mockNotifier) Notify(_ context.Context, typ domain.NotificationType, memberID int64, memberType domain.MemberType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, notifyCall{Type: typ, MemberID: memberID, MemberType: memberType})
}

func (m *mockNotifier) countByType(typ domain.NotificationType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Type == typ {
			n++
		}
	}
	return n
}

// ---------- Event bus ----------

type mockEventBus struct {
	mu       sync.Mutex
	subjects []string
	failWith error
}

func newMockEventBus() *mockEventBus {
	return &mockEventBus{}
}

func (m *mockEventBus) Publish(_ context.Context, subject string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockEventBus) Close() error { return nil }

// ---------- Auth gateway ----------

type mockAuthGateway struct {
	mu     sync.Mutex
	nextID int64
	emails map[string]bool
}

func newMockAuthGateway() *mockAuthGateway {
	return &mockAuthGateway{nextID: 1, emails: make(map[string]bool)}
}

func (m *mockAuthGateway) CreateAccount(_ context.Context, email, password, name string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emails[email] {
		return nil, &domain.ConflictError{Email: email}
	}
	m.emails[email] = true
	id := m.nextID
	m.nextID++
	return &domain.User{ID: id, Email: email, Name: name, Role: domain.RoleProvider}, nil
}

func (m *mockAuthGateway) CreateSession(_ context.Context, _ *domain.LoginRequest) (*domain.LoginResponse, error) {
	return &domain.LoginResponse{AccessToken: "test-token"}, nil
}

// ---------- Deadline registrar ----------

type mockRegistrar struct {
	mu        sync.Mutex
	scheduled map[int64]time.Time
}

func newMockRegistrar() *mockRegistrar {
	return &mockRegistrar{scheduled: make(map[int64]time.Time)}
}

func (m *mockRegistrar) Schedule(signupID int64, deadline time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled[signupID] = deadline
}

// ---------- Proof store ----------

type mockProofStore struct {
	mu    sync.Mutex
	saved int
}

func newMockProofStore() *mockProofStore {
	return &mockProofStore{}
}

func (m *mockProofStore) Save(_ context.Context, signupID int64, filename string, _ io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved++
	return fmt.Sprintf("/uploads/payment-proofs/%d-%s", signupID, filename), nil
}
