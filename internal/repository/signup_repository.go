package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serenespa/membership/internal/domain"
)

// SignupRepository persists onboarding attempts. Every transition
// method compares against the expected status in the WHERE clause; a
// nil, nil return means the compare-and-swap found no matching row and
// the caller must re-read to find out why.
type SignupRepository interface {
	Create(ctx context.Context, plan domain.PlanType) (*domain.Signup, error)
	GetByID(ctx context.Context, id int64) (*domain.Signup, error)
	AcceptTerms(ctx context.Context, id int64, at time.Time, policyVersion, ip, userAgent string) (*domain.Signup, error)
	SetPortal(ctx context.Context, id int64, portal domain.PortalType) (*domain.Signup, error)
	LinkAccount(ctx context.Context, id, userID, memberID int64, email string) (*domain.Signup, error)
	MarkProfileComplete(ctx context.Context, id int64) (*domain.Signup, error)
	MarkLive(ctx context.Context, id int64, deadline time.Time) (*domain.Signup, error)
	MarkPaymentPending(ctx context.Context, id int64, proofURL, method string) (*domain.Signup, error)
	Activate(ctx context.Context, id int64) (*domain.Signup, error)
	Deactivate(ctx context.Context, id int64, reason string) (*domain.Signup, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Signup, error)
}

type signupRepository struct {
	pool *pgxpool.Pool
}

func NewSignupRepository(pool *pgxpool.Pool) SignupRepository {
	return &signupRepository{pool: pool}
}

const signupCols = `id, plan_type, portal_type, status,
terms_accepted, terms_accepted_at, terms_policy_version, terms_ip, terms_user_agent,
user_id, email, member_id,
payment_deadline, payment_proof_url, payment_method,
is_live, deactivation_reason, created_at, updated_at`

func scanSignup(row pgx.Row) (*domain.Signup, error) {
	var s domain.Signup
	err := row.Scan(
		&s.ID, &s.PlanType, &s.PortalType, &s.Status,
		&s.TermsAccepted, &s.TermsAcceptedAt, &s.TermsPolicyVersion, &s.TermsIP, &s.TermsUserAgent,
		&s.UserID, &s.Email, &s.MemberID,
		&s.PaymentDeadline, &s.PaymentProofURL, &s.PaymentMethod,
		&s.IsLive, &s.DeactivationReason, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *signupRepository) Create(ctx context.Context, plan domain.PlanType) (*domain.Signup, error) {
	const q = `INSERT INTO signups (plan_type, status) VALUES ($1, 'plan_selected')
	RETURNING ` + signupCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignup(r.pool.QueryRow(ctx, q, plan))
}

func (r *signupRepository) GetByID(ctx context.Context, id int64) (*domain.Signup, error) {
	const q = `SELECT ` + signupCols + ` FROM signups WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignup(r.pool.QueryRow(ctx, q, id))
}

func (r *signupRepository) AcceptTerms(ctx context.Context, id int64, at time.Time, policyVersion, ip, userAgent string) (*domain.Signup, error) {
	const q = `UPDATE signups SET
		status = 'terms_accepted',
		terms_accepted = true,
		terms_accepted_at = $2,
		terms_policy_version = $3,
		terms_ip = $4,
		terms_user_agent = $5,
		updated_at = now()
	WHERE id = $1 AND status = 'plan_selected'
	RETURNING ` + signupCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignup(r.pool.QueryRow(ctx, q, id, at, policyVersion, ip, userAgent))
}

func (r *signupRepository) SetPortal(ctx context.Context, id int64, portal domain.PortalType) (*domain.Signup, error) {
	const q = `UPDATE signups SET
		status = 'portal_selected',
		portal_type = $2,
		updated_at = now()
	WHERE id = $1 AND status = 'terms_accepted'
	RETURNING ` + signupCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignup(r.pool.QueryRow(ctx, q, id, portal))
}

func (r *signupRepository) LinkAccount(ctx context.Context, id, userID, memberID int64, email string) (*domain.Signup, error) {
	const q = `UPDATE signups SET
		status = 'account_created',
		user_id = $2,
		member_id = $3,
		email = $4,
		updated_at = now()
	WHERE id = $1 AND status = 'portal_selected' AND user_id IS NULL
	RETURNING ` + signupCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignup(r.pool.QueryRow(ctx, q, id, userID, memberID, email))
}

func (r *signupRepository) MarkProfileComplete(ctx context.Context, id int64) (*domain.Signup, error) {
	const q = `UPDATE signups SET
		status = 'profile_uploaded',
		updated_at = now()
	WHERE id = $1 AND status = 'account_created'
	RETURNING ` + signupCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignup(r.pool.QueryRow(ctx, q, id))
}

func (r *signupRepository) MarkLive(ctx context.Context, id int64, deadline time.Time) (*domain.Signup, error) {
	const q = `UPDATE signups SET
		status = 'awaiting_payment',
		is_live = true,
		payment_deadline = $2,
		updated_at = now()
	WHERE id = $1 AND status = 'profile_uploaded'
	RETURNING ` + signupCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignup(r.pool.QueryRow(ctx, q, id, deadline))
}

// MarkPaymentPending accepts both the first upload (awaiting_payment)
// and a re-upload after rejection (already payment_pending).
func (r *signupRepository) MarkPaymentPending(ctx context.Context, id int64, proofURL, method string) (*domain.Signup, error) {
	const q = `UPDATE signups SET
		status = 'payment_pending',
		payment_proof_url = $2,
		payment_method = $3,
		updated_at = now()
	WHERE id = $1 AND status IN ('awaiting_payment', 'payment_pending')
	RETURNING ` + signupCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignup(r.pool.QueryRow(ctx, q, id, proofURL, method))
}

func (r *signupRepository) Activate(ctx context.Context, id int64) (*domain.Signup, error) {
	const q = `UPDATE signups SET
		status = 'active',
		updated_at = now()
	WHERE id = $1 AND status = 'payment_pending'
	RETURNING ` + signupCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignup(r.pool.QueryRow(ctx, q, id))
}

// Deactivate moves any non-terminal signup to deactivated. The status
// guard makes concurrent sweep runs and admin calls settle on exactly
// one winner.
func (r *signupRepository) Deactivate(ctx context.Context, id int64, reason string) (*domain.Signup, error) {
	const q = `UPDATE signups SET
		status = 'deactivated',
		is_live = false,
		deactivation_reason = $2,
		updated_at = now()
	WHERE id = $1 AND status NOT IN ('active', 'deactivated', 'rejected')
	RETURNING ` + signupCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSignup(r.pool.QueryRow(ctx, q, id, reason))
}

func (r *signupRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Signup, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const q = `SELECT ` + signupCols + ` FROM signups
	WHERE status = 'awaiting_payment' AND payment_deadline < $1
	ORDER BY payment_deadline ASC LIMIT $2`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signups []domain.Signup
	for rows.Next() {
		var s domain.Signup
		if err := rows.Scan(
			&s.ID, &s.PlanType, &s.PortalType, &s.Status,
			&s.TermsAccepted, &s.TermsAcceptedAt, &s.TermsPolicyVersion, &s.TermsIP, &s.TermsUserAgent,
			&s.UserID, &s.Email, &s.MemberID,
			&s.PaymentDeadline, &s.PaymentProofURL, &s.PaymentMethod,
			&s.IsLive, &s.DeactivationReason, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		signups = append(signups, s)
	}
	return signups, rows.Err()
}
