package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serenespa/membership/internal/domain"
)

// PaymentRepository persists proof-of-payment submissions. Resolve is
// a compare-and-swap on status = 'pending' so a submission can only be
// approved or rejected once.
type PaymentRepository interface {
	Create(ctx context.Context, sub *domain.PaymentSubmission) (*domain.PaymentSubmission, error)
	GetByID(ctx context.Context, id int64) (*domain.PaymentSubmission, error)
	ListByStatus(ctx context.Context, status domain.SubmissionStatus, limit, offset int) ([]domain.PaymentSubmission, error)
	Resolve(ctx context.Context, id int64, to domain.SubmissionStatus, reviewedBy int64, reason string) (*domain.PaymentSubmission, error)
	HasPendingForSignup(ctx context.Context, signupID int64) (bool, error)
	ExpirePendingForSignup(ctx context.Context, signupID int64) (int64, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

const submissionCols = `id, signup_id, member_id, amount, proof_url, bank_name, account_name, method,
status, deadline, reviewed_by, reviewed_at, rejection_reason, created_at`

func scanSubmission(row pgx.Row) (*domain.PaymentSubmission, error) {
	var s domain.PaymentSubmission
	err := row.Scan(
		&s.ID, &s.SignupID, &s.MemberID, &s.Amount, &s.ProofURL, &s.BankName, &s.AccountName, &s.Method,
		&s.Status, &s.Deadline, &s.ReviewedBy, &s.ReviewedAt, &s.RejectionReason, &s.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *paymentRepository) Create(ctx context.Context, sub *domain.PaymentSubmission) (*domain.PaymentSubmission, error) {
	const q = `INSERT INTO payment_submissions (
		signup_id, member_id, amount, proof_url, bank_name, account_name, method, status, deadline
	) VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',$8)
	RETURNING ` + submissionCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSubmission(r.pool.QueryRow(ctx, q,
		sub.SignupID, sub.MemberID, sub.Amount, sub.ProofURL, sub.BankName, sub.AccountName, sub.Method, sub.Deadline,
	))
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*domain.PaymentSubmission, error) {
	const q = `SELECT ` + submissionCols + ` FROM payment_submissions WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSubmission(r.pool.QueryRow(ctx, q, id))
}

func (r *paymentRepository) ListByStatus(ctx context.Context, status domain.SubmissionStatus, limit, offset int) ([]domain.PaymentSubmission, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + submissionCols + ` FROM payment_submissions
	WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.PaymentSubmission
	for rows.Next() {
		var s domain.PaymentSubmission
		if err := rows.Scan(
			&s.ID, &s.SignupID, &s.MemberID, &s.Amount, &s.ProofURL, &s.BankName, &s.AccountName, &s.Method,
			&s.Status, &s.Deadline, &s.ReviewedBy, &s.ReviewedAt, &s.RejectionReason, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *paymentRepository) Resolve(ctx context.Context, id int64, to domain.SubmissionStatus, reviewedBy int64, reason string) (*domain.PaymentSubmission, error) {
	const q = `UPDATE payment_submissions SET
		status = $2,
		reviewed_by = $3,
		reviewed_at = now(),
		rejection_reason = $4
	WHERE id = $1 AND status = 'pending'
	RETURNING ` + submissionCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSubmission(r.pool.QueryRow(ctx, q, id, to, reviewedBy, reason))
}

// HasPendingForSignup reports whether a submission for the signup is
// still awaiting review.
func (r *paymentRepository) HasPendingForSignup(ctx context.Context, signupID int64) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM payment_submissions WHERE signup_id = $1 AND status = 'pending'
	)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, signupID).Scan(&exists)
	return exists, err
}

// ExpirePendingForSignup marks leftover pending submissions of a dead
// signup as expired so they drop out of the admin review queue.
func (r *paymentRepository) ExpirePendingForSignup(ctx context.Context, signupID int64) (int64, error) {
	const q = `UPDATE payment_submissions SET status = 'expired'
	WHERE signup_id = $1 AND status = 'pending'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, signupID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
