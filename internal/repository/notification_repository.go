package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serenespa/membership/internal/domain"
)

// NotificationRepository is an append-only log for the admin inbox.
// Only the read flag is ever updated.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.AdminNotification) (*domain.AdminNotification, error)
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]domain.AdminNotification, error)
	MarkRead(ctx context.Context, id int64) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationCols = `id, type, member_id, member_type, title, description, read, created_at`

func (r *notificationRepository) Create(ctx context.Context, n *domain.AdminNotification) (*domain.AdminNotification, error) {
	const q = `INSERT INTO admin_notifications (type, member_id, member_type, title, description, read)
	VALUES ($1, $2, $3, $4, $5, false)
	RETURNING ` + notificationCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.AdminNotification
	err := r.pool.QueryRow(ctx, q, n.Type, n.MemberID, n.MemberType, n.Title, n.Description).Scan(
		&out.ID, &out.Type, &out.MemberID, &out.MemberType, &out.Title, &out.Description, &out.Read, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *notificationRepository) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]domain.AdminNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + notificationCols + ` FROM admin_notifications`
	if unreadOnly {
		q += ` WHERE read = false`
	}
	q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.AdminNotification
	for rows.Next() {
		var n domain.AdminNotification
		if err := rows.Scan(
			&n.ID, &n.Type, &n.MemberID, &n.MemberType, &n.Title, &n.Description, &n.Read, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64) error {
	const q = `UPDATE admin_notifications SET read = true WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "notification", ID: id}
	}
	return nil
}
