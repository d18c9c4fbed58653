package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serenespa/membership/internal/domain"
)

// MemberRepository persists provider profiles. The members table is
// shared with the listing side of the application, so updates are
// narrow: each method touches only the fields the workflow owns.
type MemberRepository interface {
	Create(ctx context.Context, p *domain.MemberProfile) (*domain.MemberProfile, error)
	GetByID(ctx context.Context, id int64) (*domain.MemberProfile, error)
	Patch(ctx context.Context, id int64, patch domain.MemberPatch) error
}

type memberRepository struct {
	pool *pgxpool.Pool
}

func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepository{pool: pool}
}

const memberCols = `id, user_id, member_type, plan_type, commission_rate,
is_verified, is_live, profile_complete, payment_status, booking_enabled,
hourly_rate, specialization, years_experience, service_area,
address, amenities, room_count, opening_hours, treatment_menu, star_rating, spa_facilities,
created_at, updated_at`

func scanMember(row pgx.Row) (*domain.MemberProfile, error) {
	var m domain.MemberProfile
	err := row.Scan(
		&m.ID, &m.UserID, &m.MemberType, &m.PlanType, &m.CommissionRate,
		&m.IsVerified, &m.IsLive, &m.ProfileComplete, &m.PaymentStatus, &m.BookingEnabled,
		&m.HourlyRate, &m.Specialization, &m.YearsExperience, &m.ServiceArea,
		&m.Address, &m.Amenities, &m.RoomCount, &m.OpeningHours, &m.TreatmentMenu, &m.StarRating, &m.SpaFacilities,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepository) Create(ctx context.Context, p *domain.MemberProfile) (*domain.MemberProfile, error) {
	const q = `INSERT INTO members (
		user_id, member_type, plan_type, commission_rate,
		is_verified, is_live, profile_complete, payment_status, booking_enabled,
		hourly_rate, specialization, years_experience, service_area,
		address, amenities, room_count, opening_hours, treatment_menu, star_rating, spa_facilities
	) VALUES ($1,$2,$3,$4,false,false,false,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	RETURNING ` + memberCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanMember(r.pool.QueryRow(ctx, q,
		p.UserID, p.MemberType, p.PlanType, p.CommissionRate,
		p.PaymentStatus, p.BookingEnabled,
		p.HourlyRate, p.Specialization, p.YearsExperience, p.ServiceArea,
		p.Address, p.Amenities, p.RoomCount, p.OpeningHours, p.TreatmentMenu, p.StarRating, p.SpaFacilities,
	))
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*domain.MemberProfile, error) {
	const q = `SELECT ` + memberCols + ` FROM members WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanMember(r.pool.QueryRow(ctx, q, id))
}

func (r *memberRepository) Patch(ctx context.Context, id int64, patch domain.MemberPatch) error {
	const q = `UPDATE members SET
		is_verified = COALESCE($2, is_verified),
		is_live = COALESCE($3, is_live),
		profile_complete = COALESCE($4, profile_complete),
		payment_status = COALESCE($5, payment_status),
		updated_at = now()
	WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, patch.IsVerified, patch.IsLive, patch.ProfileComplete, patch.PaymentStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "member", ID: id}
	}
	return nil
}
