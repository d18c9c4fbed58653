package domain

import "time"

type MemberPaymentStatus string

const (
	MemberPaymentUnpaid   MemberPaymentStatus = "unpaid"
	MemberPaymentPending  MemberPaymentStatus = "pending"
	MemberPaymentPaid     MemberPaymentStatus = "paid"
	MemberPaymentRejected MemberPaymentStatus = "rejected"
)

// MemberProfile is the provider-facing listing record. The four member
// types share one table; each type fills only its own field group. The
// workflow only ever mutates the fields owned by the current
// transition, the rest belong to the provider.
type MemberProfile struct {
	ID              int64               `json:"id"`
	UserID          int64               `json:"user_id"`
	MemberType      MemberType          `json:"member_type"`
	PlanType        PlanType            `json:"plan_type"`
	CommissionRate  float64             `json:"commission_rate"`
	IsVerified      bool                `json:"is_verified"`
	IsLive          bool                `json:"is_live"`
	ProfileComplete bool                `json:"profile_complete"`
	PaymentStatus   MemberPaymentStatus `json:"payment_status"`
	BookingEnabled  bool                `json:"booking_enabled"`

	// Therapist fields
	HourlyRate      int64  `json:"hourly_rate"`
	Specialization  string `json:"specialization"`
	YearsExperience int    `json:"years_experience"`
	ServiceArea     string `json:"service_area"`

	// Place and hotel fields
	Address       string   `json:"address,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	RoomCount     int      `json:"room_count,omitempty"`
	OpeningHours  string   `json:"opening_hours,omitempty"`
	TreatmentMenu []string `json:"treatment_menu,omitempty"`
	StarRating    int      `json:"star_rating,omitempty"`
	SpaFacilities []string `json:"spa_facilities,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemberPatch is a narrow partial update. Nil fields are left
// untouched so the workflow never overwrites provider-owned data.
type MemberPatch struct {
	IsVerified      *bool
	IsLive          *bool
	ProfileComplete *bool
	PaymentStatus   *MemberPaymentStatus
}

// NewMemberProfile builds the portal-type-specific initial profile.
// The switch is exhaustive over the closed portal-type enum; an
// unrecognized value is a ConfigurationError, never a silent default.
func NewMemberProfile(portal PortalType, userID int64, plan PlanType, commissionRate float64) (*MemberProfile, error) {
	switch portal {
	case PortalMassageTherapist:
		return newTherapistProfile(userID, plan, commissionRate, "massage"), nil
	case PortalFacialTherapist:
		return newTherapistProfile(userID, plan, commissionRate, "facial"), nil
	case PortalBeautyTherapist:
		return newTherapistProfile(userID, plan, commissionRate, "beauty"), nil
	case PortalMassagePlace:
		p := newBaseProfile(userID, MemberMassagePlace, plan, commissionRate)
		p.Address = ""
		p.Amenities = []string{}
		p.RoomCount = 1
		p.OpeningHours = "09:00-21:00"
		return p, nil
	case PortalFacialPlace:
		p := newBaseProfile(userID, MemberFacialPlace, plan, commissionRate)
		p.Address = ""
		p.TreatmentMenu = []string{}
		p.RoomCount = 1
		p.OpeningHours = "09:00-21:00"
		return p, nil
	case PortalHotel:
		p := newBaseProfile(userID, MemberHotel, plan, commissionRate)
		p.Address = ""
		p.StarRating = 3
		p.Amenities = []string{}
		p.SpaFacilities = []string{}
		return p, nil
	default:
		return nil, &ConfigurationError{PortalType: string(portal)}
	}
}

func newBaseProfile(userID int64, mt MemberType, plan PlanType, commissionRate float64) *MemberProfile {
	return &MemberProfile{
		UserID:         userID,
		MemberType:     mt,
		PlanType:       plan,
		CommissionRate: commissionRate,
		PaymentStatus:  MemberPaymentUnpaid,
		BookingEnabled: false,
	}
}

func newTherapistProfile(userID int64, plan PlanType, commissionRate float64, specialization string) *MemberProfile {
	p := newBaseProfile(userID, MemberTherapist, plan, commissionRate)
	// Rate is explicitly zero until the provider sets one.
	p.HourlyRate = 0
	p.Specialization = specialization
	p.YearsExperience = 0
	p.ServiceArea = ""
	return p
}
