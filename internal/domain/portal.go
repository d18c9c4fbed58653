package domain

type PlanType string

const (
	PlanPro  PlanType = "pro"
	PlanPlus PlanType = "plus"
)

func ParsePlanType(s string) (PlanType, bool) {
	switch PlanType(s) {
	case PlanPro, PlanPlus:
		return PlanType(s), true
	default:
		return "", false
	}
}

// PortalType is the category of provider signing up. It determines the
// member profile shape and the required default fields.
type PortalType string

const (
	PortalMassageTherapist PortalType = "massage_therapist"
	PortalFacialTherapist  PortalType = "facial_therapist"
	PortalBeautyTherapist  PortalType = "beauty_therapist"
	PortalMassagePlace     PortalType = "massage_place"
	PortalFacialPlace      PortalType = "facial_place"
	PortalHotel            PortalType = "hotel"
)

func ParsePortalType(s string) (PortalType, bool) {
	switch PortalType(s) {
	case PortalMassageTherapist, PortalFacialTherapist, PortalBeautyTherapist,
		PortalMassagePlace, PortalFacialPlace, PortalHotel:
		return PortalType(s), true
	default:
		return "", false
	}
}

// MemberType is the profile shape a portal type maps onto. The three
// therapist portals share one shape.
type MemberType string

const (
	MemberTherapist    MemberType = "therapist"
	MemberMassagePlace MemberType = "massage_place"
	MemberFacialPlace  MemberType = "facial_place"
	MemberHotel        MemberType = "hotel"
)

// MemberTypeFor maps a portal type onto its profile shape.
func MemberTypeFor(p PortalType) (MemberType, bool) {
	switch p {
	case PortalMassageTherapist, PortalFacialTherapist, PortalBeautyTherapist:
		return MemberTherapist, true
	case PortalMassagePlace:
		return MemberMassagePlace, true
	case PortalFacialPlace:
		return MemberFacialPlace, true
	case PortalHotel:
		return MemberHotel, true
	default:
		return "", false
	}
}
