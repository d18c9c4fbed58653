package service

import (
	"context"
	"fmt"
	"time"

	"github.com/serenespa/membership/internal/domain"
	"github.com/serenespa/membership/internal/repository"
	"github.com/serenespa/membership/pkg/config"
	"github.com/serenespa/membership/pkg/events"
	"github.com/serenespa/membership/pkg/logger"
)

// DeadlineRegistrar accepts a payment deadline for low-latency
// in-process expiry. The durable sweep remains the correctness
// backstop; registration is optional by contract.
type DeadlineRegistrar interface {
	Schedule(signupID int64, deadline time.Time)
}

// SignupService is the onboarding state machine. Each transition is a
// named operation with its own precondition, committed through a
// compare-and-swap on the signup status, so an out-of-order call can
// never corrupt the payment or verification guarantees.
type SignupService interface {
	SelectPlan(ctx context.Context, planType string) (*domain.Signup, error)
	GetSignup(ctx context.Context, id int64) (*domain.Signup, error)
	AcceptTerms(ctx context.Context, id int64, ip, userAgent string) (*domain.Signup, error)
	SelectPortal(ctx context.Context, id int64, portalType string) (*domain.Signup, error)
	CreateAccount(ctx context.Context, id int64, email, password, name string) (*domain.Signup, error)
	CompleteProfile(ctx context.Context, id, memberID int64) (*domain.Signup, error)
	SubmitGoLive(ctx context.Context, id int64) (*domain.Signup, error)
	DeactivateAccount(ctx context.Context, id int64, reason string) (*domain.Signup, error)
}

type signupService struct {
	signupRepo repository.SignupRepository
	memberRepo repository.MemberRepository
	auth       AuthGateway
	notifier   Notifier
	registrar  DeadlineRegistrar
	eventBus   events.Publisher
	config     *config.Config
	now        func() time.Time
}

func NewSignupService(
	signupRepo repository.SignupRepository,
	memberRepo repository.MemberRepository,
	auth AuthGateway,
	notifier Notifier,
	registrar DeadlineRegistrar,
	eventBus events.Publisher,
	config *config.Config,
) SignupService {
	return &signupService{
		signupRepo: signupRepo,
		memberRepo: memberRepo,
		auth:       auth,
		notifier:   notifier,
		registrar:  registrar,
		eventBus:   eventBus,
		config:     config,
		now:        time.Now,
	}
}

func (s *signupService) SelectPlan(ctx context.Context, planType string) (*domain.Signup, error) {
	plan, ok := domain.ParsePlanType(planType)
	if !ok {
		return nil, fmt.Errorf("invalid plan type %q", planType)
	}

	signup, err := s.signupRepo.Create(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to create signup: %w", err)
	}

	event := events.SignupCreatedEvent{
		SignupID:  signup.ID,
		PlanType:  string(signup.PlanType),
		CreatedAt: signup.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.SignupCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish signup created event", "error", err, "signup_id", signup.ID)
	}

	return signup, nil
}

func (s *signupService) GetSignup(ctx context.Context, id int64) (*domain.Signup, error) {
	signup, err := s.signupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get signup: %w", err)
	}
	if signup == nil {
		return nil, &domain.NotFoundError{Entity: "signup", ID: id}
	}
	return signup, nil
}

func (s *signupService) AcceptTerms(ctx context.Context, id int64, ip, userAgent string) (*domain.Signup, error) {
	updated, err := s.signupRepo.AcceptTerms(ctx, id, s.now(), s.config.Membership.TermsPolicyVersion, ip, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to accept terms: %w", err)
	}
	if updated == nil {
		return nil, s.transitionFailure(ctx, id, "accept terms")
	}
	return updated, nil
}

func (s *signupService) SelectPortal(ctx context.Context, id int64, portalType string) (*domain.Signup, error) {
	portal, ok := domain.ParsePortalType(portalType)
	if !ok {
		return nil, &domain.ConfigurationError{PortalType: portalType}
	}

	updated, err := s.signupRepo.SetPortal(ctx, id, portal)
	if err != nil {
		return nil, fmt.Errorf("failed to select portal: %w", err)
	}
	if updated == nil {
		return nil, s.transitionFailure(ctx, id, "select portal")
	}
	return updated, nil
}

func (s *signupService) CreateAccount(ctx context.Context, id int64, email, password, name string) (*domain.Signup, error) {
	signup, err := s.GetSignup(ctx, id)
	if err != nil {
		return nil, err
	}
	if signup.Status != domain.SignupPortalSelected {
		return nil, &domain.InvalidTransitionError{SignupID: id, From: signup.Status, Op: "create account"}
	}

	user, err := s.auth.CreateAccount(ctx, email, password, name)
	if err != nil {
		return nil, err
	}

	commission := s.config.Membership.CommissionPro
	if signup.PlanType == domain.PlanPlus {
		commission = s.config.Membership.CommissionPlus
	}

	profile, err := domain.NewMemberProfile(signup.PortalType, user.ID, signup.PlanType, commission)
	if err != nil {
		return nil, err
	}

	member, err := s.memberRepo.Create(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create member profile: %w", err)
	}

	updated, err := s.signupRepo.LinkAccount(ctx, id, user.ID, member.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to link account: %w", err)
	}
	if updated == nil {
		// A concurrent transition won; the account and profile exist
		// but the signup moved on without them.
		logger.WarnContext(ctx, "Account created but signup transition lost the race",
			"signup_id", id, "user_id", user.ID, "member_id", member.ID)
		return nil, s.transitionFailure(ctx, id, "create account")
	}

	event := events.SignupCreatedEvent{SignupID: id, PlanType: string(updated.PlanType), CreatedAt: s.now()}
	if err := s.eventBus.Publish(ctx, events.SignupAccountMade, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish account created event", "error", err, "signup_id", id)
	}

	return updated, nil
}

func (s *signupService) CompleteProfile(ctx context.Context, id, memberID int64) (*domain.Signup, error) {
	signup, err := s.GetSignup(ctx, id)
	if err != nil {
		return nil, err
	}
	if signup.MemberID == nil || *signup.MemberID != memberID {
		return nil, fmt.Errorf("member %d is not linked to signup %d", memberID, id)
	}

	updated, err := s.signupRepo.MarkProfileComplete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to complete profile: %w", err)
	}
	if updated == nil {
		return nil, s.transitionFailure(ctx, id, "complete profile")
	}

	complete := true
	if err := s.memberRepo.Patch(ctx, memberID, domain.MemberPatch{ProfileComplete: &complete}); err != nil {
		return nil, fmt.Errorf("failed to mark member profile complete: %w", err)
	}

	return updated, nil
}

func (s *signupService) SubmitGoLive(ctx context.Context, id int64) (*domain.Signup, error) {
	deadline := s.now().Add(s.config.Membership.PaymentDeadline)

	updated, err := s.signupRepo.MarkLive(ctx, id, deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to submit go-live: %w", err)
	}
	if updated == nil {
		return nil, s.transitionFailure(ctx, id, "submit go-live")
	}

	live := true
	if updated.MemberID != nil {
		if err := s.memberRepo.Patch(ctx, *updated.MemberID, domain.MemberPatch{IsLive: &live}); err != nil {
			return nil, fmt.Errorf("failed to mark member live: %w", err)
		}
	}

	if s.registrar != nil {
		s.registrar.Schedule(id, deadline)
	}

	memberType, _ := domain.MemberTypeFor(updated.PortalType)
	if updated.MemberID != nil {
		s.notifier.Notify(ctx, domain.NotifyNewGoLive, *updated.MemberID, memberType)

		event := events.SignupWentLiveEvent{
			SignupID:        updated.ID,
			MemberID:        *updated.MemberID,
			MemberType:      string(memberType),
			PaymentDeadline: deadline,
			WentLiveAt:      s.now(),
		}
		if err := s.eventBus.Publish(ctx, events.SignupWentLive, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish go-live event", "error", err, "signup_id", id)
		}
	}

	return updated, nil
}

func (s *signupService) DeactivateAccount(ctx context.Context, id int64, reason string) (*domain.Signup, error) {
	signup, err := s.GetSignup(ctx, id)
	if err != nil {
		return nil, err
	}

	// Re-deactivating is a no-op, not an error.
	if signup.Status == domain.SignupDeactivated {
		return signup, nil
	}
	if signup.Status == domain.SignupActive || signup.Status == domain.SignupRejected {
		return nil, &domain.InvalidTransitionError{SignupID: id, From: signup.Status, Op: "deactivate"}
	}

	updated, err := s.signupRepo.Deactivate(ctx, id, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate signup: %w", err)
	}
	if updated == nil {
		// Lost a race; a concurrent deactivation is still a no-op.
		current, err := s.GetSignup(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.SignupDeactivated {
			return current, nil
		}
		return nil, &domain.InvalidTransitionError{SignupID: id, From: current.Status, Op: "deactivate"}
	}

	finishDeactivation(ctx, s.memberRepo, s.notifier, s.eventBus, updated, reason)

	return updated, nil
}

// finishDeactivation applies the member-side effects and fan-out of a
// won deactivation CAS. Shared with the deadline sweeper.
func finishDeactivation(
	ctx context.Context,
	memberRepo repository.MemberRepository,
	notifier Notifier,
	eventBus events.Publisher,
	signup *domain.Signup,
	reason string,
) {
	if signup.MemberID != nil {
		live := false
		if err := memberRepo.Patch(ctx, *signup.MemberID, domain.MemberPatch{IsLive: &live}); err != nil {
			logger.ErrorContext(ctx, "Failed to mark member not live after deactivation",
				"error", err, "signup_id", signup.ID, "member_id", *signup.MemberID)
		}

		memberType, _ := domain.MemberTypeFor(signup.PortalType)
		notifier.Notify(ctx, domain.NotifyAccountDeactivated, *signup.MemberID, memberType)
	}

	event := events.SignupDeactivatedEvent{
		SignupID:      signup.ID,
		MemberID:      signup.MemberID,
		Reason:        reason,
		DeactivatedAt: time.Now(),
	}
	if err := eventBus.Publish(ctx, events.SignupDeactivated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish deactivation event", "error", err, "signup_id", signup.ID)
	}
}

// transitionFailure turns a lost compare-and-swap into the right
// error: not found, or an invalid transition naming the actual status.
func (s *signupService) transitionFailure(ctx context.Context, id int64, op string) error {
	current, err := s.signupRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if current == nil {
		return &domain.NotFoundError{Entity: "signup", ID: id}
	}
	return &domain.InvalidTransitionError{SignupID: id, From: current.Status, Op: op}
}
