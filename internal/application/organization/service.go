// Package organization implements the multi-entity workflows around
// organizations: creation with its first admin, invitations and joining.
package organization

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecommerce/backend/internal/application/identity"
	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/config"
	"github.com/ecommerce/backend/internal/infrastructure/logger"
	"github.com/ecommerce/backend/internal/infrastructure/notification"
	"github.com/ecommerce/backend/internal/infrastructure/persistence"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
)

// Service runs organization workflows. Every workflow runs in one store
// transaction; a failure rolls back all of its writes and is returned unchanged.
type Service struct {
	store    *persistence.Store
	users    *identity.UserService
	notifier notification.Notifier
	cfg      config.WorkflowConfig
	logger   *zap.Logger
	now      func() time.Time
	newToken func() string
}

// NewService creates a new organization service
func NewService(
	store *persistence.Store,
	users *identity.UserService,
	notifier notification.Notifier,
	cfg config.WorkflowConfig,
	logger *zap.Logger,
) *Service {
	if cfg.InviteTTL <= 0 {
		cfg.InviteTTL = 7 * 24 * time.Hour
	}
	if cfg.EmailCheckTTL <= 0 {
		cfg.EmailCheckTTL = 24 * time.Hour
	}
	return &Service{
		store:    store,
		users:    users,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newToken: NewToken,
	}
}

// log prefers the request logger carried by ctx
func (s *Service) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, logger.FromContextOr(ctx, s.logger))
}

// NewToken returns an opaque 32 character token
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateOrganization creates the organization and its first admin. The welcome
// notification is sent after commit; its failure is logged only.
func (s *Service) CreateOrganization(ctx context.Context, in CreateOrganizationInput, opts ...CreateOption) (*models.Organization, error) {
	o := createOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	base := Slugify(in.Workspace)
	if base == "" {
		base = Slugify(in.Company)
	}
	if base == "" {
		return nil, shared.NewValidationError("workspace", "organization:workspace-error-required")
	}

	var (
		org  *models.Organization
		user *models.User
	)
	err := s.store.Transaction(ctx, func(tx *persistence.Store) error {
		workspace, err := AvailableWorkspaceSlug(ctx, tx.Organizations, base)
		if err != nil {
			return err
		}
		org, err = tx.Organizations.Create(ctx, shared.Values{
			"workspace": workspace,
			"company":   strings.TrimSpace(in.Company),
		})
		if err != nil {
			return err
		}
		user, err = s.users.Create(ctx, tx.Users, identity.NewUserInput{
			FirstName:      in.FirstName,
			LastName:       in.LastName,
			Email:          in.Email,
			Password:       in.Password,
			Role:           models.RoleAdmin,
			OrganizationID: &org.ID,
		})
		if err != nil {
			return err
		}
		org.User = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("organization created",
		zap.Uint("organization_id", org.ID),
		zap.String("workspace", org.Workspace),
		zap.Uint("admin_id", user.ID))

	if !o.skipWelcome {
		s.welcome(ctx, org, user)
	}
	return org, nil
}

func (s *Service) welcome(ctx context.Context, org *models.Organization, user *models.User) {
	err := s.notifier.NotifyWelcome(ctx, notification.Welcome{
		UserID:         user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		OrganizationID: org.ID,
		Workspace:      org.Workspace,
		Company:        org.Company,
	})
	if err != nil {
		s.log(ctx).Warn("welcome notification failed",
			zap.Uint("organization_id", org.ID),
			zap.Error(err))
	}
}

// AuthorizeAdmin fails with UNAUTHORIZED unless actorID is an admin of orgID
func (s *Service) AuthorizeAdmin(ctx context.Context, actorID, orgID uint, message string) error {
	actor, err := s.store.Users.FindByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor == nil || actor.Role != models.RoleAdmin ||
		actor.OrganizationID == nil || *actor.OrganizationID != orgID {
		return shared.NewUnauthorizedError(message)
	}
	return nil
}

// Invite creates a pending invitation. Only an admin of the organization may invite.
func (s *Service) Invite(ctx context.Context, actorID uint, in InviteInput) (*models.UserInvite, error) {
	if err := s.AuthorizeAdmin(ctx, actorID, in.OrganizationID, "Only organization admins can invite users"); err != nil {
		return nil, err
	}

	org, err := s.store.Organizations.FindOne(ctx, gateway.Where(shared.Values{"id": in.OrganizationID}))
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, shared.NewNotFoundError(fmt.Sprintf("Organization %d not found", in.OrganizationID))
	}

	email := identity.NormalizeEmail(in.Email)
	registered, err := s.store.Users.Exists(ctx, gateway.Where(shared.Values{"email": email}))
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, shared.NewValidationError("email", "invite:email-error-registered")
	}

	values := shared.Values{
		"token":           s.newToken(),
		"email":           email,
		"organization_id": org.ID,
		"expires_at":      s.now().Add(s.cfg.InviteTTL),
	}
	if in.Role != "" {
		values["role"] = in.Role
	}
	if in.UserTypeID != nil {
		values["user_type_id"] = *in.UserTypeID
	}
	invite, err := s.store.UserInvites.Create(ctx, values, gateway.As(actorID))
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("user invited",
		zap.Uint("organization_id", org.ID),
		zap.Uint("invite_id", invite.ID))

	if err := s.notifier.NotifyInvite(ctx, notification.Invitation{
		InviteID:       invite.ID,
		Email:          invite.Email,
		Token:          invite.Token,
		OrganizationID: org.ID,
		Workspace:      org.Workspace,
		Company:        org.Company,
		ExpiresAt:      invite.ExpiresAt,
	}); err != nil {
		s.log(ctx).Warn("invite notification failed", zap.Uint("invite_id", invite.ID), zap.Error(err))
	}
	return invite, nil
}

// CheckAcceptToken returns the invite behind token when it can still be accepted
func (s *Service) CheckAcceptToken(ctx context.Context, token string) (*models.UserInvite, error) {
	if token == "" {
		return nil, shared.NewInvalidTokenError("Invite token is required")
	}
	invite, err := s.store.UserInvites.FindOne(ctx, gateway.Where(shared.Values{"token": token}))
	if err != nil {
		return nil, err
	}
	switch {
	case invite == nil:
		return nil, shared.NewInvalidTokenError("Invite token is invalid")
	case invite.Accepted:
		return nil, shared.NewInvalidTokenError("Invite has already been accepted")
	case !invite.Usable(s.now()):
		return nil, shared.NewInvalidTokenError("Invite has expired")
	}

	live, err := s.store.Organizations.Exists(ctx, gateway.Where(shared.Values{"id": invite.OrganizationID}))
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, shared.NewInvalidTokenError("Invite organization no longer exists")
	}
	return invite, nil
}

// Join accepts the invite behind token and creates the invited user.
// The invite is claimed with a conditional update, so of two concurrent
// joins only one succeeds; the other fails with an invalid token error.
func (s *Service) Join(ctx context.Context, token string, in JoinInput, acceptIP string) (*models.User, error) {
	invite, err := s.CheckAcceptToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if in.Password != in.ConfirmPassword {
		return nil, shared.NewValidationError("confirm_password", "user:confirm-password-error-mismatch")
	}

	var user *models.User
	err = s.store.Transaction(ctx, func(tx *persistence.Store) error {
		now := s.now()
		accept := shared.Values{"accepted": true, "accepted_at": now}
		if acceptIP != "" {
			accept["accept_ip"] = acceptIP
		}
		n, err := tx.UserInvites.Update(ctx, accept,
			gateway.Where(shared.Values{"id": invite.ID, "accepted": false}))
		if err != nil {
			return err
		}
		if n == 0 {
			return shared.NewInvalidTokenError("Invite has already been accepted")
		}

		user, err = s.users.Create(ctx, tx.Users, identity.NewUserInput{
			FirstName:       in.FirstName,
			LastName:        in.LastName,
			Email:           invite.Email,
			Password:        in.Password,
			Role:            invite.Role,
			OrganizationID:  &invite.OrganizationID,
			UserTypeID:      invite.UserTypeID,
			TermsAcceptedIP: acceptIP,
			NewsletterIP:    acceptIP,
		})
		if err != nil {
			return err
		}
		// the accepting user is recorded as the invite's updater
		if _, err := tx.UserInvites.UpdateByID(ctx, invite.ID, shared.Values{}, gateway.As(user.ID)); err != nil {
			return err
		}

		return s.reconcileEmailCheck(ctx, tx, invite.Email, acceptIP, now)
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("invite accepted",
		zap.Uint("invite_id", invite.ID),
		zap.Uint("organization_id", invite.OrganizationID),
		zap.Uint("user_id", user.ID))
	return user, nil
}

// reconcileEmailCheck replaces an expired unconfirmed check with a fresh one,
// creates one when none exists, and leaves any other check alone
func (s *Service) reconcileEmailCheck(ctx context.Context, tx *persistence.Store, email, ip string, now time.Time) error {
	existing, err := tx.EmailChecks.FindOne(ctx,
		gateway.Where(shared.Values{"email": email}),
		gateway.OrderBy("id desc"))
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Confirmed || !existing.Expired(now) {
			return nil
		}
		if _, err := tx.EmailChecks.DestroyByID(ctx, existing.ID); err != nil {
			return err
		}
	}

	values := shared.Values{
		"email":      email,
		"token":      s.newToken(),
		"invite":     true,
		"expires_at": now.Add(s.cfg.EmailCheckTTL),
	}
	if ip != "" {
		values["request_ip"] = ip
		values["confirm_ip"] = ip
	}
	_, err = tx.EmailChecks.Create(ctx, values)
	return err
}

// DestroyOrganization removes the organization in one transaction. Groups,
// invites and memberships go with it; users are detached.
func (s *Service) DestroyOrganization(ctx context.Context, id uint) (*models.Organization, error) {
	var org *models.Organization
	err := s.store.Transaction(ctx, func(tx *persistence.Store) error {
		var err error
		org, err = tx.Organizations.DestroyByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("organization destroyed", zap.Uint("organization_id", id))
	return org, nil
}
