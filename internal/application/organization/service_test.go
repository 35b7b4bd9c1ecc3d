package organization_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecommerce/backend/internal/application/identity"
	"github.com/ecommerce/backend/internal/application/organization"
	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/config"
	"github.com/ecommerce/backend/internal/infrastructure/logger"
	"github.com/ecommerce/backend/internal/infrastructure/notification"
	"github.com/ecommerce/backend/internal/infrastructure/persistence"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
	"github.com/ecommerce/backend/tests/testutil"
)

// MockNotifier is a mock implementation of notification.Notifier.
// Invites are recorded rather than matched against expectations.
type MockNotifier struct {
	mock.Mock
	invites []notification.Invitation
}

func (m *MockNotifier) NotifyWelcome(ctx context.Context, w notification.Welcome) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockNotifier) NotifyInvite(_ context.Context, i notification.Invitation) error {
	m.invites = append(m.invites, i)
	return nil
}

type fixture struct {
	store    *persistence.Store
	svc      *organization.Service
	notifier *MockNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := testutil.NewStore(t)
	notifier := new(MockNotifier)
	users := identity.NewUserService(identity.PasswordPolicy{MinLength: 6, RequireDigit: true, RequireLower: true, RequireUpper: true, RequireSymbol: true},
		bcrypt.MinCost, zaptest.NewLogger(t))
	svc := organization.NewService(store, users, notifier, config.WorkflowConfig{
		InviteTTL:     time.Hour,
		EmailCheckTTL: time.Hour,
	}, zaptest.NewLogger(t))
	return fixture{store: store, svc: svc, notifier: notifier}
}

func acme() organization.CreateOrganizationInput {
	return organization.CreateOrganizationInput{
		Workspace: "acme",
		Company:   "Acme Inc",
		Email:     "a@x.com",
		FirstName: "A",
		LastName:  "B",
		Password:  "Abc123!@",
	}
}

func TestService_CreateOrganization(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the organization and its admin", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.On("NotifyWelcome", mock.Anything, mock.MatchedBy(func(w notification.Welcome) bool {
			return w.Workspace == "acme" && w.Email == "a@x.com"
		})).Return(nil).Once()

		org, err := f.svc.CreateOrganization(ctx, acme())
		require.NoError(t, err)
		assert.Equal(t, "acme", org.Workspace)
		assert.NotZero(t, org.User)

		admin, err := f.store.Users.FindByID(ctx, org.User)
		require.NoError(t, err)
		require.NotNil(t, admin)
		assert.Equal(t, models.RoleAdmin, admin.Role)
		require.NotNil(t, admin.OrganizationID)
		assert.Equal(t, org.ID, *admin.OrganizationID)
		f.notifier.AssertExpectations(t)
	})

	t.Run("workspace falls back to company and is deduplicated", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.On("NotifyWelcome", mock.Anything, mock.Anything).Return(nil)

		in := acme()
		in.Workspace = ""
		first, err := f.svc.CreateOrganization(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "acme-inc", first.Workspace)

		in.Email = "b@x.com"
		second, err := f.svc.CreateOrganization(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "acme-inc-2", second.Workspace)
	})

	t.Run("failed admin insert leaves no organization", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.On("NotifyWelcome", mock.Anything, mock.Anything).Return(nil).Once()
		_, err := f.svc.CreateOrganization(ctx, acme())
		require.NoError(t, err)

		in := acme()
		in.Workspace = "other"
		_, err = f.svc.CreateOrganization(ctx, in)
		require.Error(t, err)
		assert.ErrorContains(t, err, "user:email-error-unique")

		exists, err := f.store.Organizations.Exists(ctx, gateway.Where(shared.Values{"workspace": "other"}), gateway.IncludeDeleted())
		require.NoError(t, err)
		assert.False(t, exists)
		f.notifier.AssertNumberOfCalls(t, "NotifyWelcome", 1)
	})

	t.Run("weak password rolls back with the policy error", func(t *testing.T) {
		f := newFixture(t)
		in := acme()
		in.Password = "abcdef"
		_, err := f.svc.CreateOrganization(ctx, in)

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, identity.MsgPasswordWeak, de.Message)
		n, err := f.store.Organizations.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("welcome failure keeps the commit", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.On("NotifyWelcome", mock.Anything, mock.Anything).Return(errors.New("queue down"))

		core, logs := observer.New(zap.WarnLevel)
		reqCtx, _ := logger.WithRequestID(ctx, zap.New(core), "req-welcome")

		org, err := f.svc.CreateOrganization(reqCtx, acme())
		require.NoError(t, err)
		got, err := f.store.Organizations.FindByID(ctx, org.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)

		warned := logs.FilterMessage("welcome notification failed").All()
		require.Len(t, warned, 1)
		assert.Equal(t, "req-welcome", warned[0].ContextMap()["request_id"])
	})

	t.Run("WithoutWelcome", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateOrganization(ctx, acme(), organization.WithoutWelcome())
		require.NoError(t, err)
		f.notifier.AssertNotCalled(t, "NotifyWelcome", mock.Anything, mock.Anything)
	})

	t.Run("unusable names", func(t *testing.T) {
		f := newFixture(t)
		in := acme()
		in.Workspace, in.Company = "!!!", "***"
		_, err := f.svc.CreateOrganization(ctx, in)
		assert.ErrorContains(t, err, "organization:workspace-error-required")
	})
}

// seedOrganization creates acme with its admin and returns both
func seedOrganization(t *testing.T, f fixture) (*models.Organization, uint) {
	t.Helper()
	org, err := f.svc.CreateOrganization(context.Background(), acme(), organization.WithoutWelcome())
	require.NoError(t, err)
	return org, org.User
}

func TestService_Invite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	org, adminID := seedOrganization(t, f)

	t.Run("admin invites", func(t *testing.T) {
		invite, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID, Email: "New@X.com"})
		require.NoError(t, err)
		assert.Len(t, invite.Token, 32)
		assert.Equal(t, "new@x.com", invite.Email)
		assert.Equal(t, models.RoleMember, invite.Role)
		assert.False(t, invite.Accepted)
		require.NotNil(t, invite.CreatedBy)
		assert.Equal(t, adminID, *invite.CreatedBy)
		assert.True(t, invite.ExpiresAt.After(time.Now()))

		require.NotEmpty(t, f.notifier.invites)
		sent := f.notifier.invites[len(f.notifier.invites)-1]
		assert.Equal(t, invite.Token, sent.Token)
		assert.Equal(t, "new@x.com", sent.Email)
		assert.Equal(t, org.Workspace, sent.Workspace)
	})

	t.Run("registered email", func(t *testing.T) {
		_, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID, Email: "a@x.com"})
		assert.ErrorContains(t, err, "invite:email-error-registered")
	})

	t.Run("only admins of that organization", func(t *testing.T) {
		_, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID + 1, Email: "z@x.com"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)

		_, err = f.svc.Invite(ctx, 9999, organization.InviteInput{OrganizationID: org.ID, Email: "z@x.com"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestService_CheckAcceptToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	org, adminID := seedOrganization(t, f)
	invite, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID, Email: "c@x.com"})
	require.NoError(t, err)

	got, err := f.svc.CheckAcceptToken(ctx, invite.Token)
	require.NoError(t, err)
	assert.Equal(t, invite.ID, got.ID)

	for _, token := range []string{"", "nope"} {
		_, err := f.svc.CheckAcceptToken(ctx, token)
		assert.ErrorIs(t, err, shared.ErrInvalidToken)
	}

	t.Run("expired", func(t *testing.T) {
		_, err := f.store.UserInvites.UpdateByID(ctx, invite.ID, shared.Values{"expires_at": time.Now().Add(-time.Minute)})
		require.NoError(t, err)
		_, err = f.svc.CheckAcceptToken(ctx, invite.Token)
		assert.ErrorIs(t, err, shared.ErrInvalidToken)
		assert.EqualError(t, err, "Invite has expired")
	})
}

func TestService_Join(t *testing.T) {
	ctx := context.Background()

	join := organization.JoinInput{FirstName: "Cy", LastName: "D", Password: "Abc123!@", ConfirmPassword: "Abc123!@"}

	t.Run("accepts exactly once", func(t *testing.T) {
		f := newFixture(t)
		org, adminID := seedOrganization(t, f)
		invite, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID, Email: "c@x.com", Role: models.RoleAdmin})
		require.NoError(t, err)

		user, err := f.svc.Join(ctx, invite.Token, join, "10.1.1.1")
		require.NoError(t, err)
		assert.Equal(t, "c@x.com", user.Email)
		assert.Equal(t, models.RoleAdmin, user.Role)
		require.NotNil(t, user.OrganizationID)
		assert.Equal(t, org.ID, *user.OrganizationID)

		accepted, err := f.store.UserInvites.FindByID(ctx, invite.ID)
		require.NoError(t, err)
		assert.True(t, accepted.Accepted)
		require.NotNil(t, accepted.AcceptedAt)
		require.NotNil(t, accepted.AcceptIP)
		assert.Equal(t, "10.1.1.1", *accepted.AcceptIP)
		require.NotNil(t, accepted.UpdatedBy)
		assert.Equal(t, user.ID, *accepted.UpdatedBy)

		check, err := f.store.EmailChecks.FindOne(ctx, gateway.Where(shared.Values{"email": "c@x.com"}))
		require.NoError(t, err)
		require.NotNil(t, check)
		assert.True(t, check.Invite)

		_, err = f.svc.Join(ctx, invite.Token, join, "10.1.1.1")
		assert.ErrorIs(t, err, shared.ErrInvalidToken)
		n, err := f.store.Users.Count(ctx, gateway.Where(shared.Values{"email": "c@x.com"}))
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("failure rolls the acceptance back", func(t *testing.T) {
		f := newFixture(t)
		org, adminID := seedOrganization(t, f)
		invite, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID, Email: "c@x.com"})
		require.NoError(t, err)

		weak := join
		weak.Password, weak.ConfirmPassword = "weakpw", "weakpw"
		_, err = f.svc.Join(ctx, invite.Token, weak, "")
		assert.ErrorContains(t, err, identity.MsgPasswordWeak)

		still, err := f.svc.CheckAcceptToken(ctx, invite.Token)
		require.NoError(t, err)
		assert.False(t, still.Accepted)
		n, err := f.store.EmailChecks.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		f := newFixture(t)
		org, adminID := seedOrganization(t, f)
		invite, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID, Email: "c@x.com"})
		require.NoError(t, err)

		bad := join
		bad.ConfirmPassword = "other"
		_, err = f.svc.Join(ctx, invite.Token, bad, "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("email checks", func(t *testing.T) {
		f := newFixture(t)
		org, adminID := seedOrganization(t, f)

		expired, err := f.store.EmailChecks.Create(ctx, shared.Values{
			"email": "old@x.com", "token": "t-old", "expires_at": time.Now().Add(-time.Hour),
		})
		require.NoError(t, err)
		confirmed, err := f.store.EmailChecks.Create(ctx, shared.Values{
			"email": "done@x.com", "token": "t-done", "confirmed": true, "expires_at": time.Now().Add(-time.Hour),
		})
		require.NoError(t, err)

		for _, email := range []string{"old@x.com", "done@x.com"} {
			invite, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID, Email: email})
			require.NoError(t, err)
			_, err = f.svc.Join(ctx, invite.Token, join, "")
			require.NoError(t, err)
		}

		gone, err := f.store.EmailChecks.FindByID(ctx, expired.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
		fresh, err := f.store.EmailChecks.FindOne(ctx, gateway.Where(shared.Values{"email": "old@x.com"}))
		require.NoError(t, err)
		require.NotNil(t, fresh)
		assert.True(t, fresh.ExpiresAt.After(time.Now()))

		kept, err := f.store.EmailChecks.FindAll(ctx, gateway.Where(shared.Values{"email": "done@x.com"}))
		require.NoError(t, err)
		require.Len(t, kept, 1)
		assert.Equal(t, confirmed.ID, kept[0].ID)
	})

	t.Run("deleted organization", func(t *testing.T) {
		f := newFixture(t)
		org, adminID := seedOrganization(t, f)
		invite, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID, Email: "c@x.com"})
		require.NoError(t, err)
		_, err = f.store.Organizations.SoftDeleteByID(ctx, org.ID)
		require.NoError(t, err)

		_, err = f.svc.Join(ctx, invite.Token, join, "")
		assert.ErrorIs(t, err, shared.ErrInvalidToken)
	})
}

func TestService_DestroyOrganization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	org, adminID := seedOrganization(t, f)
	_, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID, Email: "c@x.com"})
	require.NoError(t, err)
	_, err = f.store.Groups.Create(ctx, shared.Values{"name": "Staff", "organization_id": org.ID})
	require.NoError(t, err)

	snapshot, err := f.svc.DestroyOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", snapshot.Workspace)

	gone, err := f.store.Organizations.FindByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	admin, err := f.store.Users.FindByID(ctx, adminID)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Nil(t, admin.OrganizationID)

	for _, count := range []func(context.Context, ...gateway.Option) (int64, error){
		f.store.UserInvites.Count, f.store.Groups.Count,
	} {
		n, err := count(ctx, gateway.IncludeDeleted())
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	_, err = f.svc.DestroyOrganization(ctx, org.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
