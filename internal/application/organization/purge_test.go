package organization_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerce/backend/internal/application/organization"
	"github.com/ecommerce/backend/internal/domain/shared"
)

func TestService_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	org, adminID := seedOrganization(t, f)

	invite := func(email string) uint {
		inv, err := f.svc.Invite(ctx, adminID, organization.InviteInput{OrganizationID: org.ID, Email: email})
		require.NoError(t, err)
		return inv.ID
	}
	expire := func(id uint) {
		_, err := f.store.UserInvites.UpdateByID(ctx, id, shared.Values{"expires_at": time.Now().Add(-time.Minute)})
		require.NoError(t, err)
	}

	lapsed := invite("old@x.com")
	expire(lapsed)
	live := invite("new@x.com")
	acceptedLapsed := invite("done@x.com")
	_, err := f.store.UserInvites.UpdateByID(ctx, acceptedLapsed, shared.Values{"accepted": true})
	require.NoError(t, err)
	expire(acceptedLapsed)

	past := time.Now().Add(-time.Hour)
	for _, v := range []shared.Values{
		{"email": "a1@x.com", "token": "t1", "expires_at": past},
		{"email": "a2@x.com", "token": "t2", "expires_at": past, "confirmed": true},
		{"email": "a3@x.com", "token": "t3", "expires_at": time.Now().Add(time.Hour)},
	} {
		_, err := f.store.EmailChecks.Create(ctx, v)
		require.NoError(t, err)
	}

	res, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, organization.PurgeResult{Invites: 1, EmailChecks: 1}, res)

	gone, err := f.store.UserInvites.FindByID(ctx, lapsed)
	require.NoError(t, err)
	assert.Nil(t, gone)
	for _, id := range []uint{live, acceptedLapsed} {
		kept, err := f.store.UserInvites.FindByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, kept)
	}
	n, err := f.store.EmailChecks.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	again, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}
