package organization_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerce/backend/internal/application/organization"
	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
	"github.com/ecommerce/backend/tests/testutil"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme", "acme"},
		{"Acme Inc", "acme-inc"},
		{"  Crème Brûlée & Co. ", "creme-brulee-co"},
		{"São Paulo Ltda", "sao-paulo-ltda"},
		{"--a--b--", "a-b"},
		{"x", "x00"},
		{"!!!", ""},
		{"", ""},
		{strings.Repeat("ab", 40), strings.Repeat("ab", 25)},
		{strings.Repeat("a", 49) + " b", strings.Repeat("a", 49)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := organization.Slugify(tt.in)
			assert.Equal(t, tt.want, got)
			if got != "" {
				assert.True(t, models.WorkspacePattern.MatchString(got))
			}
		})
	}
}

func TestAvailableWorkspaceSlug(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	slug, err := organization.AvailableWorkspaceSlug(ctx, s.Organizations, "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", slug)

	org, err := s.Organizations.Create(ctx, shared.Values{"workspace": "acme", "company": "Acme Inc"})
	require.NoError(t, err)
	slug, err = organization.AvailableWorkspaceSlug(ctx, s.Organizations, "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme-2", slug)

	t.Run("soft-deleted rows still hold the slug", func(t *testing.T) {
		_, err := s.Organizations.Create(ctx, shared.Values{"workspace": "acme-2", "company": "Acme Two"})
		require.NoError(t, err)
		_, err = s.Organizations.SoftDeleteByID(ctx, org.ID)
		require.NoError(t, err)

		slug, err := organization.AvailableWorkspaceSlug(ctx, s.Organizations, "acme")
		require.NoError(t, err)
		assert.Equal(t, "acme-3", slug)
	})

	t.Run("suffix keeps the length bound", func(t *testing.T) {
		long := strings.Repeat("z", organization.MaxWorkspaceLength)
		_, err := s.Organizations.Create(ctx, shared.Values{"workspace": long, "company": "Zed"})
		require.NoError(t, err)

		slug, err := organization.AvailableWorkspaceSlug(ctx, s.Organizations, long)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("z", organization.MaxWorkspaceLength-2)+"-2", slug)
	})
}
