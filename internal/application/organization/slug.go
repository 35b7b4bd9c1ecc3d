package organization

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
)

// Workspace slug bounds, matching the organizations.workspace rules
const (
	MinWorkspaceLength = 3
	MaxWorkspaceLength = 50
)

const maxSlugAttempts = 1000

// Organizations is the gateway slugs are checked against
type Organizations = gateway.Gateway[models.Organization, *models.Organization]

// Slugify folds diacritics, lower-cases, and collapses every run of characters
// outside [a-z0-9] into one dash. The result is cut to MaxWorkspaceLength and
// padded with zeros to MinWorkspaceLength. It is empty when s has nothing usable.
func Slugify(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	pendingDash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	slug := truncate(b.String(), MaxWorkspaceLength)
	if slug == "" {
		return ""
	}
	if len(slug) < MinWorkspaceLength {
		slug += strings.Repeat("0", MinWorkspaceLength-len(slug))
	}
	return slug
}

func truncate(slug string, n int) string {
	if len(slug) > n {
		slug = slug[:n]
	}
	return strings.TrimRight(slug, "-")
}

// AvailableWorkspaceSlug returns base, or base with the first free "-N" suffix
// (N from 2). Soft-deleted organizations still hold their workspace.
func AvailableWorkspaceSlug(ctx context.Context, orgs *Organizations, base string) (string, error) {
	candidate := base
	for n := 2; n < maxSlugAttempts; n++ {
		taken, err := orgs.Exists(ctx,
			gateway.Where(shared.Values{"workspace": candidate}),
			gateway.IncludeDeleted())
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix := "-" + strconv.Itoa(n)
		candidate = truncate(base, MaxWorkspaceLength-len(suffix)) + suffix
	}
	return "", shared.NewValidationError("workspace", "organization:workspace-error-unique")
}
