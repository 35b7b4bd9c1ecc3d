package organization

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
)

// PurgeResult counts the rows removed by one sweep
type PurgeResult struct {
	Invites     int
	EmailChecks int
}

func expiredBefore(now time.Time, flag string) gateway.Option {
	return gateway.Scope(func(q *gorm.DB) *gorm.DB {
		return q.Where("expires_at < ? AND "+flag+" = ?", now, false)
	})
}

// PurgeExpired deletes invites that lapsed unaccepted and email checks that
// lapsed unconfirmed. Rows are removed one by one; a failed row is reported
// and the rest still go.
func (s *Service) PurgeExpired(ctx context.Context) (PurgeResult, error) {
	now := s.now()
	var res PurgeResult

	invites, err := s.store.UserInvites.FindAll(ctx, gateway.Select("id"), expiredBefore(now, "accepted"))
	if err != nil {
		return res, err
	}
	ids := make([]uint, len(invites))
	for i, inv := range invites {
		ids[i] = inv.ID
	}
	inviteRes := s.store.UserInvites.DestroyBulk(ctx, ids)
	res.Invites = inviteRes.Succeeded()

	checks, err := s.store.EmailChecks.FindAll(ctx, gateway.Select("id"), expiredBefore(now, "confirmed"))
	if err != nil {
		return res, errors.Join(inviteRes.Err(), err)
	}
	ids = make([]uint, len(checks))
	for i, c := range checks {
		ids[i] = c.ID
	}
	checkRes := s.store.EmailChecks.DestroyBulk(ctx, ids)
	res.EmailChecks = checkRes.Succeeded()

	if res.Invites > 0 || res.EmailChecks > 0 {
		s.log(ctx).Info("expired tokens purged",
			zap.Int("invites", res.Invites),
			zap.Int("email_checks", res.EmailChecks))
	}
	return res, errors.Join(inviteRes.Err(), checkRes.Err())
}
