// Package notification delivers user-facing messages produced by workflows.
// Delivery is best effort: callers log failures and carry on.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ecommerce/backend/internal/infrastructure/logger"
)

// Welcome greets a new account. Organization fields are zero for plain signups.
type Welcome struct {
	UserID         uint   `json:"user_id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	OrganizationID uint   `json:"organization_id,omitempty"`
	Workspace      string `json:"workspace,omitempty"`
	Company        string `json:"company,omitempty"`
}

// Invitation carries the token an invitee needs to join
type Invitation struct {
	InviteID       uint      `json:"invite_id"`
	Email          string    `json:"email"`
	Token          string    `json:"token"`
	OrganizationID uint      `json:"organization_id"`
	Workspace      string    `json:"workspace"`
	Company        string    `json:"company"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Notifier delivers notifications
type Notifier interface {
	NotifyWelcome(ctx context.Context, msg Welcome) error
	NotifyInvite(ctx context.Context, msg Invitation) error
}

// LogNotifier only records notifications in the log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new notifier that only logs
func NewLogNotifier(l *zap.Logger) *LogNotifier {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogNotifier{logger: l.Named("notification")}
}

func (n *LogNotifier) NotifyWelcome(ctx context.Context, msg Welcome) error {
	logger.WithLogger(ctx, n.logger).Info("welcome notification",
		zap.Uint("user_id", msg.UserID),
		zap.String("email", msg.Email),
		zap.Uint("organization_id", msg.OrganizationID),
		zap.String("workspace", msg.Workspace),
	)
	return nil
}

// NotifyInvite logs the invite without its token
func (n *LogNotifier) NotifyInvite(ctx context.Context, msg Invitation) error {
	logger.WithLogger(ctx, n.logger).Info("invite notification",
		zap.Uint("invite_id", msg.InviteID),
		zap.String("email", msg.Email),
		zap.Uint("organization_id", msg.OrganizationID),
		zap.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}

// Envelope is the JSON document pushed to the queue
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	TypeWelcome = "welcome"
	TypeInvite  = "invite"
)

// RedisNotifier pushes envelopes onto a redis list for a mail worker to pop
// (LPUSH here, BRPOP there).
type RedisNotifier struct {
	client redis.UniversalClient
	queue  string
	now    func() time.Time
}

// NewRedisNotifier creates a new notifier that pushes onto a Redis list
func NewRedisNotifier(client redis.UniversalClient, queue string) *RedisNotifier {
	return &RedisNotifier{client: client, queue: queue, now: time.Now}
}

func (n *RedisNotifier) NotifyWelcome(ctx context.Context, msg Welcome) error {
	return n.push(ctx, TypeWelcome, msg)
}

func (n *RedisNotifier) NotifyInvite(ctx context.Context, msg Invitation) error {
	return n.push(ctx, TypeInvite, msg)
}

func (n *RedisNotifier) push(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s notification: %w", kind, err)
	}
	env, err := json.Marshal(Envelope{
		ID:        uuid.NewString(),
		Type:      kind,
		CreatedAt: n.now().UTC(),
		RequestID: logger.GetRequestID(ctx),
		Payload:   body,
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", kind, err)
	}
	if err := n.client.LPush(ctx, n.queue, env).Err(); err != nil {
		return fmt.Errorf("enqueue %s notification: %w", kind, err)
	}
	return nil
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*RedisNotifier)(nil)
)
