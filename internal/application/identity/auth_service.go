package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/auth"
	"github.com/ecommerce/backend/internal/infrastructure/notification"
	"github.com/ecommerce/backend/internal/infrastructure/persistence"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
)

// MsgBadCredentials is returned for both an unknown email and a wrong password
const MsgBadCredentials = "Email and password does not match"

// compared against when the email is unknown, so both failures cost one bcrypt run
var dummyHash = sync.OnceValue(func() string {
	hash, _ := bcrypt.GenerateFromPassword([]byte("unknown-user"), bcrypt.DefaultCost)
	return string(hash)
})

// AuthService handles signup, login and logout
type AuthService struct {
	store     *persistence.Store
	users     *UserService
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	notifier  notification.Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	store *persistence.Store,
	users *UserService,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	notifier notification.Notifier,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		users:     users,
		jwt:       jwtService,
		blacklist: blacklist,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Signup creates a member account. The welcome notification is best effort.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, ip string) (*models.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, shared.NewValidationError("confirm_password", "user:confirm-password-error-mismatch")
	}

	user, err := s.users.Create(ctx, s.store.Users, NewUserInput{
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		Password:        in.Password,
		Role:            models.RoleMember,
		TermsAcceptedIP: ip,
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyWelcome(ctx, notification.Welcome{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}); err != nil {
		s.logger.Warn("welcome notification failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}

// Login checks the credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	user, err := s.store.Users.FindOne(ctx, gateway.Where(shared.Values{"email": NormalizeEmail(in.Email)}))
	if err != nil {
		return nil, err
	}
	if user == nil {
		VerifyPassword(dummyHash(), in.Password)
		s.logger.Warn("login for unknown email")
		return nil, shared.NewUnauthorizedError(MsgBadCredentials)
	}
	if !VerifyPassword(user.Password, in.Password) {
		s.logger.Warn("invalid password attempt", zap.Uint("user_id", user.ID))
		return nil, shared.NewUnauthorizedError(MsgBadCredentials)
	}
	if !user.IsActive {
		return nil, shared.NewUnauthorizedError("Account is not active")
	}

	token, err := s.jwt.Issue(auth.Identity{
		UserID:         user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return &LoginResult{Token: token, User: user}, nil
}

// Logout revokes the token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	ttl := claims.RemainingTTL(s.now())
	if claims.ID == "" || ttl <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.Info("user logged out", zap.Uint("user_id", claims.UserID))
	return nil
}

// Me returns the user behind an authenticated request
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, shared.NewNotFoundError(fmt.Sprintf("User %d not found", userID))
	}
	return user, nil
}
