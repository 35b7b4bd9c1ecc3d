package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
)

// Users is the gateway accounts are written through; pass the tx-bound one
// to create a user inside a workflow.
type Users = gateway.Gateway[models.User, *models.User]

// UserService creates accounts and checks passwords
type UserService struct {
	policy PasswordPolicy
	cost   int
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(policy PasswordPolicy, bcryptCost int, logger *zap.Logger) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{policy: policy, cost: bcryptCost, logger: logger}
}

// NormalizeEmail trims and lower-cases an address. Casers keep state, so
// each call builds its own.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

// Create checks the password policy, hashes the password and inserts the user
func (s *UserService) Create(ctx context.Context, users *Users, in NewUserInput, opts ...gateway.Option) (*models.User, error) {
	if err := s.policy.Check(in.Password); err != nil {
		return nil, err
	}
	hash, err := s.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	values := shared.Values{
		"first_name": strings.TrimSpace(in.FirstName),
		"last_name":  strings.TrimSpace(in.LastName),
		"email":      NormalizeEmail(in.Email),
		"password":   hash,
	}
	if in.Role != "" {
		values["role"] = in.Role
	}
	if in.OrganizationID != nil {
		values["organization_id"] = *in.OrganizationID
	}
	if in.UserTypeID != nil {
		values["user_type_id"] = *in.UserTypeID
	}
	if in.TermsAcceptedIP != "" {
		values["terms_accepted_ip"] = in.TermsAcceptedIP
	}
	if in.NewsletterIP != "" {
		values["newsletter_confirmed_ip"] = in.NewsletterIP
	}

	user, err := users.Create(ctx, values, opts...)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created",
		zap.Uint("user_id", user.ID),
		zap.String("role", user.Role))
	return user, nil
}

// Hash returns the bcrypt hash of password
func (s *UserService) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", shared.NewValidationError("password", MsgPasswordLength)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
