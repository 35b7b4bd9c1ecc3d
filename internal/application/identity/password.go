package identity

import (
	"unicode"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/config"
)

// Password policy message keys
const (
	MsgPasswordLength = "user:password-error-length"
	MsgPasswordWeak   = "user:password-error-weak"
)

// PasswordPolicy is checked against the plain-text password before hashing
type PasswordPolicy struct {
	MinLength     int
	RequireDigit  bool
	RequireLower  bool
	RequireUpper  bool
	RequireSymbol bool
}

// NewPasswordPolicy creates a password policy from configuration
func NewPasswordPolicy(cfg config.PasswordConfig) PasswordPolicy {
	return PasswordPolicy{
		MinLength:     cfg.MinLength,
		RequireDigit:  cfg.RequireDigit,
		RequireLower:  cfg.RequireLower,
		RequireUpper:  cfg.RequireUpper,
		RequireSymbol: cfg.RequireSymbol,
	}
}

// Check returns a validation error on the password field, or nil.
// Anything that is neither a letter, a digit nor an underscore counts as a symbol.
func (p PasswordPolicy) Check(password string) error {
	if len([]rune(password)) < p.MinLength {
		return shared.NewValidationError("password", MsgPasswordLength)
	}

	var digit, lower, upper, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case r != '_' && !unicode.IsLetter(r):
			symbol = true
		}
	}
	if (p.RequireDigit && !digit) ||
		(p.RequireLower && !lower) ||
		(p.RequireUpper && !upper) ||
		(p.RequireSymbol && !symbol) {
		return shared.NewValidationError("password", MsgPasswordWeak)
	}
	return nil
}
