// Package service holds the tenant-scoped use cases. Every operation reads
// the tenant and principal from its context.Context.
package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/tenant"
)

// AuditRecorder is the part of audit.Recorder the services use
type AuditRecorder interface {
	Record(ctx context.Context, action, entityType string, entityID int64, details, ip string)
}

// Clock returns the current time
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// scope returns the tenant and principal of ctx. The principal must belong
// to the tenant.
func scope(ctx context.Context) (int64, *domain.Principal, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return 0, nil, err
	}
	p, err := auth.CurrentPrincipal(ctx)
	if err != nil {
		return 0, nil, err
	}
	if p.TenantID() != tenantID {
		return 0, nil, fmt.Errorf("principal belongs to another tenant: %w", domain.ErrForbidden)
	}
	return tenantID, p, nil
}

const (
	PasswordMinLength = 8
	// PasswordMaxBytes is the longest input bcrypt accepts
	PasswordMaxBytes = 72
)

// ValidatePassword requires 8 to 72 bytes with upper and lower case letters,
// a digit and a special character
func ValidatePassword(password string) error {
	if len(password) < PasswordMinLength {
		return domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", PasswordMinLength))
	}
	if len(password) > PasswordMaxBytes {
		return domain.NewValidationError("password", fmt.Sprintf("password must be at most %d bytes", PasswordMaxBytes))
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return domain.NewValidationError("password",
			"password must contain an uppercase letter, a lowercase letter, a digit and a special character")
	}
	return nil
}

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slugify turns an organization name into a URL-safe slug
func Slugify(name string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
