package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// FailureReason tells operators why an authentication attempt failed.
// Callers outside the package only ever see the generic message.
type FailureReason string

const (
	ReasonInvalidFormat  FailureReason = "INVALID_FORMAT"
	ReasonNotFound       FailureReason = "NOT_FOUND"
	ReasonDisabled       FailureReason = "DISABLED"
	ReasonBadCredentials FailureReason = "BAD_CREDENTIALS"
)

// AuthenticationError is returned by the provider
type AuthenticationError struct {
	Reason FailureReason
}

func (e *AuthenticationError) Error() string {
	return "invalid credentials"
}

func (e *AuthenticationError) Unwrap() error { return domain.ErrUnauthenticated }

// Credentials identify a user within one tenant
type Credentials struct {
	Email    string
	TenantID int64
	Password string
}

// ParseIdentifier splits the compound "email:tenantId" login identifier.
// The split happens at the last colon.
func ParseIdentifier(identifier string) (string, int64, error) {
	i := strings.LastIndex(identifier, ":")
	if i <= 0 || i == len(identifier)-1 {
		return "", 0, &AuthenticationError{Reason: ReasonInvalidFormat}
	}
	tenantID, err := strconv.ParseInt(identifier[i+1:], 10, 64)
	if err != nil || tenantID <= 0 {
		return "", 0, &AuthenticationError{Reason: ReasonInvalidFormat}
	}
	return identifier[:i], tenantID, nil
}

// UserLookup finds users for authentication
type UserLookup interface {
	// GetByEmail returns the non-deleted user with the email in the tenant, or nil
	GetByEmail(ctx context.Context, tenantID int64, email string) (*domain.User, error)
}

// Provider authenticates credentials against stored users
type Provider struct {
	users  UserLookup
	hasher PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

// NewProvider creates a Provider
func NewProvider(users UserLookup, hasher PasswordHasher) *Provider {
	return &Provider{users: users, hasher: hasher}
}

// Authenticate verifies credentials and returns the principal
func (p *Provider) Authenticate(ctx context.Context, creds Credentials) (*domain.Principal, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" || creds.TenantID <= 0 || creds.Password == "" {
		return nil, &AuthenticationError{Reason: ReasonInvalidFormat}
	}

	user, err := p.users.GetByEmail(ctx, creds.TenantID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		// keep timing similar to the found path
		_ = p.hasher.Compare(p.dummy(), creds.Password)
		return nil, &AuthenticationError{Reason: ReasonNotFound}
	}
	if err := p.hasher.Compare(user.PasswordHash, creds.Password); err != nil {
		return nil, &AuthenticationError{Reason: ReasonBadCredentials}
	}
	if !user.Active {
		return nil, &AuthenticationError{Reason: ReasonDisabled}
	}
	return domain.PrincipalFromUser(user), nil
}

// dummy returns a hash compared when the user does not exist
func (p *Provider) dummy() string {
	p.dummyOnce.Do(func() {
		p.dummyHash, _ = p.hasher.Hash("not-a-real-password")
	})
	return p.dummyHash
}

// AuthenticateIdentifier accepts the compound "email:tenantId" identifier
func (p *Provider) AuthenticateIdentifier(ctx context.Context, identifier, password string) (*domain.Principal, error) {
	email, tenantID, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	return p.Authenticate(ctx, Credentials{Email: email, TenantID: tenantID, Password: password})
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher implements PasswordHasher with bcrypt
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher creates a hasher; cost 0 uses bcrypt.DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash returns the bcrypt hash of the password
func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Compare checks the password in constant time
func (h *BcryptHasher) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.ErrUnauthenticated
		}
		return err
	}
	return nil
}
