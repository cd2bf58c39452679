package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// TokenType distinguishes access from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenErrorKind classifies token validation failures
type TokenErrorKind string

const (
	TokenMalformed            TokenErrorKind = "MALFORMED"
	TokenExpired              TokenErrorKind = "EXPIRED"
	TokenUnsupportedSignature TokenErrorKind = "UNSUPPORTED_SIGNATURE"
	TokenInvalid              TokenErrorKind = "INVALID"
)

// TokenError is returned by every failed token validation
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("token %s", e.Kind)
	}
	return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
}

// Unwrap lets callers match both the jwt cause and domain.ErrUnauthenticated
func (e *TokenError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrUnauthenticated}
	}
	return []error{domain.ErrUnauthenticated, e.Err}
}

var errUnsupportedSigningMethod = errors.New("unsupported signing method")

// Claims is the payload of both token types. Refresh tokens carry Type and no roles.
type Claims struct {
	UserID   int64    `json:"userId"`
	TenantID int64    `json:"tenantId"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Type     string   `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// IsRefresh reports whether the claims belong to a refresh token
func (c *Claims) IsRefresh() bool {
	return c.Type == string(TokenTypeRefresh)
}

// Principal rebuilds the principal carried by access-token claims
func (c *Claims) Principal() *domain.Principal {
	roles := make([]domain.Role, 0, len(c.Roles))
	for _, r := range c.Roles {
		if role, err := domain.ParseRole(r); err == nil {
			roles = append(roles, role)
		}
	}
	return domain.NewPrincipal(c.UserID, c.TenantID, c.Subject, roles, true)
}

// TokenConfig holds signing configuration
type TokenConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenService issues and validates HMAC-SHA256 signed tokens.
// A single key is shared by all tenants; isolation relies on the tenantId claim.
type TokenService struct {
	key    []byte
	config TokenConfig
	now    func() time.Time
}

// NewTokenService creates a TokenService
func NewTokenService(cfg TokenConfig) *TokenService {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		key:    []byte(cfg.Secret),
		config: cfg,
		now:    time.Now,
	}
}

// WithClock returns a copy of the service using the given clock
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// AccessTokenTTL returns the access token lifetime
func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.config.AccessTokenTTL
}

// IssueAccessToken signs a short-lived token carrying identity, tenant and roles
func (s *TokenService) IssueAccessToken(p *domain.Principal) (string, error) {
	if p == nil {
		return "", errors.New("principal is required")
	}
	claims := &Claims{
		UserID:           p.UserID(),
		TenantID:         p.TenantID(),
		Email:            p.Email(),
		Roles:            domain.RoleNames(p.Roles()),
		RegisteredClaims: s.registered(p, s.config.AccessTokenTTL),
	}
	return s.sign(claims)
}

// IssueRefreshToken signs a long-lived token used only to obtain new access tokens
func (s *TokenService) IssueRefreshToken(p *domain.Principal) (string, error) {
	if p == nil {
		return "", errors.New("principal is required")
	}
	claims := &Claims{
		UserID:           p.UserID(),
		TenantID:         p.TenantID(),
		Type:             string(TokenTypeRefresh),
		RegisteredClaims: s.registered(p, s.config.RefreshTokenTTL),
	}
	return s.sign(claims)
}

func (s *TokenService) registered(p *domain.Principal, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   p.Email(),
		Issuer:    s.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *TokenService) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and returns the claims of any token type
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, &TokenError{Kind: TokenMalformed, Err: jwt.ErrTokenMalformed}
	}

	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired()}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", errUnsupportedSigningMethod, token.Header["alg"])
		}
		return s.key, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, &TokenError{Kind: TokenInvalid}
	}
	if claims.UserID <= 0 || claims.TenantID <= 0 {
		return nil, &TokenError{Kind: TokenInvalid, Err: errors.New("missing identity claims")}
	}
	return claims, nil
}

// Validate accepts only access tokens
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.IsRefresh() {
		return nil, &TokenError{Kind: TokenInvalid, Err: errors.New("refresh token used as access token")}
	}
	return claims, nil
}

// ValidateRefresh accepts only refresh tokens
func (s *TokenService) ValidateRefresh(tokenString string) (*Claims, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefresh() {
		return nil, &TokenError{Kind: TokenInvalid, Err: errors.New("not a refresh token")}
	}
	return claims, nil
}

// UserID validates the token and returns its userId claim
func (s *TokenService) UserID(tokenString string) (int64, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// TenantID validates the token and returns its tenantId claim
func (s *TokenService) TenantID(tokenString string) (int64, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.TenantID, nil
}

// Username validates the token and returns its subject
func (s *TokenService) Username(tokenString string) (string, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func classify(err error) *TokenError {
	switch {
	case errors.Is(err, errUnsupportedSigningMethod):
		return &TokenError{Kind: TokenUnsupportedSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Kind: TokenExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &TokenError{Kind: TokenMalformed, Err: err}
	default:
		return &TokenError{Kind: TokenInvalid, Err: err}
	}
}
