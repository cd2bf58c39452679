package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/dto"
	"github.com/CrownAlter/task-management-api/internal/repository"
	"github.com/CrownAlter/task-management-api/internal/tenant"
	"github.com/CrownAlter/task-management-api/pkg/logger"
	"github.com/CrownAlter/task-management-api/pkg/telemetry"
)

// AuthService defines registration, login and token refresh
type AuthService interface {
	// Register creates an organization and its first administrator
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	// Login authenticates a user of the tenant named by slug
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	// Refresh issues a new access token for a valid refresh token
	Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error)
	// Me returns the current user
	Me(ctx context.Context) (*dto.UserResponse, error)
}

// AuthDeps holds the collaborators of the auth service
type AuthDeps struct {
	Tenants  repository.TenantRepository
	Users    repository.UserRepository
	Tx       repository.Transactor
	Provider *auth.Provider
	Tokens   *auth.TokenService
	Hasher   auth.PasswordHasher
	Throttle auth.LoginThrottle
	Audit    AuditRecorder
	Logger   *logger.Logger
}

type authService struct {
	AuthDeps
	now           Clock
	loginFailures *telemetry.Counter
}

// NewAuthService creates a new AuthService
func NewAuthService(deps AuthDeps) AuthService {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Tx == nil {
		deps.Tx = repository.NoTx{}
	}
	return &authService{
		AuthDeps: deps,
		now:      utcNow,
		loginFailures: telemetry.MustCounter(telemetry.MetricOpts{
			Name:        telemetry.MetricLoginFailures,
			Description: "Rejected login attempts",
		}),
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.OrganizationName)
	now := s.now()
	org := &domain.Tenant{
		Name:        name,
		Description: req.OrganizationDescription,
		Active:      true,
		MaxUsers:    domain.DefaultMaxUsers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	user := &domain.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Phone:        req.Phone,
		Active:       true,
		Roles:        []domain.Role{domain.RoleAdmin},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.Tenants.ExistsByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check organization name: %w", err)
		}
		if exists {
			return &domain.ConflictError{Field: "organization_name", Value: name}
		}
		if org.Slug, err = s.uniqueSlug(ctx, name); err != nil {
			return err
		}
		if err := s.Tenants.Create(ctx, org); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}
		user.TenantID = org.ID
		if err := s.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create administrator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	principal := domain.PrincipalFromUser(user)
	_ = tenant.Run(ctx, org.ID, func(ctx context.Context) error {
		ctx = auth.WithPrincipal(ctx, principal)
		s.Audit.Record(ctx, domain.ActionTenantCreated, domain.EntityTenant, org.ID, fmt.Sprintf("Registered organization: %s", org.Name), "")
		s.Audit.Record(ctx, domain.ActionUserRegistered, domain.EntityUser, user.ID, fmt.Sprintf("Registered administrator: %s", user.Email), "")
		return nil
	})

	s.Logger.WithContext(ctx).WithTenant(org.ID).Info("organization registered",
		zap.String("slug", org.Slug),
		zap.Int64("user_id", user.ID),
	)
	return s.issue(principal, user, "")
}

// uniqueSlug derives a slug from the name, adding -1, -2, ... on collision
func (s *authService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		return "", domain.NewValidationError("organization_name", "organization name must contain letters or digits")
	}
	slug := base
	for i := 1; ; i++ {
		taken, err := s.Tenants.ExistsBySlug(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	org, err := s.Tenants.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(req.TenantSlug)))
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if org == nil || !org.Active {
		return nil, s.rejected(ctx, &auth.AuthenticationError{Reason: auth.ReasonNotFound})
	}

	log := s.Logger.WithContext(ctx).WithTenant(org.ID)
	key := auth.ThrottleKey(org.ID, req.Email)
	if err := s.Throttle.Check(ctx, key); err != nil {
		if errors.Is(err, domain.ErrTooManyAttempts) {
			s.loginFailures.Inc(ctx, telemetry.ReasonAttr("THROTTLED"), telemetry.TenantIDAttr(org.ID))
			return nil, err
		}
		// an unavailable throttle store does not block logins
		log.Warn("login throttle check failed", zap.Error(err))
	}

	principal, err := s.Provider.Authenticate(ctx, auth.Credentials{
		Email:    req.Email,
		TenantID: org.ID,
		Password: req.Password,
	})
	if err != nil {
		var authErr *auth.AuthenticationError
		if errors.As(err, &authErr) {
			if ferr := s.Throttle.Fail(ctx, key); ferr != nil {
				log.Warn("failed to record login failure", zap.Error(ferr))
			}
		}
		return nil, s.rejected(ctx, err)
	}

	if err := s.Throttle.Reset(ctx, key); err != nil {
		log.Warn("failed to reset login throttle", zap.Error(err))
	}

	user, err := s.Users.GetByID(ctx, org.ID, principal.UserID())
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, s.rejected(ctx, &auth.AuthenticationError{Reason: auth.ReasonNotFound})
	}
	now := s.now()
	user.LastLogin = &now
	if err := s.Users.Update(ctx, user); err != nil {
		log.Warn("failed to update last login", zap.Error(err), zap.Int64("user_id", user.ID))
	}

	_ = tenant.Run(ctx, org.ID, func(ctx context.Context) error {
		s.Audit.Record(auth.WithPrincipal(ctx, principal), domain.ActionLogin, domain.EntityUser, user.ID, "User logged in", "")
		return nil
	})
	return s.issue(principal, user, "")
}

// rejected counts a failed login. Authentication failures carry their
// reason for operators only.
func (s *authService) rejected(ctx context.Context, err error) error {
	reason := "ERROR"
	var authErr *auth.AuthenticationError
	if errors.As(err, &authErr) {
		reason = string(authErr.Reason)
	}
	s.loginFailures.Inc(ctx, telemetry.ReasonAttr(reason))
	s.Logger.WithContext(ctx).Info("login rejected", zap.String("reason", reason))
	return err
}

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	claims, err := s.Tokens.ValidateRefresh(req.RefreshToken)
	if err != nil {
		return nil, err
	}

	org, err := s.Tenants.GetByID(ctx, claims.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if org == nil || !org.Active {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonDisabled}
	}

	user, err := s.Users.GetByID(ctx, claims.TenantID, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonNotFound}
	}
	if !user.Active {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonDisabled}
	}

	return s.issue(domain.PrincipalFromUser(user), user, req.RefreshToken)
}

func (s *authService) Me(ctx context.Context) (*dto.UserResponse, error) {
	tenantID, p, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.GetByID(ctx, tenantID, p.UserID())
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("User", p.UserID())
	}
	return dto.NewUserResponse(user), nil
}

// issue signs an access token, and a refresh token unless one is reused
func (s *authService) issue(p *domain.Principal, user *domain.User, refreshToken string) (*dto.AuthResponse, error) {
	access, err := s.Tokens.IssueAccessToken(p)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	if refreshToken == "" {
		refreshToken, err = s.Tokens.IssueRefreshToken(p)
		if err != nil {
			return nil, fmt.Errorf("failed to issue refresh token: %w", err)
		}
	}
	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.Tokens.AccessTokenTTL().Seconds()),
		User:         dto.NewUserResponse(user),
	}, nil
}
