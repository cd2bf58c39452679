package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/tenant"
	"github.com/CrownAlter/task-management-api/pkg/response"
)

// Keys under which Authenticate exposes identity to later gin handlers
const (
	ContextKeyUserID   = "user_id"
	ContextKeyTenantID = "tenant_id"
)

// UserLoader reloads the user behind a token so role and status changes
// apply before the token expires
type UserLoader interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.User, error)
}

// Authenticate requires a valid bearer access token. The token's tenant
// must match the tenant resolved from the header; without a header the
// token's tenant becomes the request tenant. users may be nil, in which
// case the principal is built from the token claims alone.
func Authenticate(tokens *auth.TokenService, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized(""))
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(response.ErrCodeInvalidToken, "Invalid authorization header format"))
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			var tokenErr *auth.TokenError
			if errors.As(err, &tokenErr) && tokenErr.Kind == auth.TokenExpired {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(response.ErrCodeTokenExpired, "Access token has expired"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(response.ErrCodeInvalidToken, "Invalid or expired token"))
			return
		}

		ctx := c.Request.Context()
		if tenantID, ok := tenant.FromContext(ctx); ok {
			if tenantID != claims.TenantID {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Forbidden("Token does not belong to this tenant"))
				return
			}
		} else {
			ctx = tenant.WithTenant(ctx, claims.TenantID)
		}

		principal := claims.Principal()
		if users != nil {
			user, err := users.GetByID(ctx, claims.TenantID, claims.UserID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.InternalError(""))
				return
			}
			if user == nil || !user.Active {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(response.ErrCodeInvalidToken, "Invalid or expired token"))
				return
			}
			principal = domain.PrincipalFromUser(user)
		}

		c.Set(ContextKeyUserID, principal.UserID())
		c.Set(ContextKeyTenantID, principal.TenantID())

		original := c.Request
		defer func() { c.Request = original }()

		c.Request = original.WithContext(auth.WithPrincipal(ctx, principal))
		c.Next()
	}
}

// RequireRole rejects requests whose principal lacks role
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := auth.RequireFromContext(c.Request.Context(), role); err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Forbidden(""))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized(""))
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated principal of the request
func Principal(c *gin.Context) (*domain.Principal, bool) {
	return auth.PrincipalFromContext(c.Request.Context())
}
