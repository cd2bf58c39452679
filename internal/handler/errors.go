package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/pkg/response"
)

// handleError maps service errors onto the response envelope. Unknown errors
// are recorded on the gin context for the access log and answered with a
// generic 500.
func handleError(c *gin.Context, err error) {
	span := trace.SpanFromContext(c.Request.Context())
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var (
		validationErr *domain.ValidationError
		conflictErr   *domain.ConflictError
		tokenErr      *auth.TokenError
	)
	switch {
	case errors.As(err, &validationErr):
		details := map[string]string{}
		if validationErr.Field != "" {
			details[validationErr.Field] = validationErr.Message
		}
		resp := response.ErrorWithDetails(response.ErrCodeValidationFailed, validationErr.Error(), details)
		c.JSON(http.StatusBadRequest, resp)
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, response.Conflict(conflictErr.Error()))
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, response.NotFound(""))
	case errors.Is(err, domain.ErrTenantRequired):
		c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeTenantRequired, "Tenant identifier is required"))
	case errors.Is(err, domain.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, response.TooManyRequests("Too many failed login attempts, please try again later"))
	case errors.As(err, &tokenErr):
		if tokenErr.Kind == auth.TokenExpired {
			c.JSON(http.StatusUnauthorized, response.Error(response.ErrCodeTokenExpired, "Token has expired"))
			return
		}
		c.JSON(http.StatusUnauthorized, response.Error(response.ErrCodeInvalidToken, "Invalid or expired token"))
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, response.Unauthorized("Invalid credentials"))
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Forbidden(""))
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, response.ValidationFailed(map[string]string{"error": err.Error()}))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, response.InternalError(""))
	}
}

// bindError answers a request whose body or query could not be bound
func bindError(c *gin.Context, err error) {
	trace.SpanFromContext(c.Request.Context()).SetStatus(codes.Error, "invalid request")
	c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
}
