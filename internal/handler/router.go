package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/middleware"
	"github.com/CrownAlter/task-management-api/pkg/logger"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Health *HealthHandler
	Auth   *AuthHandler
	Task   *TaskHandler
	User   *UserHandler
	Tenant *TenantHandler
	Audit  *AuditHandler
}

// RouterConfig holds what the router needs besides the handlers
type RouterConfig struct {
	Logger       *logger.Logger
	Tokens       *auth.TokenService
	Users        middleware.UserLoader
	TenantHeader string
	CORS         middleware.CORSConfig
}

// NewRouter builds the gin engine. Tenant resolution runs for every request;
// bearer authentication and role checks only guard the protected groups.
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestMeta(),
		middleware.Observe(log),
		middleware.CORS(cfg.CORS),
		middleware.TenantResolution(cfg.TenantHeader),
	)

	router.GET("/health", h.Health.Health)

	v1 := router.Group("/api/v1")

	authPublic := v1.Group("/auth")
	{
		authPublic.POST("/register", h.Auth.Register)
		authPublic.POST("/login", h.Auth.Login)
		authPublic.POST("/refresh", h.Auth.Refresh)
	}

	protected := v1.Group("", middleware.Authenticate(cfg.Tokens, cfg.Users))
	admin := middleware.RequireRole(domain.RoleAdmin)

	protected.GET("/auth/me", h.Auth.Me)

	tasks := protected.Group("/tasks")
	{
		tasks.POST("", h.Task.Create)
		tasks.GET("", h.Task.List)
		tasks.GET("/mine", h.Task.ListMine)
		tasks.GET("/created", h.Task.ListCreated)
		tasks.GET("/:id", h.Task.Get)
		tasks.PUT("/:id", h.Task.Update)
		tasks.DELETE("/:id", h.Task.Delete)
		tasks.PATCH("/:id/status", h.Task.UpdateStatus)
		tasks.PUT("/:id/assign/:userId", h.Task.Assign)
		tasks.DELETE("/:id/assign", h.Task.Unassign)
	}

	users := protected.Group("/users")
	{
		users.GET("/me", h.User.Profile)
		users.PUT("/me", h.User.UpdateProfile)
		users.PUT("/me/password", h.User.ChangePassword)
		users.GET("", h.User.List)
		users.GET("/:id", h.User.Get)
		users.GET("/:id/stats", h.User.Statistics)
		users.PATCH("/:id/activate", admin, h.User.Activate)
		users.PATCH("/:id/deactivate", admin, h.User.Deactivate)
		users.PUT("/:id/roles", admin, h.User.UpdateRoles)
		users.DELETE("/:id", admin, h.User.Delete)
	}

	protected.GET("/tenant", h.Tenant.Current)
	protected.PATCH("/tenant/deactivate", admin, h.Tenant.Deactivate)

	auditLogs := protected.Group("/audit-logs", admin)
	{
		auditLogs.GET("", h.Audit.List)
		auditLogs.GET("/export", h.Audit.Export)
	}

	return router
}
