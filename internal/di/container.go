package di

import (
	"github.com/gin-gonic/gin"

	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/handler"
	"github.com/CrownAlter/task-management-api/internal/middleware"
	"github.com/CrownAlter/task-management-api/internal/repository"
	"github.com/CrownAlter/task-management-api/internal/service"
	"github.com/CrownAlter/task-management-api/pkg/logger"
)

// Container holds all dependencies of the task API
type Container struct {
	// Infrastructure
	Logger   *logger.Logger
	Tokens   *auth.TokenService
	Hasher   auth.PasswordHasher
	Throttle auth.LoginThrottle
	Audit    service.AuditRecorder

	// Repositories
	TenantRepo repository.TenantRepository
	UserRepo   repository.UserRepository
	TaskRepo   repository.TaskRepository
	AuditRepo  repository.AuditRepository

	// Services
	AuthService   service.AuthService
	TaskService   service.TaskService
	UserService   service.UserService
	TenantService service.TenantService
	AuditService  service.AuditService

	// Handlers
	Handlers *handler.Handlers
	Router   *gin.Engine
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Logger     *logger.Logger
	TenantRepo repository.TenantRepository
	UserRepo   repository.UserRepository
	TaskRepo   repository.TaskRepository
	AuditRepo  repository.AuditRepository
	// Tx groups multi-row writes; nil runs them without a transaction
	Tx repository.Transactor

	Tokens   *auth.TokenService
	Hasher   auth.PasswordHasher
	Throttle auth.LoginThrottle
	Audit    service.AuditRecorder

	Version         string
	TenantHeader    string
	CORS            middleware.CORSConfig
	HealthChecks    map[string]handler.HealthChecker
	ReloadPrincipal bool
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	c := &Container{
		Logger:     log,
		Tokens:     cfg.Tokens,
		Hasher:     cfg.Hasher,
		Throttle:   cfg.Throttle,
		Audit:      cfg.Audit,
		TenantRepo: cfg.TenantRepo,
		UserRepo:   cfg.UserRepo,
		TaskRepo:   cfg.TaskRepo,
		AuditRepo:  cfg.AuditRepo,
	}

	// Initialize services
	c.AuthService = service.NewAuthService(service.AuthDeps{
		Tenants:  c.TenantRepo,
		Users:    c.UserRepo,
		Tx:       cfg.Tx,
		Provider: auth.NewProvider(c.UserRepo, c.Hasher),
		Tokens:   c.Tokens,
		Hasher:   c.Hasher,
		Throttle: c.Throttle,
		Audit:    c.Audit,
		Logger:   log,
	})
	c.TaskService = service.NewTaskService(c.TaskRepo, c.UserRepo, c.Audit)
	c.UserService = service.NewUserService(c.UserRepo, c.TaskRepo, c.Hasher, c.Audit)
	c.TenantService = service.NewTenantService(c.TenantRepo, c.UserRepo, c.Audit)
	c.AuditService = service.NewAuditService(c.AuditRepo)

	// Initialize handlers
	c.Handlers = &handler.Handlers{
		Health: handler.NewHealthHandler(cfg.Version, cfg.HealthChecks),
		Auth:   handler.NewAuthHandler(c.AuthService),
		Task:   handler.NewTaskHandler(c.TaskService),
		User:   handler.NewUserHandler(c.UserService),
		Tenant: handler.NewTenantHandler(c.TenantService),
		Audit:  handler.NewAuditHandler(c.AuditService),
	}

	var users middleware.UserLoader
	if cfg.ReloadPrincipal {
		users = c.UserRepo
	}
	c.Router = handler.NewRouter(c.Handlers, handler.RouterConfig{
		Logger:       log,
		Tokens:       c.Tokens,
		Users:        users,
		TenantHeader: cfg.TenantHeader,
		CORS:         cfg.CORS,
	})

	return c
}
