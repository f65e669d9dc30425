// api/routes/router.go
package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eventreg/internal/notifications"
	"eventreg/internal/registrations"
	"eventreg/internal/shared/config"
	"eventreg/internal/shared/database"
	"eventreg/internal/users"
	"eventreg/internal/verification"
	"eventreg/pkg/cache"
	"eventreg/pkg/logger"
)

const serviceName = "eventreg-backend"

// Router holds all route dependencies
type Router struct {
	config        *config.Config
	db            *database.DB
	logger        *logger.Logger
	notifications notifications.NotificationService
}

// NewRouter creates a new router instance. notificationService is nil for the in-memory deployment.
func NewRouter(cfg *config.Config, db *database.DB, l *logger.Logger, notificationService notifications.NotificationService) *Router {
	return &Router{
		config:        cfg,
		db:            db,
		logger:        l,
		notifications: notificationService,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) error {
	r.setupHealthRoutes(engine)

	return r.setupRegistrationRoutes(&engine.RouterGroup)
}

func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.healthCheck(c); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   serviceName,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":       "healthy",
			"timestamp":    time.Now(),
			"service":      serviceName,
			"storage_mode": r.config.StorageMode,
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

func (r *Router) healthCheck(c *gin.Context) error {
	if err := r.db.HealthCheck(c.Request.Context()); err != nil {
		return err
	}
	if r.notifications != nil {
		if err := r.notifications.HealthCheck(c.Request.Context()); err != nil {
			return fmt.Errorf("notifications: %w", err)
		}
	}
	return nil
}

// setupRegistrationRoutes wires the registry, capacity and verification for the configured deployment
func (r *Router) setupRegistrationRoutes(rg *gin.RouterGroup) error {
	capacity, err := registrations.NewCapacity(r.config.Event.GlobalLimit, r.config.Event.DepartmentLimits)
	if err != nil {
		return fmt.Errorf("invalid capacity configuration: %w", err)
	}

	guard, err := registrations.NewInsertGuard(r.config.Event.InsertMode, r.db.GetRedisClient(), r.config.Redis.LockTTL)
	if err != nil {
		return err
	}

	deps := registrations.ServiceDeps{
		Capacity: capacity,
		Guard:    guard,
		Logger:   r.logger,
	}

	if r.config.IsPersistent() {
		if r.notifications == nil {
			return fmt.Errorf("persistent storage requires a notification service")
		}
		deps.Registry = registrations.NewRepository(r.db.GetPostgreSQL())
		deps.Directory = r.usersDirectory()
		deps.Tokens = verification.NewTokenService(
			r.config.Verification.Secret,
			r.config.Verification.TokenTTL,
			verification.WithLogger(r.logger),
		)
		deps.Mailer = notifications.NewVerificationMailer(
			r.notifications,
			r.config.Verification.PublicBaseURL,
			r.config.Verification.TokenTTL,
		)
	} else {
		deps.Registry = registrations.NewMemoryRegistry()
	}

	service, err := registrations.NewService(deps)
	if err != nil {
		return err
	}
	controller := registrations.NewController(service, r.logger)

	registrations.SetupRegistrationRoutes(rg, controller, service.VerificationEnabled())
	return nil
}

// usersDirectory answers /verify_email from the pre-existing users table, cached in Redis when available
func (r *Router) usersDirectory() registrations.EmailDirectory {
	repo := users.NewRepository(r.db.GetPostgreSQL())
	if r.db.GetRedisClient() == nil {
		return repo
	}
	return users.NewCachedDirectory(repo, cache.NewService(r.db.GetRedisClient()), r.config.Redis.DirectoryCacheTTL, r.logger)
}
