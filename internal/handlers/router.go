package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certchain/credential-service/internal/config"
	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/services"
	"github.com/certchain/credential-service/internal/utils"
)

type HandlerManager struct {
	registryHandler     *RegistryHandler
	issuanceHandler     *IssuanceHandler
	leaderboardHandler  *LeaderboardHandler
	verificationHandler *VerificationHandler
	eventHandler        *EventHandler
	notificationHandler *NotificationHandler
	dashboardHandler    *DashboardHandler
	authMiddleware      *JWTAuthMiddleware
	serviceManager      services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	cfg *config.Config,
	logger utils.Logger,
) *HandlerManager {
	authMiddleware := NewJWTAuthMiddleware(cfg.Auth, cfg.Environment, logger)

	return &HandlerManager{
		registryHandler:     NewRegistryHandler(serviceManager.Registry(), logger),
		issuanceHandler:     NewIssuanceHandler(serviceManager.Issuance(), logger),
		leaderboardHandler:  NewLeaderboardHandler(serviceManager.Leaderboard(), logger),
		verificationHandler: NewVerificationHandler(serviceManager.Verification(), logger),
		eventHandler:        NewEventHandler(serviceManager.Event(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		dashboardHandler:    NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:      authMiddleware,
		serviceManager:      serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(MetricsMiddleware())

	// Public routes: verification is the whole point of an on-chain
	// registry, leaderboard and event listings back the public site.
	public := router.Group("/api/v1")
	{
		public.GET("/verify/:query", hm.verificationHandler.Verify)
		public.GET("/leaderboard", hm.leaderboardHandler.GetLeaderboard)
		public.GET("/leaderboard/departments", hm.leaderboardHandler.GetDepartments)
		public.GET("/events", hm.eventHandler.ListEvents)
		public.GET("/events/:id", hm.eventHandler.GetEvent)
		public.POST("/auth/login", hm.authMiddleware.Login)
	}

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Registry routes - Admins only
		registry := v1.Group("/registry")
		registry.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			registry.POST("/students", hm.registryHandler.RegisterStudent)
			registry.POST("/students/import", hm.registryHandler.BulkImport)
			registry.GET("/students", hm.registryHandler.ListStudents)
			registry.GET("/students/export", hm.registryHandler.ExportStudents)
			registry.GET("/students/template", hm.registryHandler.DownloadTemplate)
			registry.GET("/students/:student_id", hm.registryHandler.GetStudent)
			registry.DELETE("/students", hm.registryHandler.WipeRegistry)
			registry.GET("/departments", hm.registryHandler.ListDepartments)
		}

		// Issuance routes - Admins only
		certificates := v1.Group("/certificates")
		certificates.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			certificates.POST("", hm.issuanceHandler.IssueSingle)
			certificates.POST("/batch", hm.issuanceHandler.IssueBatch)
			certificates.GET("", hm.issuanceHandler.ListIssued)
			certificates.DELETE("/:cert_id", hm.issuanceHandler.RevokeCertificate)
		}

		// Event management - registration is open to students, the rest
		// is admin territory
		eventRoutes := v1.Group("/events")
		{
			eventRoutes.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.eventHandler.CreateEvent)
			eventRoutes.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.eventHandler.DeleteEvent)
			eventRoutes.POST("/:id/registrations", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.eventHandler.RegisterForEvent)
			eventRoutes.DELETE("/:id/registrations/:student_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.eventHandler.CancelRegistration)
			eventRoutes.GET("/:id/registrations", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.eventHandler.ListParticipants)
			eventRoutes.GET("/:id/registrations/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.eventHandler.ExportParticipants)
		}

		// Notification routes - Admins only
		notifications := v1.Group("/notifications")
		notifications.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			notifications.GET("", hm.notificationHandler.ListNotifications)
			notifications.GET("/unread-count", hm.notificationHandler.UnreadCount)
			notifications.POST("/:id/read", hm.notificationHandler.MarkRead)
			notifications.POST("/read-all", hm.notificationHandler.MarkAllRead)
			notifications.DELETE("/:id", hm.notificationHandler.DeleteNotification)
			notifications.DELETE("", hm.notificationHandler.ClearNotifications)
		}

		// Dashboard routes - Admins only
		dashboard := v1.Group("/dashboard")
		dashboard.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			dashboard.GET("/stats", hm.dashboardHandler.GetPlatformStats)
		}

		// Student routes
		students := v1.Group("/students")
		{
			students.GET("/me/portfolio", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.dashboardHandler.GetMyPortfolio)
			students.GET("/:student_id/portfolio", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.dashboardHandler.GetStudentPortfolio)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "credential-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "credential-service",
		})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", MetricsHandler())
}
