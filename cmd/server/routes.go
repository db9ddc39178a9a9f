package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/ideahub/backend/internal/handlers"
	"github.com/huangang/ideahub/backend/internal/middleware"
	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/pkg/logger"
	"github.com/huangang/ideahub/backend/pkg/metrics"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) *middleware.RateLimiter {
	r.Use(middleware.RequestID(), logger.GinLogger(), logger.GinRecovery(), metrics.Middleware())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(svc.cfg.Server.CORSOrigins...))

	db := models.GetDB()

	// Rate limiter for credential endpoints
	authLimiter := middleware.NewRateLimiter(5, 10)

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/health", healthHandler.CheckHealth)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.Use(middleware.AuditLog())
	{
		// Auth routes (public)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/signup", svc.authHandler.Signup)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.POST("/logout", svc.authHandler.Logout)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.PUT("/auth/password", svc.authHandler.ChangePassword)

			applicationHandler := handlers.NewApplicationHandler(db, svc.notifications)
			userHandler := handlers.NewUserHandler(db)
			protected.GET("/users", userHandler.List)
			protected.GET("/users/me/applications", applicationHandler.ListMine)
			protected.GET("/users/:id", userHandler.Get)
			protected.PUT("/users/:id", userHandler.Update)

			projectHandler := handlers.NewProjectHandler(db)
			protected.GET("/projects", projectHandler.List)
			protected.GET("/projects/:id", projectHandler.GetByID)
			protected.POST("/projects", projectHandler.Create)
			protected.PUT("/projects/:id", projectHandler.Update)
			protected.DELETE("/projects/:id", projectHandler.Delete)

			taskHandler := handlers.NewTaskHandler(db)
			protected.GET("/projects/:id/tasks", taskHandler.Board)
			protected.POST("/projects/:id/tasks", taskHandler.Create)
			protected.PUT("/tasks/:id/status", taskHandler.UpdateStatus)

			protected.GET("/projects/:id/applications", applicationHandler.ListForProject)
			protected.POST("/projects/:id/applications", applicationHandler.Submit)
			protected.PUT("/applications/:id/status", applicationHandler.Decide)

			messageHandler := handlers.NewMessageHandler(db, &svc.cfg.Chat)
			protected.GET("/projects/:id/chat", messageHandler.ListChat)
			protected.POST("/projects/:id/chat", messageHandler.PostChat)
			protected.POST("/messages", messageHandler.SendDirect)
			protected.GET("/messages/conversations", messageHandler.Conversations)
			protected.GET("/messages/:userID", messageHandler.Conversation)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			systemLogHandler := handlers.NewSystemLogHandler(db)
			admin.GET("/system-logs", systemLogHandler.List)
			admin.GET("/system-logs/modules", systemLogHandler.GetModules)
		}
	}

	return authLimiter
}
