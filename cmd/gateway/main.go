package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/eduplatform/gateway/api/swagger"
	"github.com/eduplatform/gateway/internal/handler"
	"github.com/eduplatform/gateway/internal/middleware"
	"github.com/eduplatform/gateway/internal/models"
	"github.com/eduplatform/gateway/internal/repository"
	"github.com/eduplatform/gateway/internal/service"
	"github.com/eduplatform/gateway/internal/upstream"
	"github.com/eduplatform/gateway/pkg/cache"
	"github.com/eduplatform/gateway/pkg/config"
	"github.com/eduplatform/gateway/pkg/logger"
	corsmiddleware "github.com/eduplatform/gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/eduplatform/gateway/pkg/middleware/requestid"
)

// @title EduPlatform Gateway
// @version 0.1.0
// @description Session-holding gateway in front of the LMS backend
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	sessionRepo := repository.NewSessionRepository(redisClient, logr, cfg.Session.TTL)
	taskRepo := repository.NewTaskStatusRepository(redisClient, logr)
	taskRepo.Start(context.Background())
	defer taskRepo.Stop()

	client := upstream.New(cfg.Upstream, logr)
	userAPI := upstream.NewAuthService(client)
	courseAPI := upstream.NewCourseService(client)
	assignmentAPI := upstream.NewAssignmentService(client)
	reportAPI := upstream.NewReportService(client)

	validate := validator.New()
	metricsService := service.NewMetricsService()
	client.SetObserver(metricsService)

	authService := service.NewAuthService(userAPI, sessionRepo, taskRepo, validate, logr, service.SessionConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Issuer: cfg.Session.Issuer,
	})
	client.SetInvalidation(authService.InvalidateSession)

	taskService := service.NewTaskService(assignmentAPI, taskRepo, validate, logr)
	dashboardService := service.NewDashboardService(courseAPI, taskService, logr)
	exportService := service.NewExportService(reportAPI, cfg.Export.MaxRows, logr)

	authHandler := handler.NewAuthHandler(authService, metricsService)
	userHandler := handler.NewUserHandler(authService)
	courseHandler := handler.NewCourseHandler(courseAPI)
	assignmentHandler := handler.NewAssignmentHandler(assignmentAPI)
	reportHandler := handler.NewReportHandler(reportAPI, exportService)
	taskHandler := handler.NewTaskHandler(taskService, metricsService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), authService, authHandler, userHandler, courseHandler, assignmentHandler, reportHandler, taskHandler, dashboardHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerRoutes(
	api *gin.RouterGroup,
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	courseHandler *handler.CourseHandler,
	assignmentHandler *handler.AssignmentHandler,
	reportHandler *handler.ReportHandler,
	taskHandler *handler.TaskHandler,
	dashboardHandler *handler.DashboardHandler,
) {
	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)

	guard := middleware.SessionGuard(authService)

	authed := api.Group("")
	authed.Use(guard)

	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)
	authed.PATCH("/users/:id", middleware.RBAC(middleware.Self, string(models.RoleAdmin)), userHandler.UpdateProfile)

	courses := authed.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/:id", courseHandler.Get)
	courses.POST("", middleware.RequireRoles(models.RoleLecturer, models.RoleAdmin), courseHandler.Create)
	courses.PATCH("/:id", middleware.RequireRoles(models.RoleLecturer, models.RoleAdmin), courseHandler.Update)
	courses.DELETE("/:id", middleware.RequireRoles(models.RoleLecturer, models.RoleAdmin), courseHandler.Delete)
	courses.POST("/:id/enroll", middleware.RequireRoles(models.RoleStudent), courseHandler.Enroll)
	courses.GET("/:id/materials", courseHandler.Materials)

	authed.GET("/enrollments", courseHandler.Enrollments)
	authed.GET("/materials", courseHandler.MaterialsByCourse)
	authed.POST("/enrollments", middleware.RequireRoles(models.RoleLecturer, models.RoleAdmin), courseHandler.EnrollStudent)

	assignments := authed.Group("/assignments")
	assignments.GET("", assignmentHandler.List)
	assignments.GET("/:id", assignmentHandler.Get)
	assignments.POST("", middleware.RequireRoles(models.RoleLecturer, models.RoleAdmin), assignmentHandler.Create)
	assignments.PATCH("/:id", middleware.RequireRoles(models.RoleLecturer, models.RoleAdmin), assignmentHandler.Update)
	assignments.DELETE("/:id", middleware.RequireRoles(models.RoleLecturer, models.RoleAdmin), assignmentHandler.Delete)

	reports := authed.Group("/reports")
	reports.GET("", reportHandler.List)
	reports.GET("/export", reportHandler.Export)
	reports.POST("", reportHandler.Create)
	reports.PATCH("/:id", reportHandler.Update)
	reports.DELETE("/:id", reportHandler.Delete)

	tasks := authed.Group("/tasks")
	tasks.GET("", taskHandler.List)
	tasks.PUT("/:id/status", taskHandler.SetStatus)

	authed.GET("/dashboard", dashboardHandler.Overview)
}
