package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/drrm-training-api/internal/handler"
	"github.com/noah-isme/drrm-training-api/internal/middleware"
	"github.com/noah-isme/drrm-training-api/internal/models"
	"github.com/noah-isme/drrm-training-api/internal/repository"
	"github.com/noah-isme/drrm-training-api/internal/service"
	"github.com/noah-isme/drrm-training-api/pkg/config"
	"github.com/noah-isme/drrm-training-api/pkg/logger"
	"github.com/noah-isme/drrm-training-api/pkg/middleware/cors"
	"github.com/noah-isme/drrm-training-api/pkg/middleware/requestid"
	"github.com/noah-isme/drrm-training-api/pkg/realtime"
)

type routerDeps struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *service.MetricsService
	auth    *service.AuthService
	audit   *repository.AuditRepository
	hub     *realtime.Hub

	authH      *handler.AuthHandler
	programH   *handler.ProgramHandler
	calendarH  *handler.CalendarHandler
	applicantH *handler.ApplicantHandler
	coverageH  *handler.CoverageHandler
	configH    *handler.ConfigurationHandler
	reportH    *handler.ReportHandler
	metricsH   *handler.MetricsHandler
}

func newRouter(d routerDeps) *gin.Engine {
	cfg := d.cfg
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(d.logger))
	router.Use(cors.New(cfg.CORS.AllowedOrigins))
	router.Use(middleware.Metrics(d.metrics))
	router.Use(middleware.WithResponseMeta())

	router.GET("/metrics", d.metricsH.Prometheus)
	router.GET("/health", d.metricsH.Health)
	router.GET("/ready", d.metricsH.Ready)
	if cfg.Realtime.Enabled && d.hub != nil {
		router.GET("/ws", realtime.Handler(d.hub, cfg.Realtime.AllowedOrigins))
	}
	if cfg.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", d.authH.Login)
	authGroup.GET("/me", middleware.JWT(d.auth), d.authH.Me)

	api.GET("/export/:token",
		middleware.RequireFeature("reports", cfg.Reports.Enabled),
		middleware.Audit(d.audit, d.logger, models.AuditActionReportFetch, "report", ""),
		d.reportH.Download,
	)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.auth))

	readers := middleware.RequireRoles(middleware.AnyRole...)
	managers := middleware.RequireRoles(middleware.ManagerRoles...)
	enrolment := middleware.RequireRoles(append(append([]models.UserRole{}, middleware.ManagerRoles...), models.RoleParticipant)...)

	calendar := secured.Group("/calendar", middleware.RequireFeature("calendar", cfg.Calendar.Enabled))
	calendar.GET("/events", readers, d.calendarH.Events)

	programs := secured.Group("/programs")
	programs.GET("", readers, d.programH.List)
	programs.POST("", managers, d.programH.Create)
	programs.GET("/:id", readers, d.programH.Get)
	programs.GET("/:id/dates", readers, d.programH.Dates)
	programs.PUT("/:id", managers, d.programH.Update)
	programs.DELETE("/:id", managers, d.programH.Delete)

	applicants := secured.Group("/applicants")
	applicants.GET("", readers, d.applicantH.List)
	applicants.POST("", enrolment, d.applicantH.Create)

	coverage := secured.Group("/coverage", middleware.RequireFeature("coverage", cfg.Coverage.Enabled))
	coverage.GET("", readers, d.coverageH.Summary)

	configuration := secured.Group("/configuration")
	configuration.GET("", readers, d.configH.List)
	configuration.PUT("/bulk", managers, d.configH.BulkUpdate)
	configuration.GET("/:key", readers, d.configH.Get)
	configuration.PUT("/:key", managers, d.configH.Update)

	reports := secured.Group("/reports", middleware.RequireFeature("reports", cfg.Reports.Enabled), managers)
	reports.POST("/generate", d.reportH.Generate)
	reports.GET("/status/:id", d.reportH.Status)

	return router
}
