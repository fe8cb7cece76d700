package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"feecc-workbench/config"
	"feecc-workbench/internal/api/handler"
	"feecc-workbench/internal/api/middleware"
	"feecc-workbench/pkg/jwt"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时扫码事件不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "workbench": cfg.Workbench.Number})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 工位状态机
		bench := v1.Group("/workbench")
		{
			bench.GET("/status", h.Workbench.Status)
			bench.GET("/status/stream", h.Workbench.StatusStream)
			bench.POST("/log-in", h.Workbench.LogIn)
			bench.POST("/log-out", h.Workbench.LogOut)
			bench.POST("/assign-unit/:id", h.Workbench.AssignUnit)
			bench.POST("/remove-unit", h.Workbench.RemoveUnit)
			bench.POST("/assign-component/:id", h.Workbench.AssignComponent)
			bench.POST("/start-operation", h.Workbench.StartOperation)
			bench.POST("/end-operation", h.Workbench.EndOperation)
			bench.POST("/upload-certificate", h.Workbench.UploadCertificate)

			// 扫码设备事件（需要设备令牌）
			bench.POST("/hid-event",
				middleware.DeviceAuth(jwtMgr, cfg.Workbench.Number),
				middleware.DeviceRateLimit(limiter, cfg.Workbench.Number, cfg.HID.RateLimit, cfg.HID.RateWindow),
				h.Workbench.HIDEvent,
			)
		}

		// 产品模块
		units := v1.Group("/units")
		{
			units.POST("", h.Unit.CreateUnit)
			units.GET("", h.Unit.ListUnits)
			units.GET("/:id", h.Unit.GetUnit)
			units.POST("/:id/revision", h.Unit.StartRevision)
			units.POST("/:id/finalize", h.Unit.Finalize)
		}

		// 生产方案模块
		schemas := v1.Group("/schemas")
		{
			schemas.GET("", h.Schema.ListSchemas)
			schemas.POST("", h.Schema.UpsertSchema)
			schemas.GET("/:id", h.Schema.GetSchema)
		}

		// 员工模块
		employees := v1.Group("/employees")
		{
			employees.POST("", h.Employee.UpsertEmployee)
			employees.GET("/:card_id", h.Employee.GetEmployee)
		}

		// 操作员通知
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.Notification.Stream)
			notifications.POST("", h.Notification.Push)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/units", h.Export.ExportUnits)
		}
	}

	return r
}
