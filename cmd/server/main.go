package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"feecc-workbench/config"
	"feecc-workbench/internal/api/handler"
	"feecc-workbench/internal/api/middleware"
	"feecc-workbench/internal/api/router"
	"feecc-workbench/internal/client"
	"feecc-workbench/internal/repository"
	"feecc-workbench/internal/service"
	"feecc-workbench/pkg/database"
	"feecc-workbench/pkg/instance"
	"feecc-workbench/pkg/jwt"
	applogger "feecc-workbench/pkg/logger"
	"feecc-workbench/pkg/redis"
	"feecc-workbench/pkg/tracing"
	"feecc-workbench/pkg/worker"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	baseLogger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer baseLogger.Sync()
	logger := applogger.ForWorkbench(baseLogger, cfg.Workbench.Number)

	logger.Info("工位启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("description", cfg.Workbench.Description),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 链路追踪
	shutdownTracing, err := tracing.Init(context.Background(), &cfg.Tracing, cfg.Workbench.Number, logger)
	if err != nil {
		logger.Fatal("初始化链路追踪失败", zap.Error(err))
	}

	// 4. 单实例锁：同一工位号只允许一个进程
	lock, err := instance.Acquire(cfg.Workbench.LockDir, cfg.Workbench.Number)
	if err != nil {
		logger.Fatal("获取工位实例锁失败", zap.Error(err))
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("释放工位实例锁失败", zap.Error(err))
		}
	}()

	// 5. 连接数据库并迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))

	if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 6. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，状态镜像与扫码限流将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 7. 后台任务池
	pool := worker.NewPool(&cfg.Worker, logger)
	pool.Start(context.Background())

	// 8. 外部协作服务
	deps := service.Deps{
		Collaborators: buildCollaborators(cfg, logger),
		Pool:          pool,
	}
	var limiter middleware.RateLimiter
	if rdb != nil {
		deps.Mirror = rdb
		limiter = rdb
	}

	// 9. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, deps, logger)
	h := handler.NewHandler(svc)
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 10. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, limiter, logger)

	// 11. 启动 HTTP 服务器（优雅关闭）
	// 状态流为长连接，WriteTimeout 为 0 时不限制
	// 请求上下文派生自 reqCtx，关闭时先取消以结束挂起的事件流
	reqCtx, cancelRequests := context.WithCancel(context.Background())
	srv := &http.Server{
		BaseContext:  func(net.Listener) context.Context { return reqCtx },
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 12. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cancelRequests()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 结束进行中的工序并保存产品
	if err := svc.Workbench.Shutdown(ctx); err != nil {
		logger.Error("工位关闭异常", zap.Error(err))
	}

	// 等待证书发布、打印等后台任务完成
	if err := pool.Shutdown(ctx); err != nil {
		logger.Error("后台任务未全部完成", zap.Error(err))
	}
	svc.Notifier.Close()

	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("链路追踪关闭异常", zap.Error(err))
	}

	logger.Info("工位已关闭")
}

// buildCollaborators 按配置创建外部协作服务适配器
// 未启用的适配器保持为 nil 接口
func buildCollaborators(cfg *config.Config, logger *zap.Logger) service.Collaborators {
	var c service.Collaborators
	if cam := client.NewCameraman(&cfg.Camera, nil, logger); cam != nil {
		c.Recorder = cam
	}
	if ipfs := client.NewIPFS(&cfg.IPFS, nil, logger); ipfs != nil {
		c.Publisher = ipfs
	}
	if rb := client.NewRobonomics(&cfg.Robonomics, nil, logger); rb != nil {
		c.Notarizer = rb
	}
	if yl := client.NewYourls(&cfg.Yourls, nil, logger); yl != nil {
		c.ShortLinker = yl
	}
	if pr := client.NewPrinter(&cfg.Printer, nil, logger); pr != nil {
		c.Printer = pr
	}
	return c
}
