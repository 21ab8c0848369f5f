package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashwinyue/next-eval/internal/catalog"
	"github.com/ashwinyue/next-eval/internal/config"
	"github.com/ashwinyue/next-eval/internal/handler"
	"github.com/ashwinyue/next-eval/internal/logger"
	"github.com/ashwinyue/next-eval/internal/monitoring"
	"github.com/ashwinyue/next-eval/internal/repository"
	"github.com/ashwinyue/next-eval/internal/router"
	"github.com/ashwinyue/next-eval/internal/service"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	// 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	// 加载题库、模型注册表和评分标准
	data, err := catalog.Load(cfg.Data.QuestionsFile, cfg.Data.ModelsFile, cfg.Data.RubricFile)
	if err != nil {
		zlog.Fatal("Failed to load catalog", zap.Error(err))
	}
	zlog.Info("Catalog loaded",
		zap.Int("questions", len(data.Catalog.Questions)),
		zap.Int("dimensions", len(data.Catalog.Meta.Dimensions)),
		zap.Int("models", len(data.Registry.Models)),
		zap.Int("rubric", len(data.Rubric.Questions)),
	)

	// 初始化答案存储
	repos, err := repository.NewRepositories(context.Background(), cfg)
	if err != nil {
		zlog.Fatal("Failed to init answer store", zap.Error(err))
	}
	defer repos.Close()
	zlog.Info("Answer store ready", zap.String("backend", string(repos.Backend)))

	// 初始化各层
	metrics := monitoring.New()
	services, err := service.NewServices(repos, data, cfg, metrics, zlog)
	if err != nil {
		zlog.Fatal("Failed to init services", zap.Error(err))
	}
	handlers := handler.NewHandlers(services)

	// 初始化路由
	r := router.SetupRouter(handlers, services, zlog)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 启动服务器
	go func() {
		zlog.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server error", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}
