package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashwinyue/next-eval/internal/handler"
	"github.com/ashwinyue/next-eval/internal/middleware"
	"github.com/ashwinyue/next-eval/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.CORSMiddleware(svc.Config.Server.AllowOrigins))
	if svc.Metrics != nil {
		r.Use(svc.Metrics.MetricsMiddleware())
		r.GET("/metrics", svc.Metrics.PrometheusHandler())
	}

	// 健康检查
	r.GET("/health", h.System.Health)

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 题库
		v1.GET("/questions", h.Catalog.ListQuestions)
		v1.GET("/questions/:id", h.Catalog.GetQuestion)
		v1.GET("/dimensions", h.Catalog.ListDimensions)

		// 模型
		models := v1.Group("/models")
		{
			models.GET("", h.Catalog.ListModels)
			models.GET("/:id/scores", h.Answer.GetModelScores)
			models.GET("/:id/summary", h.Answer.GetModelSummary)
		}

		// 答案与评分
		answers := v1.Group("/answers/:question_id/:model_id")
		{
			answers.PUT("", h.Answer.SaveAnswer)
			answers.GET("", h.Answer.GetAnswer)
			answers.PUT("/score", h.Answer.SaveScore)
		}

		// 统计报表
		reports := v1.Group("/reports")
		{
			reports.GET("/stats", h.Report.Stats)
			reports.GET("/leaderboard", h.Report.Leaderboard)
			reports.GET("/totals", h.Report.Totals)
			reports.GET("/dimensions", h.Report.Dimensions)
			reports.GET("/matrix", h.Report.Matrix)
			reports.GET("/table", h.Report.Table)
			reports.GET("/distribution", h.Report.Distribution)
			reports.GET("/questions/:id", h.Report.CompareQuestion)
		}

		// 导出
		export := v1.Group("/export")
		{
			export.GET("/answers.json", h.Export.ExportJSON)
			export.GET("/scores.csv", h.Export.ExportCSV)
		}

		// 数据管理
		admin := v1.Group("/admin")
		{
			admin.GET("/files", h.Admin.FileStatus)
			admin.GET("/backups", h.Admin.ListBackups)
			admin.POST("/backups", h.Admin.CreateBackup)
			admin.DELETE("/answers", h.Admin.ClearAnswers)
			admin.DELETE("/scores", h.Admin.ClearScores)
		}
	}

	return r
}
