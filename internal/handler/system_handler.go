package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-eval/internal/service"
)

// SystemHandler 系统信息处理器
type SystemHandler struct {
	svc *service.Services
}

// NewSystemHandler 创建系统信息处理器
func NewSystemHandler(svc *service.Services) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Router /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	Success(c, gin.H{
		"status":    "ok",
		"app":       h.svc.Config.App.Name,
		"version":   h.svc.Config.App.Version,
		"backend":   h.svc.Config.Store.Backend,
		"questions": len(h.svc.Data.Catalog.Questions),
		"models":    len(h.svc.Data.Registry.Models),
	})
}
