package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-eval/internal/service/evaluation"
)

// AdminHandler 数据管理处理器
type AdminHandler struct {
	svc *evaluation.Service
}

// NewAdminHandler 创建数据管理处理器
func NewAdminHandler(svc *evaluation.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// FileStatus 数据文件状态
// @Summary 数据文件状态
// @Tags 管理
// @Router /api/v1/admin/files [get]
func (h *AdminHandler) FileStatus(c *gin.Context) {
	Success(c, h.svc.FileStatus())
}

// ListBackups 列出快照
// @Summary 列出快照
// @Tags 管理
// @Router /api/v1/admin/backups [get]
func (h *AdminHandler) ListBackups(c *gin.Context) {
	objects, err := h.svc.ListBackups(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"enabled": h.svc.BackupsEnabled(), "backups": objects})
}

// CreateBackup 手动保存快照
// @Summary 保存快照
// @Tags 管理
// @Router /api/v1/admin/backups [post]
func (h *AdminHandler) CreateBackup(c *gin.Context) {
	name, err := h.svc.Backup(c.Request.Context(), evaluation.ReasonManual)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, gin.H{"backup": name})
}

// ClearAnswers 清空全部答案
// @Summary 清空全部答案
// @Tags 管理
// @Router /api/v1/admin/answers [delete]
func (h *AdminHandler) ClearAnswers(c *gin.Context) {
	name, err := h.svc.ClearAllAnswers(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"backup": name})
}

// ClearScores 清空全部评分
// @Summary 清空全部评分
// @Tags 管理
// @Router /api/v1/admin/scores [delete]
func (h *AdminHandler) ClearScores(c *gin.Context) {
	name, err := h.svc.ClearAllScores(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"backup": name})
}
