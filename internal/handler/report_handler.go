package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-eval/internal/service/evaluation"
)

// ReportHandler 统计报表处理器
type ReportHandler struct {
	svc *evaluation.Service
}

// NewReportHandler 创建报表处理器
func NewReportHandler(svc *evaluation.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func respond[T any](c *gin.Context, v T, err error) {
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, v)
}

// Stats 完成度统计
// @Summary 完成度统计
// @Tags 报表
// @Router /api/v1/reports/stats [get]
func (h *ReportHandler) Stats(c *gin.Context) {
	v, err := h.svc.Stats(c.Request.Context())
	respond(c, v, err)
}

// Leaderboard 排行榜
// @Summary 排行榜
// @Tags 报表
// @Router /api/v1/reports/leaderboard [get]
func (h *ReportHandler) Leaderboard(c *gin.Context) {
	v, err := h.svc.Leaderboard(c.Request.Context())
	respond(c, v, err)
}

// Totals 各模型总分
// @Summary 模型总分
// @Tags 报表
// @Router /api/v1/reports/totals [get]
func (h *ReportHandler) Totals(c *gin.Context) {
	v, err := h.svc.Totals(c.Request.Context())
	respond(c, v, err)
}

// Dimensions 维度汇总
// @Summary 维度汇总
// @Tags 报表
// @Router /api/v1/reports/dimensions [get]
func (h *ReportHandler) Dimensions(c *gin.Context) {
	v, err := h.svc.DimensionRollups(c.Request.Context())
	respond(c, v, err)
}

// Matrix 作答状态矩阵
// @Summary 作答状态矩阵
// @Tags 报表
// @Router /api/v1/reports/matrix [get]
func (h *ReportHandler) Matrix(c *gin.Context) {
	v, err := h.svc.StatusMatrix(c.Request.Context())
	respond(c, v, err)
}

// Table 得分表
// @Summary 得分表
// @Tags 报表
// @Router /api/v1/reports/table [get]
func (h *ReportHandler) Table(c *gin.Context) {
	v, err := h.svc.ScoreTable(c.Request.Context())
	respond(c, v, err)
}

// Distribution 分数分布
// @Summary 分数分布
// @Tags 报表
// @Router /api/v1/reports/distribution [get]
func (h *ReportHandler) Distribution(c *gin.Context) {
	v, err := h.svc.ScoreDistribution(c.Request.Context())
	respond(c, v, err)
}

// CompareQuestion 题目横向对比
// @Summary 题目横向对比
// @Tags 报表
// @Param id path int true "题目ID"
// @Router /api/v1/reports/questions/{id} [get]
func (h *ReportHandler) CompareQuestion(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.CompareQuestion(c.Request.Context(), id)
	respond(c, v, err)
}
