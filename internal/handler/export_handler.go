package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-eval/internal/service/evaluation"
)

// ExportHandler 数据导出处理器
type ExportHandler struct {
	svc *evaluation.Service
}

// NewExportHandler 创建导出处理器
func NewExportHandler(svc *evaluation.Service) *ExportHandler {
	return &ExportHandler{svc: svc}
}

func attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}

// ExportJSON 导出完整答案文档
// @Summary 导出答案 JSON
// @Tags 导出
// @Produce json
// @Router /api/v1/export/answers.json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.ExportJSON(c.Request.Context(), &buf); err != nil {
		Error(c, err)
		return
	}
	attachment(c, "answers_export.json", "application/json; charset=utf-8", buf.Bytes())
}

// ExportCSV 导出评分 CSV
// @Summary 导出评分 CSV
// @Tags 导出
// @Produce text/csv
// @Router /api/v1/export/scores.csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(c.Request.Context(), &buf); err != nil {
		Error(c, err)
		return
	}
	attachment(c, "scores_export.csv", "text/csv; charset=utf-8", buf.Bytes())
}
