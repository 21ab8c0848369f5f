package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-eval/internal/model"
	"github.com/ashwinyue/next-eval/internal/service/evaluation"
)

// CatalogHandler 题库与模型处理器
type CatalogHandler struct {
	svc *evaluation.Service
}

// NewCatalogHandler 创建题库处理器
func NewCatalogHandler(svc *evaluation.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ListQuestions 列出题目
// @Summary 列出题目
// @Tags 题库
// @Produce json
// @Param dimension query string false "维度ID"
// @Router /api/v1/questions [get]
func (h *CatalogHandler) ListQuestions(c *gin.Context) {
	questions, err := h.svc.QuestionsByDimension(model.DimensionID(c.Query("dimension")))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, questions)
}

// GetQuestion 题目详情，附评分标准
// @Summary 题目详情
// @Tags 题库
// @Produce json
// @Param id path int true "题目ID"
// @Router /api/v1/questions/{id} [get]
func (h *CatalogHandler) GetQuestion(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}
	q, err := h.svc.Question(id)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, q)
}

// ListDimensions 列出维度
// @Summary 列出维度
// @Tags 题库
// @Produce json
// @Router /api/v1/dimensions [get]
func (h *CatalogHandler) ListDimensions(c *gin.Context) {
	Success(c, h.svc.Dimensions())
}

// ListModels 列出模型
// @Summary 列出模型
// @Tags 模型
// @Produce json
// @Router /api/v1/models [get]
func (h *CatalogHandler) ListModels(c *gin.Context) {
	Success(c, h.svc.Models())
}
