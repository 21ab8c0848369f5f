package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-eval/internal/model"
	"github.com/ashwinyue/next-eval/internal/service/evaluation"
	"github.com/ashwinyue/next-eval/internal/service/report"
)

// AnswerHandler 答案与评分处理器
type AnswerHandler struct {
	svc *evaluation.Service
}

// NewAnswerHandler 创建答案处理器
func NewAnswerHandler(svc *evaluation.Service) *AnswerHandler {
	return &AnswerHandler{svc: svc}
}

// SaveAnswerRequest 保存答案请求
type SaveAnswerRequest struct {
	Answer string `json:"answer"`
}

// SaveScoreRequest 评分请求
type SaveScoreRequest struct {
	Score   *int    `json:"score" binding:"required"`
	Comment *string `json:"comment"`
}

func answerKey(c *gin.Context) (int, string, bool) {
	qid, ok := paramInt(c, "question_id")
	if !ok {
		return 0, "", false
	}
	return qid, c.Param("model_id"), true
}

// SaveAnswer 保存模型答案
// @Summary 保存答案
// @Tags 答案
// @Accept json
// @Produce json
// @Param question_id path int true "题目ID"
// @Param model_id path string true "模型ID"
// @Param request body SaveAnswerRequest true "答案"
// @Router /api/v1/answers/{question_id}/{model_id} [put]
func (h *AnswerHandler) SaveAnswer(c *gin.Context) {
	qid, mid, ok := answerKey(c)
	if !ok {
		return
	}

	var req SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	rec, err := h.svc.SaveAnswer(c.Request.Context(), qid, mid, req.Answer)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, rec)
}

// GetAnswer 查询答案
// @Summary 查询答案
// @Tags 答案
// @Produce json
// @Param question_id path int true "题目ID"
// @Param model_id path string true "模型ID"
// @Router /api/v1/answers/{question_id}/{model_id} [get]
func (h *AnswerHandler) GetAnswer(c *gin.Context) {
	qid, mid, ok := answerKey(c)
	if !ok {
		return
	}

	rec, err := h.svc.GetAnswer(c.Request.Context(), qid, mid)
	if err != nil {
		Error(c, err)
		return
	}
	if rec == nil {
		Error(c, fmt.Errorf("answer %s: %w", model.AnswerKey{QuestionID: qid, ModelID: mid}, model.ErrRecordNotFound))
		return
	}
	Success(c, rec)
}

// SaveScore 评分
// @Summary 评分
// @Tags 答案
// @Accept json
// @Produce json
// @Param question_id path int true "题目ID"
// @Param model_id path string true "模型ID"
// @Param request body SaveScoreRequest true "分数与评语"
// @Router /api/v1/answers/{question_id}/{model_id}/score [put]
func (h *AnswerHandler) SaveScore(c *gin.Context) {
	qid, mid, ok := answerKey(c)
	if !ok {
		return
	}

	var req SaveScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	rec, err := h.svc.SaveScore(c.Request.Context(), qid, mid, *req.Score, req.Comment)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, rec)
}

// GetModelScores 模型各题分数
// @Summary 模型分数
// @Tags 模型
// @Produce json
// @Param id path string true "模型ID"
// @Router /api/v1/models/{id}/scores [get]
func (h *AnswerHandler) GetModelScores(c *gin.Context) {
	scores, err := h.svc.GetModelScores(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, scores)
}

// GetModelSummary 模型评分概览
// @Summary 模型评分概览
// @Tags 模型
// @Produce json
// @Param id path string true "模型ID"
// @Param status query string false "all | scored | unscored"
// @Router /api/v1/models/{id}/summary [get]
func (h *AnswerHandler) GetModelSummary(c *gin.Context) {
	filter := report.ParseScoreFilter(c.DefaultQuery("status", string(report.FilterAll)))
	summary, err := h.svc.ModelSummary(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, summary)
}
