// Package repository 定义答案/评分存储接口及其实现
// 接口抽象使 Service 层可以在 JSON 文件、数据库和 Redis 之间切换
package repository

import (
	"context"

	"github.com/ashwinyue/next-eval/internal/model"
)

// AnswerRepository 答案/评分存储
// 每个 (question_id, model_id) 至多一条记录
type AnswerRepository interface {
	// UpsertAnswer 保存答案；已存在时只覆盖答案和时间戳，保留分数与评语
	UpsertAnswer(ctx context.Context, questionID int, modelID, answer string) (*model.AnswerRecord, error)
	// SetScore 评分；无答案时返回 model.ErrRecordNotFound，不创建记录
	SetScore(ctx context.Context, questionID int, modelID string, score int, comment *string) (*model.AnswerRecord, error)
	// GetAnswer 按复合主键查找，不存在时返回 (nil, nil)
	GetAnswer(ctx context.Context, questionID int, modelID string) (*model.AnswerRecord, error)
	// GetModelScores 返回模型所有已评分题目的分数
	GetModelScores(ctx context.Context, modelID string) (map[int]int, error)
	// ListAnswers 按写入顺序返回全部记录
	ListAnswers(ctx context.Context) ([]model.AnswerRecord, error)
	// Document 返回元数据和全部记录
	Document(ctx context.Context) (*model.Document, error)
	// ClearAllAnswers 清空全部记录并重置元数据
	ClearAllAnswers(ctx context.Context) error
	// ClearAllScores 清除全部分数、评语和评分时间，保留答案
	ClearAllScores(ctx context.Context) error
	// Close 释放底层资源
	Close() error
}

var (
	_ AnswerRepository = (*JSONAnswerRepository)(nil)
	_ AnswerRepository = (*GormAnswerRepository)(nil)
	_ AnswerRepository = (*RedisAnswerRepository)(nil)
)

// scoresOf 从记录中提取某模型的分数
func scoresOf(records []model.AnswerRecord, modelID string) map[int]int {
	scores := make(map[int]int)
	for _, rec := range records {
		if rec.ModelID == modelID && rec.Score != nil {
			scores[rec.QuestionID] = *rec.Score
		}
	}
	return scores
}
