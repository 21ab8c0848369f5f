// Package model 提供测评相关的数据模型
package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MinScore 单题最低分
	MinScore = 0
	// MaxScore 单题满分
	MaxScore = 5

	// DefaultStoreTitle 答案文档默认标题
	DefaultStoreTitle = "模型回答记录"
	// DefaultStoreVersion 答案文档默认版本
	DefaultStoreVersion = "1.0"
)

// AnswerKey 答案记录的复合主键
type AnswerKey struct {
	QuestionID int    `json:"question_id"`
	ModelID    string `json:"model_id"`
}

func (k AnswerKey) String() string {
	return fmt.Sprintf("%d:%s", k.QuestionID, k.ModelID)
}

// AnswerRecord 某模型对某题的回答及评分
// ScoredAt 与 Score 同时存在或同时为空，只能通过 SetScore / ClearScore 修改
type AnswerRecord struct {
	QuestionID int      `json:"question_id"`
	ModelID    string   `json:"model_id"`
	Answer     string   `json:"answer"`
	Timestamp  ISOTime  `json:"timestamp"`
	Score      *int     `json:"score"`
	Comment    *string  `json:"comment"`
	ScoredAt   *ISOTime `json:"scored_at,omitempty"`
}

// NewAnswerRecord 创建未评分的答案记录
func NewAnswerRecord(questionID int, modelID, answer string, now time.Time) (*AnswerRecord, error) {
	if err := ValidateAnswer(answer); err != nil {
		return nil, err
	}
	return &AnswerRecord{
		QuestionID: questionID,
		ModelID:    modelID,
		Answer:     answer,
		Timestamp:  NewISOTime(now),
	}, nil
}

// Key 返回复合主键
func (r *AnswerRecord) Key() AnswerKey {
	return AnswerKey{QuestionID: r.QuestionID, ModelID: r.ModelID}
}

// IsScored 是否已评分
func (r *AnswerRecord) IsScored() bool {
	return r.Score != nil
}

// SetAnswer 覆盖答案文本，保留评分
func (r *AnswerRecord) SetAnswer(answer string, now time.Time) error {
	if err := ValidateAnswer(answer); err != nil {
		return err
	}
	r.Answer = answer
	r.Timestamp = NewISOTime(now)
	return nil
}

// SetScore 设置分数、评语和评分时间
func (r *AnswerRecord) SetScore(score int, comment *string, now time.Time) error {
	if err := ValidateScore(score); err != nil {
		return err
	}
	s := score
	at := NewISOTime(now)
	r.Score = &s
	r.Comment = comment
	r.ScoredAt = &at
	return nil
}

// ClearScore 清除分数、评语和评分时间
func (r *AnswerRecord) ClearScore() {
	r.Score = nil
	r.Comment = nil
	r.ScoredAt = nil
}

// Normalize 修复不满足 ScoredAt ⇔ Score 的旧数据
// 有分数无评分时间时以答案时间补齐；无分数时丢弃评分时间
func (r *AnswerRecord) Normalize() {
	switch {
	case r.Score == nil:
		r.ScoredAt = nil
	case r.ScoredAt == nil:
		at := r.Timestamp
		r.ScoredAt = &at
	}
}

// Validate 校验持久化记录的完整性
func (r *AnswerRecord) Validate() error {
	if strings.TrimSpace(r.ModelID) == "" {
		return fmt.Errorf("%w: model_id must not be empty", ErrValidation)
	}
	if err := ValidateAnswer(r.Answer); err != nil {
		return err
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp must be set", ErrValidation)
	}
	if r.Score != nil {
		return ValidateScore(*r.Score)
	}
	return nil
}

// ValidateAnswer 答案去除首尾空白后不能为空
func ValidateAnswer(answer string) error {
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("%w: answer must not be empty", ErrValidation)
	}
	return nil
}

// ValidateScore 分数必须在 [0, 5] 之间
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("%w: score %d out of range [%d, %d]", ErrValidation, score, MinScore, MaxScore)
	}
	return nil
}

// StoreMeta 答案文档元数据
type StoreMeta struct {
	Title       string  `json:"title"`
	Version     string  `json:"version"`
	CreatedAt   ISOTime `json:"created_at"`
	LastUpdated ISOTime `json:"last_updated"`
}

// NewStoreMeta 创建默认元数据
func NewStoreMeta(now time.Time) StoreMeta {
	return StoreMeta{
		Title:       DefaultStoreTitle,
		Version:     DefaultStoreVersion,
		CreatedAt:   NewISOTime(now),
		LastUpdated: NewISOTime(now),
	}
}

// Document 答案文档（持久化格式）
type Document struct {
	Meta    StoreMeta      `json:"meta"`
	Answers []AnswerRecord `json:"answers"`
}

// NewDocument 创建空文档
func NewDocument(now time.Time) *Document {
	return &Document{
		Meta:    NewStoreMeta(now),
		Answers: []AnswerRecord{},
	}
}

// Find 按复合主键线性查找，返回下标，不存在返回 -1
func (d *Document) Find(questionID int, modelID string) int {
	for i := range d.Answers {
		if d.Answers[i].QuestionID == questionID && d.Answers[i].ModelID == modelID {
			return i
		}
	}
	return -1
}

// Touch 更新最后修改时间
func (d *Document) Touch(now time.Time) {
	d.Meta.LastUpdated = NewISOTime(now)
}

// AnswerRow 数据库后端的答案行
type AnswerRow struct {
	ID         uint      `gorm:"primaryKey"`
	QuestionID int       `gorm:"not null;uniqueIndex:idx_answer_key"`
	ModelID    string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_answer_key"`
	Answer     string    `gorm:"type:text;not null"`
	Timestamp  time.Time `gorm:"not null"`
	Score      *int      `gorm:"index"`
	Comment    *string   `gorm:"type:text"`
	ScoredAt   *time.Time
}

// TableName 指定表名
func (AnswerRow) TableName() string {
	return "answers"
}

// ToRecord 转换为领域记录，行数据不完整或分数越界时返回 ErrMalformedStore
func (r *AnswerRow) ToRecord() (AnswerRecord, error) {
	rec := AnswerRecord{
		QuestionID: r.QuestionID,
		ModelID:    r.ModelID,
		Answer:     r.Answer,
		Timestamp:  NewISOTime(r.Timestamp),
		Score:      r.Score,
		Comment:    r.Comment,
	}
	if r.ScoredAt != nil {
		at := NewISOTime(*r.ScoredAt)
		rec.ScoredAt = &at
	}
	if err := rec.Validate(); err != nil {
		return AnswerRecord{}, fmt.Errorf("%w: row %d: %v", ErrMalformedStore, r.ID, err)
	}
	rec.Normalize()
	return rec, nil
}

// StoreMetaRow 数据库后端的元数据行（单行）
type StoreMetaRow struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"type:varchar(255)"`
	Version     string `gorm:"type:varchar(32)"`
	CreatedAt   time.Time
	LastUpdated time.Time
}

// TableName 指定表名
func (StoreMetaRow) TableName() string {
	return "store_meta"
}

// ToMeta 转换为领域元数据
func (m *StoreMetaRow) ToMeta() StoreMeta {
	return StoreMeta{
		Title:       m.Title,
		Version:     m.Version,
		CreatedAt:   NewISOTime(m.CreatedAt),
		LastUpdated: NewISOTime(m.LastUpdated),
	}
}
