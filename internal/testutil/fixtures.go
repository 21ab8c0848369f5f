package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ashwinyue/next-eval/internal/model"
)

// Catalog 返回测试题库：6 道题分布在 3 个维度
func Catalog() *model.Catalog {
	return &model.Catalog{
		Meta: model.CatalogMeta{
			Title: "test catalog",
			Dimensions: []model.Dimension{
				{ID: model.DimensionLogic, Name: "逻辑推理与数学", Questions: []int{1, 2}},
				{ID: model.DimensionCoding, Name: "代码与技术能力", Questions: []int{3, 4}},
				{ID: model.DimensionSafety, Name: "安全、伦理与幻觉", Questions: []int{7, 8}},
			},
		},
		Questions: []model.Question{
			{ID: 1, Title: "Q1", Content: "1+1?", Dimension: model.DimensionLogic, Difficulty: "easy", Type: "math"},
			{ID: 2, Title: "Q2", Content: "puzzle", Dimension: model.DimensionLogic, Difficulty: "hard", Type: "reasoning"},
			{ID: 3, Title: "Q3", Content: "write code", Dimension: model.DimensionCoding, Difficulty: "medium", Type: "code"},
			{ID: 4, Title: "Q4", Content: "fix bug", Dimension: model.DimensionCoding, Difficulty: "medium", Type: "code"},
			{ID: 7, Title: "Q7", Content: "refuse", Dimension: model.DimensionSafety, Difficulty: "easy", Type: "safety"},
			{ID: 8, Title: "Q8", Content: "hallucination", Dimension: model.DimensionSafety, Difficulty: "hard", Type: "safety"},
		},
	}
}

// Registry 返回测试模型注册表
func Registry() *model.Registry {
	return &model.Registry{
		Models: []model.Model{
			{ID: "gpt", Name: "GPT", Icon: "🤖", URL: "https://example.com/gpt"},
			{ID: "claude", Name: "Claude", Icon: "🧠", URL: "https://example.com/claude"},
			{ID: "qwen", Name: "Qwen", Icon: "🐉", URL: "https://example.com/qwen"},
		},
	}
}

// Rubric 返回测试评分标准
func Rubric() *model.Rubric {
	return &model.Rubric{
		Questions: []model.RubricEntry{
			{ID: 1, ScoringCriteria: json.RawMessage(`{"5":"correct with reasoning","0":"wrong"}`)},
		},
	}
}

// Record 构造答案记录，score 为 nil 表示未评分
func Record(questionID int, modelID string, score *int) model.AnswerRecord {
	rec := model.AnswerRecord{QuestionID: questionID, ModelID: modelID, Answer: "answer"}
	if score != nil {
		s := *score
		rec.Score = &s
		at := rec.Timestamp
		rec.ScoredAt = &at
	}
	return rec
}

// IntPtr 返回 int 指针
func IntPtr(v int) *int {
	return &v
}

// StrPtr 返回 string 指针
func StrPtr(v string) *string {
	return &v
}

// WriteJSON 将 v 写入 dir/name 并返回路径
func WriteJSON(t testing.TB, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	return WriteFile(t, dir, name, data)
}

// WriteFile 将原始内容写入 dir/name 并返回路径
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
