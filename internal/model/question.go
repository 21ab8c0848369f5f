package model

import "encoding/json"

// DimensionID 评测维度标识
type DimensionID string

const (
	DimensionLogic    DimensionID = "logic"    // 逻辑推理与数学
	DimensionCoding   DimensionID = "coding"   // 代码与技术能力
	DimensionLanguage DimensionID = "language" // 语言理解与创作
	DimensionToolUse  DimensionID = "tool_use" // 工具调用与格式化
	DimensionSafety   DimensionID = "safety"   // 安全、伦理与幻觉
)

// Question 测评题目
type Question struct {
	ID         int         `json:"id"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	Dimension  DimensionID `json:"dimension"`
	Difficulty string      `json:"difficulty"`
	Type       string      `json:"type"`
}

// Dimension 评测维度，题目按维度划分且互不重叠
type Dimension struct {
	ID        DimensionID `json:"id"`
	Name      string      `json:"name"`
	Questions []int       `json:"questions"`
}

// CatalogMeta 题库元数据
type CatalogMeta struct {
	Title      string      `json:"title,omitempty"`
	Version    string      `json:"version,omitempty"`
	Dimensions []Dimension `json:"dimensions"`
}

// Catalog 题库（questions.json）
type Catalog struct {
	Meta      CatalogMeta `json:"meta"`
	Questions []Question  `json:"questions"`
}

// Question 按 ID 查找题目
func (c *Catalog) Question(id int) (*Question, bool) {
	for i := range c.Questions {
		if c.Questions[i].ID == id {
			return &c.Questions[i], true
		}
	}
	return nil, false
}

// HasQuestion 题目是否存在
func (c *Catalog) HasQuestion(id int) bool {
	_, ok := c.Question(id)
	return ok
}

// Dimension 按 ID 查找维度
func (c *Catalog) Dimension(id DimensionID) (*Dimension, bool) {
	for i := range c.Meta.Dimensions {
		if c.Meta.Dimensions[i].ID == id {
			return &c.Meta.Dimensions[i], true
		}
	}
	return nil, false
}

// DimensionName 维度显示名，未定义时返回 ID
func (c *Catalog) DimensionName(id DimensionID) string {
	if d, ok := c.Dimension(id); ok && d.Name != "" {
		return d.Name
	}
	return string(id)
}

// MaxTotalScore 全部题目的满分
func (c *Catalog) MaxTotalScore() int {
	return len(c.Questions) * MaxScore
}

// RubricEntry 单题评分标准
type RubricEntry struct {
	ID              int             `json:"id"`
	ScoringCriteria json.RawMessage `json:"scoring_criteria"`
}

// Rubric 评分标准（scoring_rubric.json），仅用于展示
type Rubric struct {
	Questions []RubricEntry `json:"questions"`
}

// Criteria 返回题目的评分标准
func (r *Rubric) Criteria(questionID int) (json.RawMessage, bool) {
	if r == nil {
		return nil, false
	}
	for _, q := range r.Questions {
		if q.ID == questionID {
			return q.ScoringCriteria, true
		}
	}
	return nil, false
}
