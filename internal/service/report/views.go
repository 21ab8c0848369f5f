package report

import (
	"sort"

	"github.com/ashwinyue/next-eval/internal/model"
)

// CellStatus 答案/评分状态
type CellStatus string

const (
	StatusMissing  CellStatus = "missing"  // 无答案
	StatusAnswered CellStatus = "answered" // 有答案未评分
	StatusScored   CellStatus = "scored"   // 已评分
)

// ScoreFilter 题目筛选条件
type ScoreFilter string

const (
	FilterAll      ScoreFilter = "all"
	FilterScored   ScoreFilter = "scored"
	FilterUnscored ScoreFilter = "unscored"
)

// ParseScoreFilter 解析筛选条件，未知值视为 all
func ParseScoreFilter(s string) ScoreFilter {
	switch ScoreFilter(s) {
	case FilterScored, FilterUnscored:
		return ScoreFilter(s)
	default:
		return FilterAll
	}
}

// ModelAnswer 某题下单个模型的回答
type ModelAnswer struct {
	ModelID   string         `json:"model_id"`
	ModelName string         `json:"model_name"`
	ModelIcon string         `json:"model_icon"`
	Answer    string         `json:"answer"`
	Timestamp model.ISOTime  `json:"timestamp"`
	Score     *int           `json:"score"`
	Comment   *string        `json:"comment"`
	ScoredAt  *model.ISOTime `json:"scored_at,omitempty"`
}

// QuestionComparison 同一题目的横向对比
type QuestionComparison struct {
	Question      model.Question `json:"question"`
	DimensionName string         `json:"dimension_name"`
	Answers       []ModelAnswer  `json:"answers"`
}

// StatusCell 状态矩阵单元格
type StatusCell struct {
	QuestionID int        `json:"question_id"`
	Status     CellStatus `json:"status"`
	Score      *int       `json:"score,omitempty"`
}

// StatusRow 状态矩阵中的一行（一个模型）
type StatusRow struct {
	ModelID string       `json:"model_id"`
	Name    string       `json:"name"`
	Icon    string       `json:"icon"`
	Cells   []StatusCell `json:"cells"`
}

// ScoreTableRow 得分表中的一行（一道题）
type ScoreTableRow struct {
	QuestionID    int             `json:"question_id"`
	DimensionName string          `json:"dimension_name"`
	Scores        map[string]*int `json:"scores"`
}

// ScoreTable 得分表：题目 × 模型，附总分行
type ScoreTable struct {
	Models []string        `json:"models"`
	Rows   []ScoreTableRow `json:"rows"`
	Totals map[string]int  `json:"totals"`
}

// Distribution 模型的分数分布，Counts[i] 为得 i 分的题数
type Distribution struct {
	ModelID string                  `json:"model_id"`
	Name    string                  `json:"name"`
	Counts  [model.MaxScore + 1]int `json:"counts"`
}

// QuestionStatus 评分页中的题目状态
type QuestionStatus struct {
	Question model.Question      `json:"question"`
	Answer   *model.AnswerRecord `json:"answer,omitempty"`
}

// ModelSummary 单个模型的评分概览
type ModelSummary struct {
	Model         model.Model      `json:"model"`
	ScoredCount   int              `json:"scored_count"`
	TotalScore    int              `json:"total_score"`
	MaxTotalScore int              `json:"max_total_score"`
	Average       float64          `json:"average"`
	Questions     []QuestionStatus `json:"questions"`
}

func index(answers []model.AnswerRecord) map[model.AnswerKey]*model.AnswerRecord {
	idx := make(map[model.AnswerKey]*model.AnswerRecord, len(answers))
	for i := range answers {
		idx[answers[i].Key()] = &answers[i]
	}
	return idx
}

// CompareQuestion 列出各模型对同一题的回答，按分数降序，未评分排最后，同分保持注册表顺序
func CompareQuestion(answers []model.AnswerRecord, catalog *model.Catalog, registry *model.Registry, questionID int) (*QuestionComparison, bool) {
	q, ok := catalog.Question(questionID)
	if !ok {
		return nil, false
	}
	idx := index(answers)

	cmp := &QuestionComparison{
		Question:      *q,
		DimensionName: catalog.DimensionName(q.Dimension),
		Answers:       []ModelAnswer{},
	}
	for _, m := range registry.Models {
		rec, ok := idx[model.AnswerKey{QuestionID: questionID, ModelID: m.ID}]
		if !ok {
			continue
		}
		cmp.Answers = append(cmp.Answers, ModelAnswer{
			ModelID:   m.ID,
			ModelName: m.Name,
			ModelIcon: m.Icon,
			Answer:    rec.Answer,
			Timestamp: rec.Timestamp,
			Score:     rec.Score,
			Comment:   rec.Comment,
			ScoredAt:  rec.ScoredAt,
		})
	}

	sort.SliceStable(cmp.Answers, func(i, j int) bool {
		return scoreOrMinus(cmp.Answers[i].Score) > scoreOrMinus(cmp.Answers[j].Score)
	})
	return cmp, true
}

func scoreOrMinus(s *int) int {
	if s == nil {
		return -1
	}
	return *s
}

// StatusMatrix 模型 × 题目的作答/评分状态
func StatusMatrix(answers []model.AnswerRecord, catalog *model.Catalog, registry *model.Registry) []StatusRow {
	idx := index(answers)
	rows := make([]StatusRow, 0, len(registry.Models))
	for _, m := range registry.Models {
		row := StatusRow{ModelID: m.ID, Name: m.Name, Icon: m.Icon, Cells: make([]StatusCell, 0, len(catalog.Questions))}
		for _, q := range catalog.Questions {
			cell := StatusCell{QuestionID: q.ID, Status: StatusMissing}
			if rec, ok := idx[model.AnswerKey{QuestionID: q.ID, ModelID: m.ID}]; ok {
				cell.Status = StatusAnswered
				if rec.Score != nil {
					cell.Status = StatusScored
					cell.Score = rec.Score
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildScoreTable 生成得分表，只包含至少有一条答案的模型
func BuildScoreTable(answers []model.AnswerRecord, catalog *model.Catalog, registry *model.Registry) ScoreTable {
	totals := TotalsByModel(answers, registry)
	table := ScoreTable{
		Models: []string{},
		Rows:   make([]ScoreTableRow, 0, len(catalog.Questions)),
		Totals: make(map[string]int),
	}
	for _, t := range totals {
		if t.Answered == 0 {
			continue
		}
		table.Models = append(table.Models, t.ModelID)
		table.Totals[t.ModelID] = t.Total
	}

	for _, q := range catalog.Questions {
		row := ScoreTableRow{
			QuestionID:    q.ID,
			DimensionName: catalog.DimensionName(q.Dimension),
			Scores:        make(map[string]*int, len(table.Models)),
		}
		for _, t := range totals {
			if t.Answered == 0 {
				continue
			}
			if s, ok := t.Scores[q.ID]; ok {
				v := s
				row.Scores[t.ModelID] = &v
			} else {
				row.Scores[t.ModelID] = nil
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// ScoreDistribution 每个模型的分数分布，越界分数不计入
func ScoreDistribution(answers []model.AnswerRecord, registry *model.Registry) []Distribution {
	dists := make([]Distribution, 0, len(registry.Models))
	for _, t := range TotalsByModel(answers, registry) {
		d := Distribution{ModelID: t.ModelID, Name: t.Name}
		for _, s := range t.Scores {
			if s < model.MinScore || s > model.MaxScore {
				continue
			}
			d.Counts[s]++
		}
		dists = append(dists, d)
	}
	return dists
}

// SummarizeModel 单个模型的评分概览，questions 按 filter 筛选
func SummarizeModel(answers []model.AnswerRecord, catalog *model.Catalog, m model.Model, filter ScoreFilter) ModelSummary {
	idx := index(answers)
	summary := ModelSummary{
		Model:         m,
		MaxTotalScore: catalog.MaxTotalScore(),
		Questions:     []QuestionStatus{},
	}

	for _, rec := range answers {
		if rec.ModelID == m.ID && rec.Score != nil {
			summary.ScoredCount++
			summary.TotalScore += *rec.Score
		}
	}
	if summary.ScoredCount > 0 {
		summary.Average = float64(summary.TotalScore) / float64(summary.ScoredCount)
	}

	for _, q := range catalog.Questions {
		rec := idx[model.AnswerKey{QuestionID: q.ID, ModelID: m.ID}]
		scored := rec != nil && rec.Score != nil
		if filter == FilterScored && !scored {
			continue
		}
		if filter == FilterUnscored && scored {
			continue
		}
		summary.Questions = append(summary.Questions, QuestionStatus{Question: q, Answer: rec})
	}
	return summary
}
