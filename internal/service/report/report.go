// Package report 提供基于答案记录的统计与排行
// 所有函数都是 (答案快照, 题库, 注册表) 的纯函数，相同输入得到相同输出
package report

import (
	"sort"

	"github.com/ashwinyue/next-eval/internal/model"
)

// ModelTotal 模型总分
type ModelTotal struct {
	ModelID     string      `json:"model_id"`
	Name        string      `json:"name"`
	Icon        string      `json:"icon"`
	Scores      map[int]int `json:"scores"`
	Answered    int         `json:"answered"`
	Scored      int         `json:"scored"`
	Total       int         `json:"total"`
	MaxPossible int         `json:"max_possible"`
	Percentage  float64     `json:"percentage"`
	Average     float64     `json:"average"`
}

// DimensionScore 模型在某维度上的得分
type DimensionScore struct {
	ModelID    string  `json:"model_id"`
	Name       string  `json:"name"`
	Total      int     `json:"total"`
	Scored     int     `json:"scored"`
	Max        int     `json:"max"`
	Percentage float64 `json:"percentage"`
}

// DimensionRollup 维度汇总
type DimensionRollup struct {
	DimensionID model.DimensionID `json:"dimension_id"`
	Name        string            `json:"name"`
	Questions   []int             `json:"questions"`
	Scores      []DimensionScore  `json:"scores"`
}

// Stats 完成度统计
type Stats struct {
	TotalQuestions int     `json:"total_questions"`
	TotalModels    int     `json:"total_models"`
	TotalAnswers   int     `json:"total_answers"`
	TotalPossible  int     `json:"total_possible"`
	CompletionRate float64 `json:"completion_rate"`
	ScoredCount    int     `json:"scored_count"`
	ScoringRate    float64 `json:"scoring_rate"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	ModelTotal
}

// percentage 得分率，scored 为 0 时返回 0
func percentage(total, scored int) float64 {
	if scored == 0 {
		return 0
	}
	return float64(total) / float64(scored*model.MaxScore) * 100
}

// rate 比率，分母为 0 时返回 0
func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}

// TotalsByModel 按注册表顺序计算每个模型的总分
func TotalsByModel(answers []model.AnswerRecord, registry *model.Registry) []ModelTotal {
	totals := make([]ModelTotal, 0, len(registry.Models))
	for _, m := range registry.Models {
		t := ModelTotal{
			ModelID: m.ID,
			Name:    m.Name,
			Icon:    m.Icon,
			Scores:  make(map[int]int),
		}
		for _, rec := range answers {
			if rec.ModelID != m.ID {
				continue
			}
			t.Answered++
			if rec.Score != nil {
				t.Scores[rec.QuestionID] = *rec.Score
				t.Total += *rec.Score
				t.Scored++
			}
		}
		t.MaxPossible = t.Scored * model.MaxScore
		t.Percentage = percentage(t.Total, t.Scored)
		if t.Scored > 0 {
			t.Average = float64(t.Total) / float64(t.Scored)
		}
		totals = append(totals, t)
	}
	return totals
}

// DimensionRollups 按维度汇总，只统计该维度内已评分的题目
// 分母是已评分题数 × 5，未作答的题目不计入
func DimensionRollups(answers []model.AnswerRecord, catalog *model.Catalog, registry *model.Registry) []DimensionRollup {
	totals := TotalsByModel(answers, registry)

	rollups := make([]DimensionRollup, 0, len(catalog.Meta.Dimensions))
	for _, dim := range catalog.Meta.Dimensions {
		r := DimensionRollup{
			DimensionID: dim.ID,
			Name:        dim.Name,
			Questions:   dim.Questions,
			Scores:      make([]DimensionScore, 0, len(totals)),
		}
		for _, t := range totals {
			ds := DimensionScore{ModelID: t.ModelID, Name: t.Name}
			for _, qid := range dim.Questions {
				if s, ok := t.Scores[qid]; ok {
					ds.Total += s
					ds.Scored++
				}
			}
			ds.Max = ds.Scored * model.MaxScore
			ds.Percentage = percentage(ds.Total, ds.Scored)
			r.Scores = append(r.Scores, ds)
		}
		rollups = append(rollups, r)
	}
	return rollups
}

// CompletionStats 计算作答完成率和评分率
func CompletionStats(answers []model.AnswerRecord, catalog *model.Catalog, registry *model.Registry) Stats {
	s := Stats{
		TotalQuestions: len(catalog.Questions),
		TotalModels:    len(registry.Models),
		TotalAnswers:   len(answers),
	}
	s.TotalPossible = s.TotalQuestions * s.TotalModels
	for _, rec := range answers {
		if rec.Score != nil {
			s.ScoredCount++
		}
	}
	s.CompletionRate = rate(s.TotalAnswers, s.TotalPossible)
	s.ScoringRate = rate(s.ScoredCount, s.TotalAnswers)
	return s
}

// Leaderboard 按总分降序排列有评分的模型，同分保持注册表顺序
func Leaderboard(totals []ModelTotal) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(totals))
	for _, t := range totals {
		if t.Scored > 0 {
			entries = append(entries, LeaderboardEntry{ModelTotal: t})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Total > entries[j].Total
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
