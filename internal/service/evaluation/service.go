// Package evaluation 提供人工评测服务：保存答案、评分、统计与导出
package evaluation

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ashwinyue/next-eval/internal/catalog"
	"github.com/ashwinyue/next-eval/internal/model"
	"github.com/ashwinyue/next-eval/internal/monitoring"
	"github.com/ashwinyue/next-eval/internal/repository"
	"github.com/ashwinyue/next-eval/internal/service/backup"
	"github.com/ashwinyue/next-eval/internal/service/report"
)

// 备份原因，用作快照对象名前缀
const (
	ReasonManual       = "manual"
	ReasonClearAnswers = "clear_answers"
	ReasonClearScores  = "clear_scores"
)

// DataFile 需要展示状态的数据文件
type DataFile struct {
	Name string
	Path string
}

// FileStatus 数据文件状态
type FileStatus struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Size   int64  `json:"size"`
}

// Options 可选依赖
type Options struct {
	Backups   backup.Storage
	Metrics   *monitoring.Metrics
	Logger    *zap.Logger
	DataFiles []DataFile
}

// Service 评测服务
type Service struct {
	repo      repository.AnswerRepository
	data      *catalog.Data
	backups   backup.Storage
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	dataFiles []DataFile
	now       func() time.Time
}

// NewService 创建评测服务
func NewService(repo repository.AnswerRepository, data *catalog.Data, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		data:      data,
		backups:   opts.Backups,
		metrics:   opts.Metrics,
		logger:    logger,
		dataFiles: opts.DataFiles,
		now:       time.Now,
	}
}

// ========== 静态数据 ==========

// QuestionDetail 题目详情，附评分标准
type QuestionDetail struct {
	model.Question
	DimensionName   string          `json:"dimension_name"`
	ScoringCriteria json.RawMessage `json:"scoring_criteria,omitempty"`
}

// Questions 全部题目
func (s *Service) Questions() []model.Question {
	return s.data.Catalog.Questions
}

// QuestionsByDimension 按维度筛选题目，dim 为空时返回全部
func (s *Service) QuestionsByDimension(dim model.DimensionID) ([]model.Question, error) {
	if dim == "" {
		return s.Questions(), nil
	}
	if _, ok := s.data.Catalog.Dimension(dim); !ok {
		return nil, fmt.Errorf("unknown dimension %q: %w", dim, model.ErrValidation)
	}
	questions := make([]model.Question, 0)
	for _, q := range s.data.Catalog.Questions {
		if q.Dimension == dim {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// Dimensions 全部维度
func (s *Service) Dimensions() []model.Dimension {
	return s.data.Catalog.Meta.Dimensions
}

// Models 全部模型
func (s *Service) Models() []model.Model {
	return s.data.Registry.Models
}

// Question 题目详情
func (s *Service) Question(id int) (*QuestionDetail, error) {
	q, ok := s.data.Catalog.Question(id)
	if !ok {
		return nil, fmt.Errorf("question %d: %w", id, model.ErrRecordNotFound)
	}
	detail := &QuestionDetail{
		Question:      *q,
		DimensionName: s.data.Catalog.DimensionName(q.Dimension),
	}
	if criteria, ok := s.data.Rubric.Criteria(id); ok {
		detail.ScoringCriteria = criteria
	}
	return detail, nil
}

// ========== 答案与评分 ==========

func (s *Service) validateKey(questionID int, modelID string) error {
	if !s.data.Catalog.HasQuestion(questionID) {
		return fmt.Errorf("unknown question %d: %w", questionID, model.ErrValidation)
	}
	return s.validateModel(modelID)
}

func (s *Service) validateModel(modelID string) error {
	if !s.data.Registry.Has(modelID) {
		return fmt.Errorf("unknown model %q: %w", modelID, model.ErrValidation)
	}
	return nil
}

// SaveAnswer 保存模型答案
func (s *Service) SaveAnswer(ctx context.Context, questionID int, modelID, answer string) (*model.AnswerRecord, error) {
	if err := s.validateKey(questionID, modelID); err != nil {
		return nil, err
	}
	rec, err := s.repo.UpsertAnswer(ctx, questionID, modelID, answer)
	s.metrics.ObserveMutation("upsert_answer", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("answer saved",
		zap.Int("question_id", questionID),
		zap.String("model_id", modelID),
		zap.Bool("scored", rec.IsScored()),
	)
	return rec, nil
}

// SaveScore 为已有答案评分
func (s *Service) SaveScore(ctx context.Context, questionID int, modelID string, score int, comment *string) (*model.AnswerRecord, error) {
	if err := s.validateKey(questionID, modelID); err != nil {
		return nil, err
	}
	rec, err := s.repo.SetScore(ctx, questionID, modelID, score, comment)
	s.metrics.ObserveMutation("set_score", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("score saved",
		zap.Int("question_id", questionID),
		zap.String("model_id", modelID),
		zap.Int("score", score),
	)
	return rec, nil
}

// GetAnswer 查询答案，不存在时返回 (nil, nil)
func (s *Service) GetAnswer(ctx context.Context, questionID int, modelID string) (*model.AnswerRecord, error) {
	if err := s.validateKey(questionID, modelID); err != nil {
		return nil, err
	}
	return s.repo.GetAnswer(ctx, questionID, modelID)
}

// GetModelScores 模型全部已评分题目的分数
func (s *Service) GetModelScores(ctx context.Context, modelID string) (map[int]int, error) {
	if err := s.validateModel(modelID); err != nil {
		return nil, err
	}
	return s.repo.GetModelScores(ctx, modelID)
}

// ========== 统计 ==========

// Stats 完成度统计
func (s *Service) Stats(ctx context.Context) (report.Stats, error) {
	answers, err := s.repo.ListAnswers(ctx)
	if err != nil {
		return report.Stats{}, err
	}
	return report.CompletionStats(answers, s.data.Catalog, s.data.Registry), nil
}

// Totals 各模型总分
func (s *Service) Totals(ctx context.Context) ([]report.ModelTotal, error) {
	answers, err := s.repo.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	return report.TotalsByModel(answers, s.data.Registry), nil
}

// Leaderboard 排行榜
func (s *Service) Leaderboard(ctx context.Context) ([]report.LeaderboardEntry, error) {
	totals, err := s.Totals(ctx)
	if err != nil {
		return nil, err
	}
	return report.Leaderboard(totals), nil
}

// DimensionRollups 维度汇总
func (s *Service) DimensionRollups(ctx context.Context) ([]report.DimensionRollup, error) {
	answers, err := s.repo.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	return report.DimensionRollups(answers, s.data.Catalog, s.data.Registry), nil
}

// StatusMatrix 作答/评分状态矩阵
func (s *Service) StatusMatrix(ctx context.Context) ([]report.StatusRow, error) {
	answers, err := s.repo.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	return report.StatusMatrix(answers, s.data.Catalog, s.data.Registry), nil
}

// ScoreTable 得分表
func (s *Service) ScoreTable(ctx context.Context) (report.ScoreTable, error) {
	answers, err := s.repo.ListAnswers(ctx)
	if err != nil {
		return report.ScoreTable{}, err
	}
	return report.BuildScoreTable(answers, s.data.Catalog, s.data.Registry), nil
}

// ScoreDistribution 分数分布
func (s *Service) ScoreDistribution(ctx context.Context) ([]report.Distribution, error) {
	answers, err := s.repo.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	return report.ScoreDistribution(answers, s.data.Registry), nil
}

// CompareQuestion 同一题目下各模型的回答对比
func (s *Service) CompareQuestion(ctx context.Context, questionID int) (*report.QuestionComparison, error) {
	answers, err := s.repo.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	cmp, ok := report.CompareQuestion(answers, s.data.Catalog, s.data.Registry, questionID)
	if !ok {
		return nil, fmt.Errorf("question %d: %w", questionID, model.ErrRecordNotFound)
	}
	return cmp, nil
}

// ModelSummary 单个模型的评分概览
func (s *Service) ModelSummary(ctx context.Context, modelID string, filter report.ScoreFilter) (*report.ModelSummary, error) {
	m, ok := s.data.Registry.Get(modelID)
	if !ok {
		return nil, fmt.Errorf("model %q: %w", modelID, model.ErrRecordNotFound)
	}
	answers, err := s.repo.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	summary := report.SummarizeModel(answers, s.data.Catalog, *m, filter)
	return &summary, nil
}

// ========== 导出 ==========

// ExportJSON 写出完整答案文档
func (s *Service) ExportJSON(ctx context.Context, w io.Writer) error {
	doc, err := s.repo.Document(ctx)
	if err != nil {
		return err
	}
	return writeDocument(w, doc)
}

func writeDocument(w io.Writer, doc *model.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// csvHeader 导出 CSV 的列
var csvHeader = []string{"question_id", "model_id", "score", "comment", "timestamp"}

// ExportCSV 写出评分 CSV，未评分的 score/comment 为空
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	answers, err := s.repo.ListAnswers(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range answers {
		score, comment := "", ""
		if rec.Score != nil {
			score = strconv.Itoa(*rec.Score)
		}
		if rec.Comment != nil {
			comment = *rec.Comment
		}
		row := []string{
			strconv.Itoa(rec.QuestionID),
			rec.ModelID,
			score,
			comment,
			rec.Timestamp.Format(time.RFC3339Nano),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ========== 数据管理 ==========

// FileStatus 数据文件是否存在及大小
func (s *Service) FileStatus() []FileStatus {
	statuses := make([]FileStatus, 0, len(s.dataFiles))
	for _, f := range s.dataFiles {
		st := FileStatus{Name: f.Name, Path: f.Path}
		if f.Path != "" {
			if info, err := os.Stat(f.Path); err == nil {
				st.Exists = true
				st.Size = info.Size()
			}
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// BackupsEnabled 是否配置了快照存储
func (s *Service) BackupsEnabled() bool {
	return s.backups != nil
}

// Backup 将当前答案文档保存为快照，返回对象名
func (s *Service) Backup(ctx context.Context, reason string) (string, error) {
	if s.backups == nil {
		return "", fmt.Errorf("backups are disabled: %w", model.ErrValidation)
	}
	doc, err := s.repo.Document(ctx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := writeDocument(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	name, err := s.backups.Save(ctx, &backup.SaveRequest{
		Name:        backup.ObjectName(reason, s.now()),
		ContentType: "application/json",
		Size:        int64(buf.Len()),
		Reader:      &buf,
	})
	s.metrics.ObserveBackup(err)
	if err != nil {
		return "", err
	}
	s.logger.Info("snapshot saved", zap.String("name", name), zap.Int("answers", len(doc.Answers)))
	return name, nil
}

// ListBackups 列出已保存的快照
func (s *Service) ListBackups(ctx context.Context) ([]backup.Object, error) {
	if s.backups == nil {
		return []backup.Object{}, nil
	}
	return s.backups.List(ctx)
}

// backupBeforeClear 破坏性操作前备份，未启用时跳过；备份失败则中止操作
func (s *Service) backupBeforeClear(ctx context.Context, reason string) (string, error) {
	if s.backups == nil {
		return "", nil
	}
	name, err := s.Backup(ctx, reason)
	if err != nil {
		return "", fmt.Errorf("backup before %s failed: %w", strings.ReplaceAll(reason, "_", " "), err)
	}
	return name, nil
}

// ClearAllAnswers 清空全部答案，返回快照名（未启用备份时为空）
func (s *Service) ClearAllAnswers(ctx context.Context) (string, error) {
	name, err := s.backupBeforeClear(ctx, ReasonClearAnswers)
	if err != nil {
		return "", err
	}
	err = s.repo.ClearAllAnswers(ctx)
	s.metrics.ObserveMutation("clear_answers", err)
	if err != nil {
		return "", err
	}
	s.logger.Warn("all answers cleared", zap.String("backup", name))
	return name, nil
}

// ClearAllScores 清空全部评分，保留答案
func (s *Service) ClearAllScores(ctx context.Context) (string, error) {
	name, err := s.backupBeforeClear(ctx, ReasonClearScores)
	if err != nil {
		return "", err
	}
	err = s.repo.ClearAllScores(ctx)
	s.metrics.ObserveMutation("clear_scores", err)
	if err != nil {
		return "", err
	}
	s.logger.Warn("all scores cleared", zap.String("backup", name))
	return name, nil
}

// DefaultDataFiles 按配置路径生成数据文件列表
func DefaultDataFiles(questions, models, answers, rubric string) []DataFile {
	files := []DataFile{
		{Name: filepath.Base(questions), Path: questions},
		{Name: filepath.Base(models), Path: models},
	}
	if answers != "" {
		files = append(files, DataFile{Name: filepath.Base(answers), Path: answers})
	}
	if rubric != "" {
		files = append(files, DataFile{Name: filepath.Base(rubric), Path: rubric})
	}
	return files
}
