package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashwinyue/next-eval/internal/model"
)

// JSONAnswerRepository 单个 JSON 文档的答案存储
// 不做内存缓存：每次读取都重新加载文件，每次修改都整体重写文件。
// mu 保证 加载-修改-写回 的原子性，避免并发写入互相覆盖。
type JSONAnswerRepository struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewJSONAnswerRepository 创建 JSON 文件存储
// 文件不存在时写入空文档；文件存在但无法解析时返回 model.ErrMalformedStore
func NewJSONAnswerRepository(path string) (*JSONAnswerRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	r := &JSONAnswerRepository{path: path, now: time.Now}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path 返回文档路径
func (r *JSONAnswerRepository) Path() string {
	return r.path
}

// UpsertAnswer 保存答案
func (r *JSONAnswerRepository) UpsertAnswer(ctx context.Context, questionID int, modelID, answer string) (*model.AnswerRecord, error) {
	if err := model.ValidateAnswer(answer); err != nil {
		return nil, err
	}

	var saved model.AnswerRecord
	err := r.mutate(ctx, func(doc *model.Document, now time.Time) error {
		if idx := doc.Find(questionID, modelID); idx >= 0 {
			if err := doc.Answers[idx].SetAnswer(answer, now); err != nil {
				return err
			}
			saved = doc.Answers[idx]
			return nil
		}
		rec, err := model.NewAnswerRecord(questionID, modelID, answer, now)
		if err != nil {
			return err
		}
		doc.Answers = append(doc.Answers, *rec)
		saved = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// SetScore 评分
func (r *JSONAnswerRepository) SetScore(ctx context.Context, questionID int, modelID string, score int, comment *string) (*model.AnswerRecord, error) {
	if err := model.ValidateScore(score); err != nil {
		return nil, err
	}

	var saved model.AnswerRecord
	err := r.mutate(ctx, func(doc *model.Document, now time.Time) error {
		idx := doc.Find(questionID, modelID)
		if idx < 0 {
			return fmt.Errorf("%w: question %d, model %s", model.ErrRecordNotFound, questionID, modelID)
		}
		if err := doc.Answers[idx].SetScore(score, comment, now); err != nil {
			return err
		}
		saved = doc.Answers[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetAnswer 按复合主键查找
func (r *JSONAnswerRepository) GetAnswer(ctx context.Context, questionID int, modelID string) (*model.AnswerRecord, error) {
	doc, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	idx := doc.Find(questionID, modelID)
	if idx < 0 {
		return nil, nil
	}
	rec := doc.Answers[idx]
	return &rec, nil
}

// GetModelScores 返回模型的全部分数
func (r *JSONAnswerRepository) GetModelScores(ctx context.Context, modelID string) (map[int]int, error) {
	doc, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return scoresOf(doc.Answers, modelID), nil
}

// ListAnswers 返回全部记录
func (r *JSONAnswerRepository) ListAnswers(ctx context.Context) ([]model.AnswerRecord, error) {
	doc, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Answers, nil
}

// Document 返回整个文档
func (r *JSONAnswerRepository) Document(ctx context.Context) (*model.Document, error) {
	return r.snapshot(ctx)
}

// ClearAllAnswers 以空文档覆盖；文档损坏时同样拒绝
func (r *JSONAnswerRepository) ClearAllAnswers(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.load(); err != nil {
		return err
	}
	return r.save(model.NewDocument(r.now()))
}

// ClearAllScores 清除全部评分
func (r *JSONAnswerRepository) ClearAllScores(ctx context.Context) error {
	return r.mutate(ctx, func(doc *model.Document, _ time.Time) error {
		for i := range doc.Answers {
			doc.Answers[i].ClearScore()
		}
		return nil
	})
}

// Close 无需释放资源
func (r *JSONAnswerRepository) Close() error {
	return nil
}

func (r *JSONAnswerRepository) snapshot(ctx context.Context) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// mutate 在锁内完成 加载-修改-写回，fn 出错时不写文件
func (r *JSONAnswerRepository) mutate(ctx context.Context, fn func(doc *model.Document, now time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	now := r.now()
	if err := fn(doc, now); err != nil {
		return err
	}
	doc.Touch(now)
	return r.save(doc)
}

// load 调用方必须持有 mu
func (r *JSONAnswerRepository) load() (*model.Document, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		doc := model.NewDocument(r.now())
		if err := r.save(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read answer store: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: %s: not a JSON object", model.ErrMalformedStore, r.path)
	}
	for _, key := range []string{"meta", "answers"} {
		if raw, ok := fields[key]; !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("%w: %s: missing %q", model.ErrMalformedStore, r.path, key)
		}
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrMalformedStore, r.path, err)
	}
	if doc.Meta.CreatedAt.IsZero() || doc.Meta.LastUpdated.IsZero() {
		return nil, fmt.Errorf("%w: %s: meta timestamps must be set", model.ErrMalformedStore, r.path)
	}
	for i := range doc.Answers {
		rec := &doc.Answers[i]
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: record %s: %v", model.ErrMalformedStore, r.path, rec.Key(), err)
		}
		rec.Normalize()
	}
	return &doc, nil
}

// save 先写临时文件再重命名，避免写一半的文件被读到
func (r *JSONAnswerRepository) save(doc *model.Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode answer store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write answer store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write answer store: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace answer store: %w", err)
	}
	return nil
}
