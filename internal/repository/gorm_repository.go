package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ashwinyue/next-eval/internal/model"
)

const storeMetaID = 1

// GormAnswerRepository 数据库答案存储
// (question_id, model_id) 唯一索引上的单条语句保证按键原子更新
type GormAnswerRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormAnswerRepository 创建数据库存储并初始化元数据行
func NewGormAnswerRepository(db *gorm.DB) (*GormAnswerRepository, error) {
	r := &GormAnswerRepository{db: db, now: time.Now}
	now := r.now()
	meta := model.StoreMetaRow{
		ID:          storeMetaID,
		Title:       model.DefaultStoreTitle,
		Version:     model.DefaultStoreVersion,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&meta).Error; err != nil {
		return nil, fmt.Errorf("failed to init store meta: %w", err)
	}
	return r, nil
}

// UpsertAnswer 保存答案，冲突时只更新答案和时间戳
func (r *GormAnswerRepository) UpsertAnswer(ctx context.Context, questionID int, modelID, answer string) (*model.AnswerRecord, error) {
	if err := model.ValidateAnswer(answer); err != nil {
		return nil, err
	}

	now := r.now()
	var stored model.AnswerRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.AnswerRow{
			QuestionID: questionID,
			ModelID:    modelID,
			Answer:     answer,
			Timestamp:  now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}, {Name: "model_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"answer", "timestamp"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		if err := touchMeta(tx, now); err != nil {
			return err
		}
		return tx.Where("question_id = ? AND model_id = ?", questionID, modelID).First(&stored).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert answer: %w", err)
	}
	rec, err := stored.ToRecord()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetScore 评分
func (r *GormAnswerRepository) SetScore(ctx context.Context, questionID int, modelID string, score int, comment *string) (*model.AnswerRecord, error) {
	if err := model.ValidateScore(score); err != nil {
		return nil, err
	}

	now := r.now()
	var stored model.AnswerRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.AnswerRow{}).
			Where("question_id = ? AND model_id = ?", questionID, modelID).
			Updates(map[string]interface{}{
				"score":     score,
				"comment":   nullable(comment),
				"scored_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: question %d, model %s", model.ErrRecordNotFound, questionID, modelID)
		}
		if err := touchMeta(tx, now); err != nil {
			return err
		}
		return tx.Where("question_id = ? AND model_id = ?", questionID, modelID).First(&stored).Error
	})
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set score: %w", err)
	}
	rec, err := stored.ToRecord()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetAnswer 按复合主键查找
func (r *GormAnswerRepository) GetAnswer(ctx context.Context, questionID int, modelID string) (*model.AnswerRecord, error) {
	var row model.AnswerRow
	err := r.db.WithContext(ctx).
		Where("question_id = ? AND model_id = ?", questionID, modelID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec, err := row.ToRecord()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetModelScores 返回模型的全部分数
func (r *GormAnswerRepository) GetModelScores(ctx context.Context, modelID string) (map[int]int, error) {
	var rows []model.AnswerRow
	err := r.db.WithContext(ctx).
		Where("model_id = ? AND score IS NOT NULL", modelID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	scores := make(map[int]int, len(rows))
	for i := range rows {
		rec, err := rows[i].ToRecord()
		if err != nil {
			return nil, err
		}
		scores[rec.QuestionID] = *rec.Score
	}
	return scores, nil
}

// ListAnswers 按写入顺序返回全部记录
func (r *GormAnswerRepository) ListAnswers(ctx context.Context) ([]model.AnswerRecord, error) {
	return listRows(r.db.WithContext(ctx))
}

// Document 返回元数据和全部记录
func (r *GormAnswerRepository) Document(ctx context.Context) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meta model.StoreMetaRow
		if err := tx.First(&meta, storeMetaID).Error; err != nil {
			return err
		}
		answers, err := listRows(tx)
		if err != nil {
			return err
		}
		doc = model.Document{Meta: meta.ToMeta(), Answers: answers}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ClearAllAnswers 删除全部记录并重置元数据
func (r *GormAnswerRepository) ClearAllAnswers(ctx context.Context) error {
	now := r.now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.AnswerRow{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.StoreMetaRow{}).Where("id = ?", storeMetaID).Updates(map[string]interface{}{
			"title":        model.DefaultStoreTitle,
			"version":      model.DefaultStoreVersion,
			"created_at":   now,
			"last_updated": now,
		}).Error
	})
}

// ClearAllScores 清除全部评分
func (r *GormAnswerRepository) ClearAllScores(ctx context.Context) error {
	now := r.now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.AnswerRow{}).Where("1 = 1").Updates(map[string]interface{}{
			"score":     nil,
			"comment":   nil,
			"scored_at": nil,
		}).Error
		if err != nil {
			return err
		}
		return touchMeta(tx, now)
	})
}

// Close 关闭数据库连接
func (r *GormAnswerRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func listRows(tx *gorm.DB) ([]model.AnswerRecord, error) {
	var rows []model.AnswerRow
	if err := tx.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]model.AnswerRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func touchMeta(tx *gorm.DB, now time.Time) error {
	return tx.Model(&model.StoreMetaRow{}).Where("id = ?", storeMetaID).Update("last_updated", now).Error
}

// nullable 将 nil 指针转换为 SQL NULL
func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
