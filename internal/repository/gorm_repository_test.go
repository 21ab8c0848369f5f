package repository

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/next-eval/internal/model"
	"github.com/ashwinyue/next-eval/internal/testutil"
)

func newGormRepo(t *testing.T) AnswerRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "answers.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(model.AllModels...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo, err := NewGormAnswerRepository(db)
	if err != nil {
		t.Fatalf("NewGormAnswerRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestGormAnswerRepository_Contract(t *testing.T) {
	runContract(t, newGormRepo)
}

func TestGormAnswerRepository_MetaInitializedOnce(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	repo := newGormRepo(t).(*GormAnswerRepository)
	ctx := context.Background()

	first, err := repo.Document(ctx)
	assert.NoError(err)

	again, err := NewGormAnswerRepository(repo.db)
	assert.NoError(err)
	second, err := again.Document(ctx)
	assert.NoError(err)
	assert.True(first.Meta.CreatedAt.Equal(second.Meta.CreatedAt.Time), "meta re-created")

	var count int64
	assert.NoError(repo.db.Model(&model.StoreMetaRow{}).Count(&count).Error)
	assert.Equal(int64(1), count)
}

func TestGormAnswerRepository_ScoreOutOfRangeInRowIsMalformed(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	repo := newGormRepo(t).(*GormAnswerRepository)
	ctx := context.Background()

	_, err := repo.UpsertAnswer(ctx, 1, "gpt", "answer")
	assert.NoError(err)
	assert.NoError(repo.db.Model(&model.AnswerRow{}).
		Where("question_id = ? AND model_id = ?", 1, "gpt").
		Update("score", 9).Error)

	_, err = repo.ListAnswers(ctx)
	assert.ErrorIs(err, model.ErrMalformedStore)
	_, err = repo.GetAnswer(ctx, 1, "gpt")
	assert.ErrorIs(err, model.ErrMalformedStore)
	_, err = repo.GetModelScores(ctx, "gpt")
	assert.ErrorIs(err, model.ErrMalformedStore)
	_, err = repo.Document(ctx)
	assert.ErrorIs(err, model.ErrMalformedStore)

	// 清除评分后恢复可读
	assert.NoError(repo.ClearAllScores(ctx))
	records, err := repo.ListAnswers(ctx)
	assert.NoError(err)
	assert.Equal(1, len(records))
}
