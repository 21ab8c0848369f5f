package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ashwinyue/next-eval/internal/model"
	"github.com/ashwinyue/next-eval/internal/testutil"
)

// runContract 对任意 AnswerRepository 实现执行相同的行为测试
func runContract(t *testing.T, newRepo func(t *testing.T) AnswerRepository) {
	t.Run("upsert creates unscored record", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.UpsertAnswer(ctx, 3, "gpt", "hello")
		assert.NoError(err)

		rec, err := repo.GetAnswer(ctx, 3, "gpt")
		assert.NoError(err)
		assert.NotNil(rec)
		assert.Equal("hello", rec.Answer)
		assert.Nil(rec.Score)
		assert.Nil(rec.ScoredAt)
	})

	t.Run("upsert is idempotent per key", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		for i := 0; i < 2; i++ {
			_, err := repo.UpsertAnswer(ctx, 1, "gpt", "same")
			assert.NoError(err)
		}
		list, err := repo.ListAnswers(ctx)
		assert.NoError(err)
		assert.Equal(1, len(list))
		assert.Equal("same", list[0].Answer)
	})

	t.Run("blank answer rejected without write", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.UpsertAnswer(ctx, 1, "gpt", "  \n")
		assert.ErrorIs(err, model.ErrValidation)

		list, err := repo.ListAnswers(ctx)
		assert.NoError(err)
		assert.Equal(0, len(list))
	})

	t.Run("score preserved across re-answer", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.UpsertAnswer(ctx, 3, "gpt", "hello")
		assert.NoError(err)
		scored, err := repo.SetScore(ctx, 3, "gpt", 4, testutil.StrPtr("good"))
		assert.NoError(err)
		assert.Equal(4, *scored.Score)
		assert.NotNil(scored.ScoredAt)

		updated, err := repo.UpsertAnswer(ctx, 3, "gpt", "hello v2")
		assert.NoError(err)
		assert.Equal("hello v2", updated.Answer)

		rec, err := repo.GetAnswer(ctx, 3, "gpt")
		assert.NoError(err)
		assert.Equal("hello v2", rec.Answer)
		assert.Equal(4, *rec.Score)
		assert.Equal("good", *rec.Comment)
		assert.NotNil(rec.ScoredAt)
		assert.True(rec.ScoredAt.Equal(scored.ScoredAt.Time), "scored_at changed on re-answer")
	})

	t.Run("score without answer rejected", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.SetScore(ctx, 7, "claude", 3, nil)
		assert.ErrorIs(err, model.ErrRecordNotFound)

		rec, err := repo.GetAnswer(ctx, 7, "claude")
		assert.NoError(err)
		assert.Nil(rec)
	})

	t.Run("score out of range rejected", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.UpsertAnswer(ctx, 1, "gpt", "x")
		assert.NoError(err)
		for _, s := range []int{-1, 6} {
			_, err := repo.SetScore(ctx, 1, "gpt", s, nil)
			assert.ErrorIs(err, model.ErrValidation)
		}
		rec, err := repo.GetAnswer(ctx, 1, "gpt")
		assert.NoError(err)
		assert.Nil(rec.Score)
	})

	t.Run("model scores", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		for _, qid := range []int{1, 2, 3} {
			_, err := repo.UpsertAnswer(ctx, qid, "gpt", "a")
			assert.NoError(err)
		}
		_, err := repo.UpsertAnswer(ctx, 1, "claude", "b")
		assert.NoError(err)
		_, err = repo.SetScore(ctx, 1, "gpt", 5, nil)
		assert.NoError(err)
		_, err = repo.SetScore(ctx, 2, "gpt", 0, nil)
		assert.NoError(err)
		_, err = repo.SetScore(ctx, 1, "claude", 2, nil)
		assert.NoError(err)

		scores, err := repo.GetModelScores(ctx, "gpt")
		assert.NoError(err)
		assert.Equal(map[int]int{1: 5, 2: 0}, scores)
	})

	t.Run("clear all scores keeps answers", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.UpsertAnswer(ctx, 1, "gpt", "keep me")
		assert.NoError(err)
		_, err = repo.SetScore(ctx, 1, "gpt", 3, testutil.StrPtr("ok"))
		assert.NoError(err)
		before, err := repo.GetAnswer(ctx, 1, "gpt")
		assert.NoError(err)

		assert.NoError(repo.ClearAllScores(ctx))

		rec, err := repo.GetAnswer(ctx, 1, "gpt")
		assert.NoError(err)
		assert.Equal("keep me", rec.Answer)
		assert.True(rec.Timestamp.Equal(before.Timestamp.Time), "timestamp changed")
		assert.Nil(rec.Score)
		assert.Nil(rec.Comment)
		assert.Nil(rec.ScoredAt)
	})

	t.Run("clear all answers empties store", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.UpsertAnswer(ctx, 1, "gpt", "a")
		assert.NoError(err)
		assert.NoError(repo.ClearAllAnswers(ctx))

		doc, err := repo.Document(ctx)
		assert.NoError(err)
		assert.Equal(0, len(doc.Answers))
		assert.Equal(model.DefaultStoreTitle, doc.Meta.Title)
	})

	t.Run("mutations bump last_updated", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		before, err := repo.Document(ctx)
		assert.NoError(err)
		_, err = repo.UpsertAnswer(ctx, 1, "gpt", "a")
		assert.NoError(err)
		after, err := repo.Document(ctx)
		assert.NoError(err)
		assert.False(after.Meta.LastUpdated.Before(before.Meta.LastUpdated.Time))
		assert.True(after.Meta.CreatedAt.Equal(before.Meta.CreatedAt.Time), "created_at changed")
	})

	t.Run("list preserves insertion order", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		keys := []model.AnswerKey{{QuestionID: 2, ModelID: "b"}, {QuestionID: 1, ModelID: "a"}, {QuestionID: 3, ModelID: "c"}}
		for _, k := range keys {
			_, err := repo.UpsertAnswer(ctx, k.QuestionID, k.ModelID, "x")
			assert.NoError(err)
		}
		_, err := repo.UpsertAnswer(ctx, 2, "b", "again")
		assert.NoError(err)

		list, err := repo.ListAnswers(ctx)
		assert.NoError(err)
		assert.Equal(len(keys), len(list))
		for i, k := range keys {
			assert.Equal(k, list[i].Key())
		}
	})

	t.Run("concurrent upserts lose nothing", func(t *testing.T) {
		assert := testutil.NewAssertHelper(t)
		repo := newRepo(t)
		ctx := context.Background()

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := repo.UpsertAnswer(ctx, i, fmt.Sprintf("m%d", i%3), "answer"); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(err)
		}

		list, err := repo.ListAnswers(ctx)
		assert.NoError(err)
		assert.Equal(n, len(list))
	})
}
