package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-eval/internal/model"
)

// 乐观事务冲突时的最大重试次数
const redisMaxRetries = 50

// RedisAnswerRepository Redis 答案存储
//
//	{prefix}:answers  hash   field "qid:mid" -> 记录 JSON
//	{prefix}:order    zset   field -> 首次写入序号，保持写入顺序
//	{prefix}:seq      string 写入序号计数器
//	{prefix}:meta     string 元数据 JSON
//
// 修改在 WATCH/MULTI 事务中完成，冲突时重试
type RedisAnswerRepository struct {
	client     *redis.Client
	answersKey string
	orderKey   string
	seqKey     string
	metaKey    string
	now        func() time.Time
}

// NewRedisAnswerRepository 创建 Redis 存储并初始化元数据
func NewRedisAnswerRepository(ctx context.Context, client *redis.Client, prefix string) (*RedisAnswerRepository, error) {
	prefix = strings.TrimSuffix(prefix, ":")
	r := &RedisAnswerRepository{
		client:     client,
		answersKey: prefix + ":answers",
		orderKey:   prefix + ":order",
		seqKey:     prefix + ":seq",
		metaKey:    prefix + ":meta",
		now:        time.Now,
	}

	meta, err := json.Marshal(model.NewStoreMeta(r.now()))
	if err != nil {
		return nil, err
	}
	if err := client.SetNX(ctx, r.metaKey, meta, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to init store meta: %w", err)
	}
	return r, nil
}

func field(questionID int, modelID string) string {
	return strconv.Itoa(questionID) + ":" + modelID
}

// UpsertAnswer 保存答案
func (r *RedisAnswerRepository) UpsertAnswer(ctx context.Context, questionID int, modelID, answer string) (*model.AnswerRecord, error) {
	if err := model.ValidateAnswer(answer); err != nil {
		return nil, err
	}

	var saved model.AnswerRecord
	err := r.update(ctx, questionID, modelID, func(rec *model.AnswerRecord, now time.Time) (*model.AnswerRecord, error) {
		if rec == nil {
			return model.NewAnswerRecord(questionID, modelID, answer, now)
		}
		if err := rec.SetAnswer(answer, now); err != nil {
			return nil, err
		}
		return rec, nil
	}, &saved)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// SetScore 评分
func (r *RedisAnswerRepository) SetScore(ctx context.Context, questionID int, modelID string, score int, comment *string) (*model.AnswerRecord, error) {
	if err := model.ValidateScore(score); err != nil {
		return nil, err
	}

	var saved model.AnswerRecord
	err := r.update(ctx, questionID, modelID, func(rec *model.AnswerRecord, now time.Time) (*model.AnswerRecord, error) {
		if rec == nil {
			return nil, fmt.Errorf("%w: question %d, model %s", model.ErrRecordNotFound, questionID, modelID)
		}
		if err := rec.SetScore(score, comment, now); err != nil {
			return nil, err
		}
		return rec, nil
	}, &saved)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetAnswer 按复合主键查找
func (r *RedisAnswerRepository) GetAnswer(ctx context.Context, questionID int, modelID string) (*model.AnswerRecord, error) {
	raw, err := r.client.HGet(ctx, r.answersKey, field(questionID, modelID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

// GetModelScores 返回模型的全部分数
func (r *RedisAnswerRepository) GetModelScores(ctx context.Context, modelID string) (map[int]int, error) {
	records, err := r.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	return scoresOf(records, modelID), nil
}

// ListAnswers 按写入顺序返回全部记录
func (r *RedisAnswerRepository) ListAnswers(ctx context.Context) ([]model.AnswerRecord, error) {
	fields, err := r.client.ZRange(ctx, r.orderKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	records := make([]model.AnswerRecord, 0, len(fields))
	if len(fields) == 0 {
		return records, nil
	}

	values, err := r.client.HMGet(ctx, r.answersKey, fields...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// order 中存在但 hash 已删除，跳过
			continue
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Document 返回元数据和全部记录
func (r *RedisAnswerRepository) Document(ctx context.Context) (*model.Document, error) {
	meta, err := r.loadMeta(ctx, r.client)
	if err != nil {
		return nil, err
	}
	answers, err := r.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Document{Meta: *meta, Answers: answers}, nil
}

// ClearAllAnswers 删除全部记录并重置元数据
func (r *RedisAnswerRepository) ClearAllAnswers(ctx context.Context) error {
	meta, err := json.Marshal(model.NewStoreMeta(r.now()))
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.answersKey, r.orderKey)
		pipe.Set(ctx, r.metaKey, meta, 0)
		return nil
	})
	return err
}

// ClearAllScores 清除全部评分
func (r *RedisAnswerRepository) ClearAllScores(ctx context.Context) error {
	txf := func(tx *redis.Tx) error {
		all, err := tx.HGetAll(ctx, r.answersKey).Result()
		if err != nil {
			return err
		}
		meta, err := r.loadMeta(ctx, tx)
		if err != nil {
			return err
		}
		now := r.now()
		meta.LastUpdated = model.NewISOTime(now)
		metaRaw, err := json.Marshal(meta)
		if err != nil {
			return err
		}

		values := make(map[string]interface{}, len(all))
		for f, raw := range all {
			rec, err := decodeRecord(raw)
			if err != nil {
				return err
			}
			rec.ClearScore()
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			values[f] = data
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(values) > 0 {
				pipe.HSet(ctx, r.answersKey, values)
			}
			pipe.Set(ctx, r.metaKey, metaRaw, 0)
			return nil
		})
		return err
	}
	return r.watch(ctx, txf)
}

// Close 关闭 Redis 连接
func (r *RedisAnswerRepository) Close() error {
	return r.client.Close()
}

// update 在乐观事务内读取、修改并写回单条记录
func (r *RedisAnswerRepository) update(
	ctx context.Context,
	questionID int,
	modelID string,
	fn func(rec *model.AnswerRecord, now time.Time) (*model.AnswerRecord, error),
	out *model.AnswerRecord,
) error {
	f := field(questionID, modelID)
	seq, err := r.client.Incr(ctx, r.seqKey).Result()
	if err != nil {
		return err
	}
	txf := func(tx *redis.Tx) error {
		var current *model.AnswerRecord
		raw, err := tx.HGet(ctx, r.answersKey, f).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if current, err = decodeRecord(raw); err != nil {
				return err
			}
		}

		meta, err := r.loadMeta(ctx, tx)
		if err != nil {
			return err
		}

		now := r.now()
		next, err := fn(current, now)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		meta.LastUpdated = model.NewISOTime(now)
		metaRaw, err := json.Marshal(meta)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.answersKey, f, data)
			pipe.ZAddNX(ctx, r.orderKey, redis.Z{Score: float64(seq), Member: f})
			pipe.Set(ctx, r.metaKey, metaRaw, 0)
			return nil
		})
		if err == nil {
			*out = *next
		}
		return err
	}
	return r.watch(ctx, txf)
}

func (r *RedisAnswerRepository) watch(ctx context.Context, txf func(tx *redis.Tx) error) error {
	for i := 0; i < redisMaxRetries; i++ {
		err := r.client.Watch(ctx, txf, r.answersKey, r.metaKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("answer store update conflicted %d times", redisMaxRetries)
}

// getter 同时由 *redis.Client 和 *redis.Tx 实现
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisAnswerRepository) loadMeta(ctx context.Context, c getter) (*model.StoreMeta, error) {
	raw, err := c.Get(ctx, r.metaKey).Result()
	if errors.Is(err, redis.Nil) {
		meta := model.NewStoreMeta(r.now())
		return &meta, nil
	}
	if err != nil {
		return nil, err
	}
	var meta model.StoreMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("%w: meta: %v", model.ErrMalformedStore, err)
	}
	return &meta, nil
}

func decodeRecord(raw string) (*model.AnswerRecord, error) {
	var rec model.AnswerRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedStore, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: record %s: %v", model.ErrMalformedStore, rec.Key(), err)
	}
	rec.Normalize()
	return &rec, nil
}
