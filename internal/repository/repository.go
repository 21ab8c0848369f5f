package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-eval/internal/config"
	"github.com/ashwinyue/next-eval/internal/database"
)

// Repositories 仓库集合
type Repositories struct {
	Answer  AnswerRepository
	Backend config.StoreBackend
}

// NewRepositories 按配置创建答案存储
func NewRepositories(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	answers, err := newAnswerRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Repositories{Answer: answers, Backend: cfg.Store.Backend}, nil
}

// Close 释放全部仓库
func (r *Repositories) Close() error {
	return r.Answer.Close()
}

func newAnswerRepository(ctx context.Context, cfg *config.Config) (AnswerRepository, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendJSON:
		return NewJSONAnswerRepository(cfg.Store.AnswersFile)

	case config.StoreBackendDatabase:
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
		repo, err := NewGormAnswerRepository(db.DB)
		if err != nil {
			db.Close()
			return nil, err
		}
		return repo, nil

	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		repo, err := NewRedisAnswerRepository(ctx, client, cfg.Redis.KeyPrefix)
		if err != nil {
			client.Close()
			return nil, err
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
