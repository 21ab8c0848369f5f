// Package service 组装业务服务
package service

import (
	"go.uber.org/zap"

	"github.com/ashwinyue/next-eval/internal/catalog"
	"github.com/ashwinyue/next-eval/internal/config"
	"github.com/ashwinyue/next-eval/internal/monitoring"
	"github.com/ashwinyue/next-eval/internal/repository"
	"github.com/ashwinyue/next-eval/internal/service/backup"
	"github.com/ashwinyue/next-eval/internal/service/evaluation"
)

// Services 服务集合
type Services struct {
	Evaluation *evaluation.Service

	Config  *config.Config
	Data    *catalog.Data
	Metrics *monitoring.Metrics
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, data *catalog.Data, cfg *config.Config, metrics *monitoring.Metrics, logger *zap.Logger) (*Services, error) {
	backups, err := backup.NewStorageFromConfig(cfg.Backup)
	if err != nil {
		return nil, err
	}
	if backups != nil {
		logger.Info("backup storage ready", zap.String("type", cfg.Backup.Type))
	}

	answersFile := ""
	if repo.Backend == config.StoreBackendJSON {
		answersFile = cfg.Store.AnswersFile
	}

	eval := evaluation.NewService(repo.Answer, data, evaluation.Options{
		Backups: backups,
		Metrics: metrics,
		Logger:  logger.Named("evaluation"),
		DataFiles: evaluation.DefaultDataFiles(
			cfg.Data.QuestionsFile,
			cfg.Data.ModelsFile,
			answersFile,
			cfg.Data.RubricFile,
		),
	})

	return &Services{
		Evaluation: eval,
		Config:     cfg,
		Data:       data,
		Metrics:    metrics,
	}, nil
}
