// Package backup 在破坏性操作前保存答案文档快照
package backup

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ashwinyue/next-eval/internal/config"
)

// Storage 快照存储接口
type Storage interface {
	// Save 保存快照，返回对象名
	Save(ctx context.Context, req *SaveRequest) (string, error)
	// Get 读取快照内容
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	// List 列出全部快照，按名称排序
	List(ctx context.Context) ([]Object, error)
}

// SaveRequest 保存快照请求
type SaveRequest struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Object 已保存的快照
type Object struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeMinIO StorageType = "minio"
)

// ObjectName 生成快照对象名: {reason}/{20060102T150405Z}-{uuid}.json
func ObjectName(reason string, now time.Time) string {
	if reason == "" {
		reason = "manual"
	}
	return fmt.Sprintf("%s/%s-%s.json", reason, now.UTC().Format("20060102T150405Z"), uuid.New().String())
}

// NewStorageFromConfig 按配置创建快照存储，未启用时返回 (nil, nil)
func NewStorageFromConfig(cfg config.BackupConfig) (Storage, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var (
		storage Storage
		err     error
	)
	switch StorageType(cfg.Type) {
	case StorageTypeLocal, "":
		basePath := cfg.LocalPath
		if basePath == "" {
			basePath = "./data/backups"
		}
		storage, err = NewLocalStorage(basePath)

	case StorageTypeMinIO:
		m := cfg.MinIO
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.BucketName == "" {
			return nil, fmt.Errorf("missing required MinIO config")
		}
		storage, err = NewMinIOStorage(context.Background(), &MinIOConfig{
			Endpoint:   m.Endpoint,
			AccessKey:  m.AccessKey,
			SecretKey:  m.SecretKey,
			BucketName: m.BucketName,
			UseSSL:     m.UseSSL,
		})

	default:
		return nil, fmt.Errorf("unsupported backup storage type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create backup storage: %w", err)
	}
	return storage, nil
}
