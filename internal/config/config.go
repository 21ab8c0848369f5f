package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Data     DataConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Backup   BackupConfig
	Log      LogConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
	AllowOrigins []string
}

// DataConfig 静态数据文件
type DataConfig struct {
	QuestionsFile string
	ModelsFile    string
	RubricFile    string
}

// StoreBackend 答案存储后端
type StoreBackend string

const (
	StoreBackendJSON     StoreBackend = "json"
	StoreBackendDatabase StoreBackend = "database"
	StoreBackendRedis    StoreBackend = "redis"
)

// StoreConfig 答案存储配置
type StoreConfig struct {
	Backend     StoreBackend
	AnswersFile string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver       string // postgres | sqlite
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// BackupConfig 快照备份配置
type BackupConfig struct {
	Enabled   bool
	Type      string // local | minio
	LocalPath string
	MinIO     MinIOConfig
}

// MinIOConfig MinIO 配置
type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("NEXT_EVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendJSON:
		if c.Store.AnswersFile == "" {
			return fmt.Errorf("store.answersFile is required for json backend")
		}
	case StoreBackendDatabase:
		if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
			return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
		}
	case StoreBackendRedis:
	default:
		return fmt.Errorf("unsupported store backend %q", c.Store.Backend)
	}

	if c.Data.QuestionsFile == "" || c.Data.ModelsFile == "" {
		return fmt.Errorf("data.questionsFile and data.modelsFile are required")
	}

	if c.Backup.Enabled && c.Backup.Type != "local" && c.Backup.Type != "minio" {
		return fmt.Errorf("unsupported backup type %q", c.Backup.Type)
	}
	return nil
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "next-eval")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "2.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.allowOrigins", []string{"*"})

	// Data
	v.SetDefault("data.questionsFile", "./data/questions.json")
	v.SetDefault("data.modelsFile", "./data/models.json")
	v.SetDefault("data.rubricFile", "./data/scoring_rubric.json")

	// Store
	v.SetDefault("store.backend", string(StoreBackendJSON))
	v.SetDefault("store.answersFile", "./data/answers.json")

	// Database
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "next_eval")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlitePath", "./data/answers.db")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyPrefix", "next_eval")

	// Backup
	v.SetDefault("backup.enabled", true)
	v.SetDefault("backup.type", "local")
	v.SetDefault("backup.localPath", "./data/backups")
	v.SetDefault("backup.minio.bucketName", "next-eval-backups")

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.maxSize", 100)
	v.SetDefault("log.maxBackups", 5)
	v.SetDefault("log.maxAge", 30)
	v.SetDefault("log.compress", true)
}
