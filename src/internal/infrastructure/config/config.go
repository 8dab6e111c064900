// Package config 讀取並驗證執行期設定（環境變數，可選 .env 檔）
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 不可變的執行期設定，啟動時解析一次後傳入各建構函數
type Config struct {
	Points   PointsConfig
	Worker   WorkerConfig
	Queue    QueueConfig
	Database DatabaseConfig
	Log      LogConfig

	// DefinitionsFile 選填的成就/徽章定義 YAML；空字串時使用內建預設目錄
	DefinitionsFile string `env:"DEFINITIONS_FILE"`
}

// PointsConfig 積分計算
type PointsConfig struct {
	PerCurrencyUnit int `env:"POINTS_PER_CURRENCY_UNIT" envDefault:"10"`
}

// WorkerConfig 非同步評估 worker
type WorkerConfig struct {
	MaxAttempts int           `env:"WORKER_MAX_ATTEMPTS" envDefault:"3"`
	Backoff     time.Duration `env:"WORKER_BACKOFF" envDefault:"30s"`
	Timeout     time.Duration `env:"WORKER_TIMEOUT" envDefault:"120s"`
	Concurrency int           `env:"WORKER_CONCURRENCY" envDefault:"4"`
}

// RetryWindow 單一工作最長可能佔用的時間（所有嘗試加上間隔）
func (w WorkerConfig) RetryWindow() time.Duration {
	return time.Duration(w.MaxAttempts) * (w.Timeout + w.Backoff)
}

// QueueConfig 評估佇列
//
// Lease 必須大於 Worker.RetryWindow，否則租約會在重試中途到期而被重複取出。
type QueueConfig struct {
	Backend      string        `env:"QUEUE_BACKEND" envDefault:"database"`
	PollInterval time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"500ms"`
	Lease        time.Duration `env:"QUEUE_LEASE" envDefault:"10m"`
	Buffer       int           `env:"QUEUE_BUFFER" envDefault:"1024"`
}

// DatabaseConfig 資料庫連線
type DatabaseConfig struct {
	Driver        string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DSN           string        `env:"DB_DSN" envDefault:"rewards.db"`
	MaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	SlowThreshold time.Duration `env:"DB_SLOW_THRESHOLD" envDefault:"200ms"`
}

// LogConfig 日誌
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	Dev   bool   `env:"LOG_DEV" envDefault:"false"`
}

// Prefix 所有環境變數的前綴
const Prefix = "REWARDS_"

// Load 先嘗試載入 .env（檔案不存在不算錯誤），再解析環境變數並驗證
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)
	return Parse()
}

// Parse 只從目前的環境變數解析並驗證
func Parse() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: Prefix})
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default 不讀取環境的預設設定
func Default() Config {
	cfg, _ := env.ParseAsWithOptions[Config](env.Options{
		Prefix:      Prefix,
		Environment: map[string]string{},
	})
	return cfg
}

// Validate 檢查設定值範圍
func (c Config) Validate() error {
	var errs []error
	if c.Points.PerCurrencyUnit < 1 || c.Points.PerCurrencyUnit > 1000 {
		errs = append(errs, fmt.Errorf("POINTS_PER_CURRENCY_UNIT must be between 1 and 1000, got %d", c.Points.PerCurrencyUnit))
	}
	if c.Worker.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("WORKER_MAX_ATTEMPTS must be >= 1, got %d", c.Worker.MaxAttempts))
	}
	if c.Worker.Backoff < 0 {
		errs = append(errs, fmt.Errorf("WORKER_BACKOFF must not be negative"))
	}
	if c.Worker.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_TIMEOUT must be positive"))
	}
	if c.Worker.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("WORKER_CONCURRENCY must be >= 1, got %d", c.Worker.Concurrency))
	}
	switch c.Queue.Backend {
	case "memory", "database":
	default:
		errs = append(errs, fmt.Errorf("QUEUE_BACKEND must be memory or database, got %q", c.Queue.Backend))
	}
	if c.Queue.PollInterval <= 0 || c.Queue.Lease <= 0 {
		errs = append(errs, fmt.Errorf("QUEUE_POLL_INTERVAL and QUEUE_LEASE must be positive"))
	}
	if c.Queue.Lease > 0 && c.Worker.MaxAttempts >= 1 && c.Queue.Lease <= c.Worker.RetryWindow() {
		errs = append(errs, fmt.Errorf("QUEUE_LEASE (%s) must exceed the worker retry window %s (WORKER_MAX_ATTEMPTS x (WORKER_TIMEOUT + WORKER_BACKOFF))",
			c.Queue.Lease, c.Worker.RetryWindow()))
	}
	if c.Queue.Buffer < 1 {
		errs = append(errs, fmt.Errorf("QUEUE_BUFFER must be >= 1, got %d", c.Queue.Buffer))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("DB_DSN is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
