// Package db opens the gorm connection used by the rate store, the series
// catalog and the run store.
package db

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	rateadapters "rate_backend/internal/feature/rates/adapters"
	seriesentity "rate_backend/internal/feature/serieslist/domain/entity"
	simadapters "rate_backend/internal/feature/simulation/adapters"
	"rate_backend/internal/platform/config"
)

// defaultRetryInterval は接続リトライの待機間隔の既定値です。
const defaultRetryInterval = 3 * time.Second

// Config はデータベース接続設定を保持します。
type Config struct {
	Driver       string
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	InstanceName string
	SQLitePath   string
}

// Opener は DSN から gorm.DB を開く関数です。テストで差し替えられます。
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	return Config{
		Driver:       os.Getenv("DB_DRIVER"),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		Host:         os.Getenv("DB_HOST"),
		Port:         os.Getenv("DB_PORT"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		SQLitePath:   os.Getenv("DB_SQLITE_PATH"),
	}
}

// FromAppConfig はアプリケーション設定のデータベース部分を変換します。
func FromAppConfig(c config.DatabaseConfig) Config {
	return Config{
		Driver:       c.Driver,
		User:         c.User,
		Password:     c.Password,
		Name:         c.Name,
		Host:         c.Host,
		Port:         c.Port,
		InstanceName: c.InstanceName,
		SQLitePath:   c.SQLitePath,
	}
}

// BuildDSN はドライバに応じた DSN 文字列を生成します。
// MySQL で InstanceName が設定されている場合は Cloud SQL の Unix ソケットを優先します。
func BuildDSN(cfg Config) string {
	switch driverName(cfg.Driver) {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	case "sqlite":
		if cfg.SQLitePath == "" {
			return "file::memory:?cache=shared"
		}
		return cfg.SQLitePath
	}
	if cfg.InstanceName != "" {
		return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// OpenerFor は設定されたドライバの Opener を返します。
func OpenerFor(driver string) (Opener, error) {
	switch driverName(driver) {
	case "mysql":
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(gmysql.Open(dsn), &gorm.Config{}) }, nil
	case "postgres":
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(postgres.Open(dsn), &gorm.Config{}) }, nil
	case "sqlite":
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(sqlite.Open(dsn), &gorm.Config{}) }, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

func driverName(d string) string {
	if d == "" {
		return "mysql"
	}
	return strings.ToLower(d)
}

// ConnectWithRetry は timeout に達するまで interval ごとに接続をリトライします。
func ConnectWithRetry(dsn string, timeout, interval time.Duration, opener Opener) (*gorm.DB, error) {
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", interval)
		time.Sleep(interval)
	}
}

// Migrate は全フィーチャーのテーブルを作成・更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&rateadapters.RateObservationModel{},
		&seriesentity.SeriesDefinition{},
		&simadapters.RunModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Open は設定に従って接続し、RunMigrations が有効ならマイグレーションを実行します。
func Open(c config.DatabaseConfig) (*gorm.DB, error) {
	cfg := FromAppConfig(c)
	opener, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	db, err := ConnectWithRetry(BuildDSN(cfg), timeout, c.RetryInterval, opener)
	if err != nil {
		return nil, err
	}
	slog.Info("database connected", "driver", driverName(cfg.Driver))

	if c.RunMigrations {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}
