package db

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"rate_backend/internal/platform/config"
)

// TestBuildDSN_MySQL はTCP接続とCloud SQL Unixソケット接続のDSN文字列を検証します。
// InstanceName が設定されている場合は Host/Port より優先されます。
func TestBuildDSN_MySQL(t *testing.T) {
	t.Parallel()

	const opts = "?charset=utf8mb4&parseTime=true&loc=Local"
	testCases := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "tcp",
			cfg:  Config{User: "sim", Password: "pw", Name: "rates", Host: "localhost", Port: "3306"},
			want: "sim:pw@tcp(localhost:3306)/rates" + opts,
		},
		{
			name: "cloud sql",
			cfg:  Config{Driver: "mysql", User: "sim", Password: "pw", Name: "rates", InstanceName: "proj:europe-west3:rates"},
			want: "sim:pw@unix(/cloudsql/proj:europe-west3:rates)/rates" + opts,
		},
		{
			name: "cloud sql takes precedence",
			cfg:  Config{User: "sim", Password: "pw", Name: "rates", Host: "localhost", Port: "3306", InstanceName: "proj:europe-west3:rates"},
			want: "sim:pw@unix(/cloudsql/proj:europe-west3:rates)/rates" + opts,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildDSN(tc.cfg); got != tc.want {
				t.Errorf("expected DSN %q, got %q", tc.want, got)
			}
		})
	}
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	opener := func(dsn string) (*gorm.DB, error) {
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 5*time.Second, time.Millisecond, opener)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != mockDB {
		t.Error("expected mock DB to be returned")
	}
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attemptCount := 0

	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		if attemptCount < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 5*time.Second, 10*time.Millisecond, opener)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != mockDB {
		t.Error("expected mock DB to be returned")
	}
	if attemptCount != 3 {
		t.Errorf("expected 3 attempts, got %d", attemptCount)
	}
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後にエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	attemptCount := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		return nil, errors.New("connection refused")
	}

	_, err := ConnectWithRetry("test-dsn", 50*time.Millisecond, 10*time.Millisecond, opener)

	if err == nil {
		t.Fatal("expected error after timeout, got nil")
	}
	if attemptCount < 2 {
		t.Errorf("expected retries before giving up, got %d attempts", attemptCount)
	}
}

// TestLoadConfigFromEnv は環境変数からデータベース設定が正しく読み込まれることを検証します。
func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_SQLITE_PATH", "")
	t.Setenv("DB_USER", "envuser")
	t.Setenv("DB_PASSWORD", "envpass")
	t.Setenv("DB_NAME", "envdb")
	t.Setenv("DB_HOST", "envhost")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("INSTANCE_CONNECTION_NAME", "")

	cfg := LoadConfigFromEnv()

	if cfg.Driver != "postgres" {
		t.Errorf("expected Driver 'postgres', got %q", cfg.Driver)
	}
	if cfg.User != "envuser" {
		t.Errorf("expected User 'envuser', got %q", cfg.User)
	}
	if cfg.Password != "envpass" {
		t.Errorf("expected Password 'envpass', got %q", cfg.Password)
	}
	if cfg.Name != "envdb" {
		t.Errorf("expected Name 'envdb', got %q", cfg.Name)
	}
	if cfg.Host != "envhost" {
		t.Errorf("expected Host 'envhost', got %q", cfg.Host)
	}
	if cfg.Port != "3307" {
		t.Errorf("expected Port '3307', got %q", cfg.Port)
	}
}

func TestBuildDSN_Drivers(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "postgres",
			cfg:  Config{Driver: "postgres", User: "u", Password: "p", Name: "rates", Host: "db", Port: "5432"},
			want: "host=db port=5432 user=u password=p dbname=rates sslmode=disable TimeZone=UTC",
		},
		{
			name: "sqlite file",
			cfg:  Config{Driver: "SQLite", SQLitePath: "/var/lib/ratesim.db"},
			want: "/var/lib/ratesim.db",
		},
		{
			name: "sqlite memory",
			cfg:  Config{Driver: "sqlite"},
			want: "file::memory:?cache=shared",
		},
		{
			name: "empty driver is mysql",
			cfg:  Config{User: "u", Password: "p", Name: "rates", Host: "h", Port: "3306"},
			want: "u:p@tcp(h:3306)/rates?charset=utf8mb4&parseTime=true&loc=Local",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildDSN(tc.cfg); got != tc.want {
				t.Errorf("expected DSN %q, got %q", tc.want, got)
			}
		})
	}
}

// TestOpenerFor は未知のドライバがエラーになることを検証します。
func TestOpenerFor(t *testing.T) {
	t.Parallel()

	for _, d := range []string{"", "mysql", "postgres", "sqlite"} {
		if _, err := OpenerFor(d); err != nil {
			t.Errorf("driver %q: unexpected error: %v", d, err)
		}
	}
	if _, err := OpenerFor("oracle"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

// TestOpen_SQLiteMigrates はsqliteで接続しマイグレーションが全テーブルを作成することを検証します。
func TestOpen_SQLiteMigrates(t *testing.T) {
	db, err := Open(config.DatabaseConfig{
		Driver:         "sqlite",
		SQLitePath:     "file:open_test?mode=memory&cache=shared",
		RunMigrations:  true,
		ConnectTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, table := range []string{"rate_observations", "series_definitions", "simulation_runs"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("expected table %q to exist", table)
		}
	}
}
