// Package config loads service and CLI settings from defaults, an optional
// config file, the environment and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rate_backend/internal/platform/logger"
)

// EnvPrefix prefixes every environment variable derived from a config key,
// e.g. RATESIM_SIMULATION_N_PATHS for simulation.n_paths.
const EnvPrefix = "RATESIM"

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	ECB        ECBConfig        `mapstructure:"ecb"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Export     ExportConfig     `mapstructure:"export"`
	Log        logger.Config    `mapstructure:"log"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"` // empty disables CORS
	MaxPaths    int      `mapstructure:"max_paths"`    // upper bound on n_paths per request
	MaxHorizon  int      `mapstructure:"max_horizon"`  // upper bound on horizon per request
}

// DatabaseConfig selects the gorm driver and its connection settings.
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"` // mysql, postgres or sqlite
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	InstanceName   string        `mapstructure:"instance_name"` // Cloud SQL unix socket, mysql only
	SQLitePath     string        `mapstructure:"sqlite_path"`
	RunMigrations  bool          `mapstructure:"run_migrations"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RetryInterval  time.Duration `mapstructure:"retry_interval"`
}

// RedisConfig configures the optional rate cache.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis host is configured.
func (r RedisConfig) Enabled() bool { return r.Host != "" }

// Addr returns host:port.
func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

// ECBConfig configures the ECB statistical data client.
type ECBConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	LastObservations  int           `mapstructure:"last_observations"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// SimulationConfig holds the defaults of a calibrate-and-simulate run.
type SimulationConfig struct {
	Tenor       string  `mapstructure:"tenor"`
	DataCSV     string  `mapstructure:"data_csv"`
	Calibration string  `mapstructure:"calibration"` // ols or mle
	Method      string  `mapstructure:"method"`      // exact or euler
	Horizon     int     `mapstructure:"horizon"`
	DT          float64 `mapstructure:"dt"`
	NPaths      int     `mapstructure:"n_paths"`
	Seed        string  `mapstructure:"seed"` // empty draws a fresh seed
	FallbackOLS bool    `mapstructure:"fallback_ols"`
	ShowQuality bool    `mapstructure:"show_quality"`
}

// ExportConfig selects CLI output files.
type ExportConfig struct {
	PathsCSV  string `mapstructure:"paths_csv"`
	AllPaths  bool   `mapstructure:"all_paths"`
	StatsJSON string `mapstructure:"stats_json"`
}

// AuthConfig configures bearer tokens for the API.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// legacyEnv maps keys onto the unprefixed variables used by existing deployments.
var legacyEnv = map[string]string{
	"database.user":          "DB_USER",
	"database.password":      "DB_PASSWORD",
	"database.name":          "DB_NAME",
	"database.host":          "DB_HOST",
	"database.port":          "DB_PORT",
	"database.instance_name": "INSTANCE_CONNECTION_NAME",
	"database.run_migrations": "RUN_MIGRATIONS",
	"redis.host":             "REDIS_HOST",
	"redis.port":             "REDIS_PORT",
	"redis.password":         "REDIS_PASSWORD",
	"auth.jwt_secret":        "JWT_SECRET",
}

// FlagKeys maps CLI flag names onto config keys.
var FlagKeys = map[string]string{
	"tenor":            "simulation.tenor",
	"data-csv":         "simulation.data_csv",
	"calibration":      "simulation.calibration",
	"method":           "simulation.method",
	"horizon":          "simulation.horizon",
	"dt":               "simulation.dt",
	"n-paths":          "simulation.n_paths",
	"seed":             "simulation.seed",
	"fallback-ols":     "simulation.fallback_ols",
	"show-quality":     "simulation.show_quality",
	"export-csv":       "export.paths_csv",
	"export-all-paths": "export.all_paths",
	"export-stats":     "export.stats_json",
	"log-level":        "log.level",
	"addr":             "server.addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.max_paths", 100000)
	v.SetDefault("server.max_horizon", 2520)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.sqlite_path", "ratesim.db")
	v.SetDefault("database.run_migrations", false)
	v.SetDefault("database.connect_timeout", 60*time.Second)
	v.SetDefault("database.retry_interval", 3*time.Second)

	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ecb.base_url", "https://sdw-wsrest.ecb.europa.eu/service/data")
	v.SetDefault("ecb.timeout", 15*time.Second)
	v.SetDefault("ecb.last_observations", 600)
	v.SetDefault("ecb.requests_per_minute", 30)

	v.SetDefault("simulation.tenor", "3M")
	v.SetDefault("simulation.data_csv", "data/sample_euribor3m.csv")
	v.SetDefault("simulation.calibration", "mle")
	v.SetDefault("simulation.method", "exact")
	v.SetDefault("simulation.horizon", 252)
	v.SetDefault("simulation.dt", 1.0/252.0)
	v.SetDefault("simulation.n_paths", 10000)
	v.SetDefault("simulation.seed", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file_path", "logs/ratesim.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("auth.token_ttl", 24*time.Hour)
}

// Load reads configuration. path names an explicit config file; when empty a
// config.yaml in the working directory is used if present. fs, if non-nil,
// overrides keys listed in FlagKeys for flags the user set.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", legacy, err)
		}
	}

	if fs != nil {
		for name, key := range FlagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings that every entrypoint relies on.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Simulation.Horizon <= 0 {
		return fmt.Errorf("simulation.horizon must be positive, got %d", c.Simulation.Horizon)
	}
	if c.Simulation.NPaths <= 0 {
		return fmt.Errorf("simulation.n_paths must be positive, got %d", c.Simulation.NPaths)
	}
	if !(c.Simulation.DT > 0) {
		return fmt.Errorf("simulation.dt must be positive, got %v", c.Simulation.DT)
	}
	if c.ECB.LastObservations <= 0 {
		return fmt.Errorf("ecb.last_observations must be positive, got %d", c.ECB.LastObservations)
	}
	return nil
}
