package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chronicle/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	Archive  ArchiveConfig
	Access   AccessConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string `validate:"required"`
	Env  string `validate:"oneof=development production"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string `validate:"oneof=sqlite postgres"`
	Path            string // sqlite file path
	Host            string
	Port            int `validate:"gte=0"`
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int `validate:"gte=0"`
	MaxIdleConns    int `validate:"gte=0"`
	ConnMaxLifetime int `validate:"gte=0"` // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
	Output string `validate:"required"`
}

// ArchiveConfig holds the default options applied to archive resolutions
type ArchiveConfig struct {
	DateField   string `validate:"required"`
	PageSize    int    `validate:"gte=0"`
	NumLatest   int    `validate:"gt=0"`
	AllowEmpty  bool
	AllowFuture bool
}

// AccessConfig holds the user and group fixtures the CLI evaluates
// permissions against.
type AccessConfig struct {
	Groups []GroupConfig `mapstructure:"groups"`
	Users  []UserConfig  `mapstructure:"users"`
}

// GroupConfig declares a named group and its permission codes
type GroupConfig struct {
	Name        string   `mapstructure:"name"`
	Permissions []string `mapstructure:"permissions"`
}

// UserConfig declares a user, its flags, direct grants and group memberships
type UserConfig struct {
	Username    string   `mapstructure:"username"`
	Active      bool     `mapstructure:"active"`
	Staff       bool     `mapstructure:"staff"`
	Superuser   bool     `mapstructure:"superuser"`
	Permissions []string `mapstructure:"permissions"`
	Groups      []string `mapstructure:"groups"`
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with CHRONICLE_ prefix (e.g., CHRONICLE_DATABASE_PASSWORD)
// 2. The config file (explicit path, or config.toml on the search path)
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/chronicle")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars apply.
	}

	v.SetEnvPrefix("CHRONICLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// allow_empty defaults on; the other defaults live in applyDefaults where
	// the zero value is unambiguous.
	v.SetDefault("archive.allow_empty", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Archive: ArchiveConfig{
			DateField:   v.GetString("archive.date_field"),
			PageSize:    v.GetInt("archive.page_size"),
			NumLatest:   v.GetInt("archive.num_latest"),
			AllowEmpty:  v.GetBool("archive.allow_empty"),
			AllowFuture: v.GetBool("archive.allow_future"),
		},
	}

	if err := v.UnmarshalKey("access", &cfg.Access); err != nil {
		return nil, fmt.Errorf("error parsing access fixtures: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "chronicle"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "chronicle.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Archive.DateField == "" {
		cfg.Archive.DateField = "published_at"
	}
	if cfg.Archive.PageSize == 0 {
		cfg.Archive.PageSize = 20
	}
	if cfg.Archive.NumLatest == 0 {
		cfg.Archive.NumLatest = 15
	}
}

// validate checks the whole config at once and reports every violation
func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	keys := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		keys = append(keys, strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config.")))
	}
	return shared.NewConfigError(keys...)
}
