package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingSecret = errors.New("auth.hmac_secret must be set in production")

const devSecret = "dev-secret-change-me"

type Config struct {
	Env      string `mapstructure:"env"` // local, development, production
	HTTPAddr string `mapstructure:"http_addr"`

	DB        DB        `mapstructure:"database"`
	Themes    Themes    `mapstructure:"themes"`
	Protocols Protocols `mapstructure:"protocols"`
	Auth      Auth      `mapstructure:"auth"`
	CORS      CORS      `mapstructure:"cors"`
	Log       Log       `mapstructure:"log"`
	Quiz      Quiz      `mapstructure:"quiz"`
}

type DB struct {
	Driver string `mapstructure:"driver"` // sqlite|postgres
	DSN    string `mapstructure:"dsn"`
}

type Themes struct {
	Store string `mapstructure:"store"` // fs|sql
	Dir   string `mapstructure:"dir"`
}

type Protocols struct {
	Driver   string `mapstructure:"driver"` // fs|minio
	BasePath string `mapstructure:"base_path"`
	MinIO    MinIO  `mapstructure:"minio"`
}

type MinIO struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type Auth struct {
	HMACSecret     string `mapstructure:"hmac_secret"`
	EditorUser     string `mapstructure:"editor_user"`
	EditorPassHash string `mapstructure:"editor_pass_hash"` // bcrypt; empty outside production means password "editor"
}

type CORS struct {
	Origins []string `mapstructure:"origins"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // rotated JSON log; empty disables
}

type Quiz struct {
	DefaultQuestionCount int           `mapstructure:"default_question_count"`
	SessionTTL           time.Duration `mapstructure:"session_ttl"` // idle sessions older than this are dropped
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads config/config.yaml when present, then the environment.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("themes.store", "fs")
	v.SetDefault("themes.dir", "./themes")
	v.SetDefault("protocols.driver", "fs")
	v.SetDefault("protocols.base_path", "./protocols")
	v.SetDefault("protocols.minio.bucket", "protocols")
	v.SetDefault("protocols.minio.use_ssl", false)
	v.SetDefault("auth.hmac_secret", devSecret)
	v.SetDefault("auth.editor_user", "editor")
	v.SetDefault("auth.editor_pass_hash", "")
	v.SetDefault("cors.origins", "http://localhost:3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("quiz.default_question_count", 10)
	v.SetDefault("quiz.session_ttl", "12h")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	binds := map[string]string{
		"env":                         "APP_ENV",
		"http_addr":                   "HTTP_ADDR",
		"database.driver":             "DB_DRIVER",
		"database.dsn":                "DB_DSN",
		"themes.store":                "THEME_STORE",
		"themes.dir":                  "THEMES_DIR",
		"protocols.driver":            "BLOB_DRIVER",
		"protocols.base_path":         "BLOB_BASE_PATH",
		"protocols.minio.endpoint":    "MINIO_ENDPOINT",
		"protocols.minio.access_key":  "MINIO_ACCESS_KEY",
		"protocols.minio.secret_key":  "MINIO_SECRET_KEY",
		"protocols.minio.bucket":      "MINIO_BUCKET",
		"protocols.minio.use_ssl":     "MINIO_USE_SSL",
		"auth.hmac_secret":            "AUTH_HMAC_SECRET",
		"auth.editor_user":            "EDITOR_USER",
		"auth.editor_pass_hash":       "EDITOR_PASS_HASH",
		"cors.origins":                "CORS_ORIGINS",
		"log.level":                   "LOG_LEVEL",
		"log.file":                    "LOG_FILE",
		"quiz.default_question_count": "DEFAULT_QUESTION_COUNT",
		"quiz.session_ttl":            "SESSION_TTL",
	}
	for key, env := range binds {
		_ = v.BindEnv(key, env)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	origins := make([]string, 0, len(cfg.CORS.Origins))
	for _, o := range cfg.CORS.Origins {
		origins = append(origins, csv(o)...)
	}
	cfg.CORS.Origins = origins

	cfg.Auth.HMACSecret = strings.TrimSpace(cfg.Auth.HMACSecret)
	switch {
	case cfg.IsProduction() && (cfg.Auth.HMACSecret == "" || cfg.Auth.HMACSecret == devSecret):
		return nil, ErrMissingSecret
	case cfg.Auth.HMACSecret == "":
		cfg.Auth.HMACSecret = devSecret
	}
	if cfg.Quiz.DefaultQuestionCount <= 0 {
		cfg.Quiz.DefaultQuestionCount = 10
	}
	return &cfg, nil
}

func csv(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
