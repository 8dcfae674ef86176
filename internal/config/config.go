package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application settings
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Quiz      QuizConfig
	Email     EmailConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// MigrationsPath is the golang-migrate source, e.g. "file://migrations"
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig holds the unified Redis settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	Mode            string   `mapstructure:"mode"`
	Addrs           []string `mapstructure:"addrs"`
	Addr            string   `mapstructure:"addr"`
	Password        string   `mapstructure:"password"`
	DB              int      `mapstructure:"db"`
	MasterName      string   `mapstructure:"master_name"`
	MaxRetries      int      `mapstructure:"max_retries"`
	MinRetryBackoff int      `mapstructure:"min_retry_backoff"` // ms
	MaxRetryBackoff int      `mapstructure:"max_retry_backoff"` // ms
}

// QuizConfig holds the quiz runtime settings. The 2h duration is fixed and not configurable.
type QuizConfig struct {
	// CacheLiveTTL applies while the quiz window is open, CacheIdleTTL otherwise
	CacheLiveTTL time.Duration `mapstructure:"cache_live_ttl"`
	CacheIdleTTL time.Duration `mapstructure:"cache_idle_ttl"`
	// ContentTimeout bounds content store reads on the submission path
	ContentTimeout time.Duration `mapstructure:"content_timeout"`
	// SubmissionGrace is accepted after start+2h for in-flight auto submissions
	SubmissionGrace time.Duration `mapstructure:"submission_grace"`
	// AutosaveDebounce and AutosaveInterval are advertised to clients
	AutosaveDebounce time.Duration `mapstructure:"autosave_debounce"`
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
}

// EmailConfig holds transactional email settings
type EmailConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ResendAPIKey string        `mapstructure:"resend_api_key"`
	From         string        `mapstructure:"from"`
	SendTimeout  time.Duration `mapstructure:"send_timeout"`
}

// AdminConfig holds the export area session settings
type AdminConfig struct {
	// PasswordHash is a bcrypt hash of the shared admin password
	PasswordHash  string        `mapstructure:"password_hash"`
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	CookieName    string        `mapstructure:"cookie_name"`
}

// RateLimitConfig holds per-IP limits for the write endpoints
type RateLimitConfig struct {
	ProgressRequests int           `mapstructure:"progress_requests"`
	SubmitRequests   int           `mapstructure:"submit_requests"`
	Window           time.Duration `mapstructure:"window"`
}

// PostgresConnectionString builds the PostgreSQL DSN
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 30)
	vip.SetDefault("server.allowed_origins", []string{"https://fihu.gr", "http://localhost:3000"})

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_path", "file://migrations")

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("quiz.cache_live_ttl", 30*time.Second)
	vip.SetDefault("quiz.cache_idle_ttl", 5*time.Minute)
	vip.SetDefault("quiz.content_timeout", 5*time.Second)
	vip.SetDefault("quiz.submission_grace", 10*time.Minute)
	vip.SetDefault("quiz.autosave_debounce", 2*time.Second)
	vip.SetDefault("quiz.autosave_interval", 30*time.Second)

	vip.SetDefault("email.enabled", false)
	vip.SetDefault("email.from", "Formula IHU <noreply@fihu.gr>")
	vip.SetDefault("email.send_timeout", 15*time.Second)

	vip.SetDefault("admin.session_ttl", 8*time.Hour)
	vip.SetDefault("admin.cookie_name", "fihu_admin_session")

	vip.SetDefault("ratelimit.progress_requests", 120)
	vip.SetDefault("ratelimit.submit_requests", 10)
	vip.SetDefault("ratelimit.window", time.Minute)
}

func bindEnv(vip *viper.Viper) {
	bindings := map[string]string{
		"database.host":     "DATABASE_HOST",
		"database.port":     "DATABASE_PORT",
		"database.user":     "DATABASE_USER",
		"database.password": "DATABASE_PASSWORD",
		"database.dbname":   "DATABASE_DBNAME",
		"database.sslmode":  "DATABASE_SSLMODE",

		"redis.mode":        "REDIS_MODE",
		"redis.addrs":       "REDIS_ADDRS",
		"redis.addr":        "REDIS_ADDR",
		"redis.password":    "REDIS_PASSWORD",
		"redis.db":          "REDIS_DB",
		"redis.master_name": "REDIS_MASTER_NAME",

		"server.port": "SERVER_PORT",

		"email.enabled":        "EMAIL_ENABLED",
		"email.resend_api_key": "RESEND_API_KEY",
		"email.from":           "EMAIL_FROM",

		"admin.password_hash":  "ADMIN_PASSWORD_HASH",
		"admin.session_secret": "ADMIN_SESSION_SECRET",
	}
	for key, env := range bindings {
		_ = vip.BindEnv(key, env)
	}
}

// Load reads the config file (optional) merged with bound env vars
func Load(configPath string) (*Config, error) {
	// a local .env is a development convenience; missing is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[Config] Warning: failed to read .env: %v", err)
	}

	vip := viper.New()
	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				log.Printf("[Config] Config file '%s' not found, using env vars and defaults", configPath)
			} else {
				log.Printf("[Config] Warning: could not read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("[Config] --- loaded configuration ---")
		log.Printf("[Config] Database: %s@%s:%s/%s (sslmode=%s)", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, cfg.Database.SSLMode)
		log.Printf("[Config] Redis: mode=%s addr=%s addrs=%v", cfg.Redis.Mode, cfg.Redis.Addr, cfg.Redis.Addrs)
		log.Printf("[Config] Server port: %s", cfg.Server.Port)
		log.Printf("[Config] Email enabled: %t", cfg.Email.Enabled)
		log.Printf("[Config] Admin password set: %t", cfg.Admin.PasswordHash != "")
	}

	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateDatabase checks the settings every command needs
func (c *Config) ValidateDatabase() error {
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if os.Getenv("GIN_MODE") == "release" && c.Database.Password == "" {
		return fmt.Errorf("database password is required in release mode (check DATABASE_PASSWORD env var)")
	}
	return nil
}

// ValidateServer checks the additional settings the HTTP server cannot start without
func (c *Config) ValidateServer() error {
	if c.Redis.Addr == "" && len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("redis configuration is incomplete (check REDIS_ADDR or REDIS_ADDRS env vars)")
	}
	if c.Admin.SessionSecret == "" || c.Admin.PasswordHash == "" {
		return fmt.Errorf("admin session secret and password hash are required (check ADMIN_SESSION_SECRET, ADMIN_PASSWORD_HASH env vars)")
	}
	if len(c.Admin.SessionSecret) < 32 {
		return fmt.Errorf("admin session secret must be at least 32 characters")
	}
	if c.Email.Enabled && c.Email.ResendAPIKey == "" {
		return fmt.Errorf("email is enabled but RESEND_API_KEY is not set")
	}
	return nil
}
