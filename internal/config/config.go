package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Server
	Env         string
	Port        string
	LogLevel    string
	CORSOrigins []string
	EnablePprof bool

	// Database
	DBDriver     string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	DBSQLitePath string

	// JWT
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	MobileCodeTTL    time.Duration
	MaxLoginAttempts int
	LockoutDuration  time.Duration

	// Internal self-calls
	InternalAPIKey     string
	InternalAPIURL     string
	InternalAPITimeout time.Duration

	// Events
	AMQPURL            string
	AMQPExchange       string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	Email EmailConfig
}

// EmailConfig configures the optional reset summary mail.
type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Database drivers accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var appConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "")
	v.SetDefault("cors_allow_origins", "*")
	v.SetDefault("enable_pprof", false)

	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "presusimple")
	v.SetDefault("db_password", "presusimple")
	v.SetDefault("db_name", "presusimple")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_sqlite_path", "presusimple.db")

	v.SetDefault("jwt_secret", "fallback-secret-key-for-dev-only")
	v.SetDefault("access_token_ttl", "15m")
	v.SetDefault("refresh_token_ttl", "168h")
	v.SetDefault("mobile_code_ttl", "60s")
	v.SetDefault("max_login_attempts", 5)
	v.SetDefault("lockout_duration", "15m")

	v.SetDefault("internal_api_key", "dev-internal-api-key")
	v.SetDefault("internal_api_timeout", "5s")

	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "presusimple.events")
	v.SetDefault("outbox_poll_interval", "2s")
	v.SetDefault("outbox_batch_size", 50)

	v.SetDefault("email_enabled", false)
	v.SetDefault("email_port", 587)
}

// Load reads .env, defaults, an optional CONFIG_FILE and the environment,
// in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	config := &Config{
		Env:         v.GetString("env"),
		Port:        v.GetString("port"),
		LogLevel:    v.GetString("log_level"),
		CORSOrigins: splitList(v.GetString("cors_allow_origins")),
		EnablePprof: v.GetBool("enable_pprof"),

		DBDriver:     strings.ToLower(v.GetString("db_driver")),
		DBHost:       v.GetString("db_host"),
		DBPort:       v.GetString("db_port"),
		DBUser:       v.GetString("db_user"),
		DBPassword:   v.GetString("db_password"),
		DBName:       v.GetString("db_name"),
		DBSSLMode:    v.GetString("db_sslmode"),
		DBSQLitePath: v.GetString("db_sqlite_path"),

		JWTSecret:        v.GetString("jwt_secret"),
		AccessTokenTTL:   v.GetDuration("access_token_ttl"),
		RefreshTokenTTL:  v.GetDuration("refresh_token_ttl"),
		MobileCodeTTL:    v.GetDuration("mobile_code_ttl"),
		MaxLoginAttempts: v.GetInt("max_login_attempts"),
		LockoutDuration:  v.GetDuration("lockout_duration"),

		InternalAPIKey:     v.GetString("internal_api_key"),
		InternalAPIURL:     v.GetString("internal_api_url"),
		InternalAPITimeout: v.GetDuration("internal_api_timeout"),

		AMQPURL:            v.GetString("amqp_url"),
		AMQPExchange:       v.GetString("amqp_exchange"),
		OutboxPollInterval: v.GetDuration("outbox_poll_interval"),
		OutboxBatchSize:    v.GetInt("outbox_batch_size"),

		Email: EmailConfig{
			Enabled:  v.GetBool("email_enabled"),
			Host:     v.GetString("email_host"),
			Port:     v.GetInt("email_port"),
			Username: v.GetString("email_username"),
			Password: v.GetString("email_password"),
			From:     v.GetString("email_from"),
		},
	}

	if config.InternalAPIURL == "" {
		config.InternalAPIURL = "http://localhost:" + config.Port
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", c.DBDriver)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize)
	}
	if c.Env == "production" && c.JWTSecret == "fallback-secret-key-for-dev-only" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// PostgresDSN returns the key/value connection string used by gorm.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// PostgresURL returns the URL form used by golang-migrate.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Config) {
	appConfig = c
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
