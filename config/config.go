package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Advisor   AdvisorConfig   `yaml:"advisor"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// StoreConfig selects where the planner state lives.
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnectRetries  int           `yaml:"connect_retries"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

type AdvisorConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Env: "local",
		Server: ServerConfig{
			Host:         "",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Store: StoreConfig{Backend: StoreMemory},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "planner",
			Password:        "planner",
			Name:            "debt_planner",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnectRetries:  5,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Burst:             10,
		},
		Advisor: AdvisorConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
			MaxTokens: 300,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file
// (PLANNER_CONFIG_FILE), the .env file and finally the environment.
func Load() (Config, error) {
	cfg := Default()

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	if path := os.Getenv("PLANNER_CONFIG_FILE"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var err error

	cfg.Env = getEnv("APP_ENV", cfg.Env)

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	if cfg.Server.Port, err = parseIntEnv("SERVER_PORT", cfg.Server.Port); err != nil {
		return err
	}
	if cfg.Server.ReadTimeout, err = parseDurationEnv("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout); err != nil {
		return err
	}
	if cfg.Server.WriteTimeout, err = parseDurationEnv("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout); err != nil {
		return err
	}
	if cfg.Server.IdleTimeout, err = parseDurationEnv("SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout); err != nil {
		return err
	}

	cfg.Store.Backend = strings.ToLower(getEnv("STORE_BACKEND", cfg.Store.Backend))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	if value, ok := os.LookupEnv("REDIS_DB"); ok {
		db, convErr := strconv.Atoi(value)
		if convErr != nil || db < 0 {
			return fmt.Errorf("REDIS_DB must be a non-negative integer")
		}
		cfg.Redis.DB = db
	}
	if cfg.Redis.TTL, err = parseDurationEnv("REDIS_TTL", cfg.Redis.TTL); err != nil {
		return err
	}

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	if cfg.Database.Port, err = parseIntEnv("DB_PORT", cfg.Database.Port); err != nil {
		return err
	}
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	if cfg.Database.MaxOpenConns, err = parseIntEnv("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns); err != nil {
		return err
	}
	if cfg.Database.ConnMaxIdleTime, err = parseDurationEnv("DB_CONN_MAX_IDLE_TIME", cfg.Database.ConnMaxIdleTime); err != nil {
		return err
	}
	if cfg.Database.ConnectRetries, err = parseIntEnv("DB_CONNECT_RETRIES", cfg.Database.ConnectRetries); err != nil {
		return err
	}

	if cfg.RateLimit.RequestsPerMinute, err = parseIntEnv("RATE_LIMIT_PER_MINUTE", cfg.RateLimit.RequestsPerMinute); err != nil {
		return err
	}
	if cfg.RateLimit.Burst, err = parseIntEnv("RATE_LIMIT_BURST", cfg.RateLimit.Burst); err != nil {
		return err
	}

	cfg.Advisor.APIKey = getEnv("OPENAI_API_KEY", cfg.Advisor.APIKey)
	cfg.Advisor.BaseURL = getEnv("ADVISOR_BASE_URL", cfg.Advisor.BaseURL)
	cfg.Advisor.Model = getEnv("ADVISOR_MODEL", cfg.Advisor.Model)
	if cfg.Advisor.Timeout, err = parseDurationEnv("ADVISOR_TIMEOUT", cfg.Advisor.Timeout); err != nil {
		return err
	}
	if cfg.Advisor.MaxTokens, err = parseIntEnv("ADVISOR_MAX_TOKENS", cfg.Advisor.MaxTokens); err != nil {
		return err
	}

	return nil
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case StorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required for the postgres store")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required for the postgres store")
		}
		if c.Database.ConnectRetries <= 0 {
			return fmt.Errorf("DB_CONNECT_RETRIES must be greater than 0")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of %s, %s, %s", StoreMemory, StoreRedis, StorePostgres)
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}

	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be greater than 0")
	}

	if c.Advisor.MaxTokens <= 0 {
		return fmt.Errorf("ADVISOR_MAX_TOKENS must be greater than 0")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
