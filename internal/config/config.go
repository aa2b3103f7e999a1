// Package config loads service settings from an optional YAML file, an optional
// .env file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Scorer backends.
const (
	ScorerMistral = "mistral"
	ScorerGemini  = "gemini"
	ScorerFixed   = "fixed"
)

// Config holds every setting the server and the admin CLI need.
type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	DatabaseDSN string `yaml:"database_dsn"`
	LogLevel    string `yaml:"log_level"`

	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Scorer     ScorerConfig     `yaml:"scorer"`
	Presence   PresenceConfig   `yaml:"presence"`
	Submission SubmissionConfig `yaml:"submission"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

// RedisConfig is optional. An empty Addr disables Redis-backed features.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type ScorerConfig struct {
	Backend      string        `yaml:"backend"`
	Timeout      time.Duration `yaml:"timeout"`
	MistralKey   string        `yaml:"mistral_api_key"`
	MistralModel string        `yaml:"mistral_model"`
	MistralURL   string        `yaml:"mistral_url"`
	GeminiKey    string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model"`
	// FixedScore is returned by the fixed backend.
	FixedScore float64 `yaml:"fixed_score"`
}

type PresenceConfig struct {
	Window       time.Duration `yaml:"window"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type SubmissionConfig struct {
	PerHour int `yaml:"per_hour"`
	Burst   int `yaml:"burst"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
		Auth: AuthConfig{
			TokenTTL: DefaultTokenTTL,
		},
		Scorer: ScorerConfig{
			Backend:      ScorerMistral,
			Timeout:      DefaultScorerTimeout,
			MistralModel: DefaultMistralModel,
			MistralURL:   DefaultMistralURL,
			GeminiModel:  DefaultGeminiModel,
			FixedScore:   FallbackUrgencyScore,
		},
		Presence: PresenceConfig{
			Window:       PresenceWindow,
			PollInterval: PresencePollInterval,
		},
		Submission: SubmissionConfig{
			PerHour: SubmissionsPerHour,
			Burst:   SubmissionBurst,
		},
	}
}

// Load reads .env (if present), the YAML file named by CIVIC_CONFIG (if set)
// and the environment.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()
	return LoadFrom(os.Getenv("CIVIC_CONFIG"), os.Getenv)
}

// LoadFrom builds a Config from an optional YAML file and an environment lookup.
func LoadFrom(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString(&cfg.HTTPAddr, getenv("HTTP_ADDR"))
	setString(&cfg.LogLevel, getenv("LOG_LEVEL"))

	setString(&cfg.DatabaseDSN, getenv("DATABASE_URL"))
	if cfg.DatabaseDSN == "" && getenv("DB_HOST") != "" {
		cfg.DatabaseDSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getenv("DB_HOST"),
			getenv("DB_USER"),
			getenv("DB_PASSWORD"),
			getenv("DB_NAME"),
			getenv("DB_PORT"),
		)
	}

	setString(&cfg.Redis.Addr, getenv("REDIS_ADDR"))
	setString(&cfg.Redis.Password, getenv("REDIS_PASSWORD"))
	setString(&cfg.Auth.JWTSecret, getenv("JWT_SECRET"))
	setString(&cfg.Scorer.Backend, getenv("SCORER_BACKEND"))
	setString(&cfg.Scorer.MistralKey, getenv("MISTRAL_API_KEY"))
	setString(&cfg.Scorer.MistralModel, getenv("MISTRAL_MODEL"))
	setString(&cfg.Scorer.MistralURL, getenv("MISTRAL_URL"))
	setString(&cfg.Scorer.GeminiKey, getenv("GEMINI_API_KEY"))
	setString(&cfg.Scorer.GeminiModel, getenv("GEMINI_MODEL"))
	setString(&cfg.Telegram.BotToken, getenv("TELEGRAM_BOT_TOKEN"))

	var errs []error
	errs = append(errs,
		setInt(&cfg.Redis.DB, "REDIS_DB", getenv),
		setInt(&cfg.Submission.PerHour, "SUBMISSIONS_PER_HOUR", getenv),
		setInt(&cfg.Submission.Burst, "SUBMISSION_BURST", getenv),
		setDuration(&cfg.Auth.TokenTTL, "TOKEN_TTL", getenv),
		setDuration(&cfg.Scorer.Timeout, "SCORER_TIMEOUT", getenv),
		setDuration(&cfg.Presence.Window, "PRESENCE_WINDOW", getenv),
		setDuration(&cfg.Presence.PollInterval, "PRESENCE_POLL_INTERVAL", getenv),
	)
	if raw := getenv("SCORER_FIXED_SCORE"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SCORER_FIXED_SCORE: %w", err))
		} else {
			cfg.Scorer.FixedScore = v
		}
	}
	return errors.Join(errs...)
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required (DATABASE_URL or DB_HOST...)"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token TTL must be positive"))
	}
	switch c.Scorer.Backend {
	case ScorerMistral, ScorerGemini:
	case ScorerFixed:
		if c.Scorer.FixedScore < MinUrgencyScore || c.Scorer.FixedScore > MaxUrgencyScore {
			errs = append(errs, fmt.Errorf("fixed score %v outside [0,1]", c.Scorer.FixedScore))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown scorer backend %q", c.Scorer.Backend))
	}
	if c.Presence.Window <= 0 {
		errs = append(errs, errors.New("presence window must be positive"))
	}
	if c.Submission.PerHour <= 0 || c.Submission.Burst <= 0 {
		errs = append(errs, errors.New("submission limits must be positive"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string, getenv func(string) string) error {
	raw := getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func setDuration(dst *time.Duration, key string, getenv func(string) string) error {
	raw := getenv(key)
	if raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}
