// Package config loads service settings through viper: built-in defaults,
// an optional YAML file, then environment variables (REDIS_ADDR, JUDGE_API_KEY, ...).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jason-s-yu/argumentor/internal/cache"
	"github.com/jason-s-yu/argumentor/internal/debate"
	"github.com/jason-s-yu/argumentor/internal/judge"
	"github.com/jason-s-yu/argumentor/internal/store"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Store     StoreConfig     `mapstructure:"store"`
	Debate    DebateConfig    `mapstructure:"debate"`
	Judge     JudgeConfig     `mapstructure:"judge"`
	Auth      AuthConfig      `mapstructure:"auth"`
	ActionLog ActionLogConfig `mapstructure:"actionlog"`
	Log       LogConfig       `mapstructure:"log"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

type StoreConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	EvaluatedTTL time.Duration `mapstructure:"evaluated_ttl"`
}

type DebateConfig struct {
	ArgumentsPerSide int           `mapstructure:"arguments_per_side"`
	TurnDuration     time.Duration `mapstructure:"turn_duration"`
	SideSelection    bool          `mapstructure:"side_selection"`
	MaxMessageLength int           `mapstructure:"max_message_length"`
}

type JudgeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	// SeatKeySeed derives the seat token key; empty means a random key per process.
	SeatKeySeed string        `mapstructure:"seat_key_seed"`
	SeatTTL     time.Duration `mapstructure:"seat_ttl"`
}

type ActionLogConfig struct {
	// Queue is the Redis list receiving applied actions. Empty disables the log.
	Queue string `mapstructure:"queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP:  HTTPConfig{Port: 8080},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Store: StoreConfig{TTL: store.DefaultTTL, EvaluatedTTL: store.DefaultEvaluatedTTL},
		Debate: DebateConfig{
			ArgumentsPerSide: debate.DefaultArgumentsPerSide,
			TurnDuration:     debate.DefaultTurnDuration,
			SideSelection:    true,
			MaxMessageLength: debate.DefaultMaxMessageLength,
		},
		Judge: JudgeConfig{
			BaseURL: judge.DefaultBaseURL,
			Model:   judge.DefaultModel,
			Timeout: 60 * time.Second,
		},
		Auth:      AuthConfig{SeatTTL: 24 * time.Hour},
		ActionLog: ActionLogConfig{Queue: cache.DefaultQueueName},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers every default with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("http.port", d.HTTP.Port)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.password", d.Redis.Password)

	v.SetDefault("store.ttl", d.Store.TTL)
	v.SetDefault("store.evaluated_ttl", d.Store.EvaluatedTTL)

	v.SetDefault("debate.arguments_per_side", d.Debate.ArgumentsPerSide)
	v.SetDefault("debate.turn_duration", d.Debate.TurnDuration)
	v.SetDefault("debate.side_selection", d.Debate.SideSelection)
	v.SetDefault("debate.max_message_length", d.Debate.MaxMessageLength)

	v.SetDefault("judge.base_url", d.Judge.BaseURL)
	v.SetDefault("judge.api_key", d.Judge.APIKey)
	v.SetDefault("judge.model", d.Judge.Model)
	v.SetDefault("judge.timeout", d.Judge.Timeout)

	v.SetDefault("auth.seat_key_seed", d.Auth.SeatKeySeed)
	v.SetDefault("auth.seat_ttl", d.Auth.SeatTTL)

	v.SetDefault("actionlog.queue", d.ActionLog.Queue)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Init prepares v: defaults, env overrides with "." mapped to "_", and the
// config file if one is given. A missing default config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}
	v.SetConfigName("argumentor")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/argumentor")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if c.Store.TTL <= 0 {
		errs = append(errs, errors.New("store.ttl must be positive"))
	}
	if c.Store.EvaluatedTTL <= 0 {
		errs = append(errs, errors.New("store.evaluated_ttl must be positive"))
	}
	if c.Debate.ArgumentsPerSide <= 0 {
		errs = append(errs, errors.New("debate.arguments_per_side must be positive"))
	}
	if c.Debate.TurnDuration <= 0 {
		errs = append(errs, errors.New("debate.turn_duration must be positive"))
	}
	if c.Debate.MaxMessageLength <= 0 {
		errs = append(errs, errors.New("debate.max_message_length must be positive"))
	}
	if c.Judge.Timeout <= 0 {
		errs = append(errs, errors.New("judge.timeout must be positive"))
	}
	if c.Auth.SeatTTL < 0 {
		errs = append(errs, errors.New("auth.seat_ttl must not be negative"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Rules converts the debate section into engine rules.
func (c *Config) Rules() debate.Rules {
	return debate.Rules{
		ArgumentsPerSide: c.Debate.ArgumentsPerSide,
		TurnDuration:     c.Debate.TurnDuration,
		SideSelection:    c.Debate.SideSelection,
		MaxMessageLength: c.Debate.MaxMessageLength,
	}
}

// TTLPolicy converts the store section into a store TTL policy.
func (c *Config) TTLPolicy() store.TTLPolicy {
	return store.TTLPolicy{Default: c.Store.TTL, Evaluated: c.Store.EvaluatedTTL}
}
