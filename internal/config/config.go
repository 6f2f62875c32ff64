package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/cypherlabdev/betdesk-service/internal/service"
)

// Config holds all configuration for betdesk-service
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Book    BookConfig    `mapstructure:"book"`
	Staking StakingConfig `mapstructure:"staking"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"` // Topic to consume from (feed_snapshots)
	GroupID string   `mapstructure:"group_id"`
}

// RedisConfig holds Redis configuration for the snapshot cache
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// BookConfig holds position book storage configuration
type BookConfig struct {
	Path string `mapstructure:"path"` // SQLite database file
}

// StakingConfig holds operator-level staking defaults
type StakingConfig struct {
	Bankroll     float64 `mapstructure:"bankroll"`       // Bankroll in stake units
	RiskFraction float64 `mapstructure:"risk_fraction"`  // Kelly fraction, must be in (0, 1]
	MinEVPercent float64 `mapstructure:"min_ev_percent"` // Minimum EV% an opportunity must clear
	HidePlaced   bool    `mapstructure:"hide_placed"`    // Drop opportunities already in the book
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "feed_snapshots")
	v.SetDefault("kafka.group_id", "betdesk")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 30*time.Minute)

	v.SetDefault("book.path", "betdesk.db")

	v.SetDefault("staking.bankroll", 1000.0)
	v.SetDefault("staking.risk_fraction", 0.5)
	v.SetDefault("staking.min_ev_percent", 2.0)
	v.SetDefault("staking.hide_placed", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix("BETDESK")
	v.AutomaticEnv()
	// Replace . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unmarshal to struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Staking.RiskFraction <= 0 || config.Staking.RiskFraction > 1 {
		return nil, fmt.Errorf("staking.risk_fraction must be in (0, 1], got %v", config.Staking.RiskFraction)
	}

	return &config, nil
}

// ToStakingDefaults converts config to the service staking defaults
func (c *StakingConfig) ToStakingDefaults() service.StakingDefaults {
	return service.StakingDefaults{
		Bankroll:     decimal.NewFromFloat(c.Bankroll),
		RiskFraction: decimal.NewFromFloat(c.RiskFraction),
		MinEVPercent: decimal.NewFromFloat(c.MinEVPercent),
		HidePlaced:   c.HidePlaced,
	}
}
