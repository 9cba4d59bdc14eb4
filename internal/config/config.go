// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BusDriverKafka  = "kafka"
	BusDriverMemory = "memory"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	MetricsPort string `mapstructure:"METRICS_PORT"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`

	BusDriver         string        `mapstructure:"BUS_DRIVER"`
	KafkaBroker       string        `mapstructure:"KAFKA_BROKER"`
	KafkaTopic        string        `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupPrefix  string        `mapstructure:"KAFKA_GROUP_PREFIX"`
	KafkaWriteTimeout time.Duration `mapstructure:"KAFKA_WRITE_TIMEOUT"`

	// ConsumerMaxDeliveries caps handler attempts per message before it is
	// dead-lettered. Zero redelivers forever.
	ConsumerMaxDeliveries       int           `mapstructure:"CONSUMER_MAX_DELIVERIES"`
	ConsumerHandlerTimeout      time.Duration `mapstructure:"CONSUMER_HANDLER_TIMEOUT"`
	ConsumerRetryInitial        time.Duration `mapstructure:"CONSUMER_RETRY_INITIAL"`
	ConsumerRetryMax            time.Duration `mapstructure:"CONSUMER_RETRY_MAX"`
	ConsumerSubscriptionPattern string        `mapstructure:"CONSUMER_SUBSCRIPTION_PATTERN"`
	InboxTTL                    time.Duration `mapstructure:"INBOX_TTL"`

	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL"`
	OutboxBatchSize    int           `mapstructure:"OUTBOX_BATCH_SIZE"`
}

// Load reads .env when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3000")
	v.SetDefault("METRICS_PORT", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "hive")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("BUS_DRIVER", BusDriverKafka)
	v.SetDefault("KAFKA_BROKER", "")
	v.SetDefault("KAFKA_TOPIC", "hr.employee.lifecycle.v1")
	v.SetDefault("KAFKA_GROUP_PREFIX", "hive")
	v.SetDefault("KAFKA_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("CONSUMER_MAX_DELIVERIES", 10)
	v.SetDefault("CONSUMER_HANDLER_TIMEOUT", 30*time.Second)
	v.SetDefault("CONSUMER_RETRY_INITIAL", 500*time.Millisecond)
	v.SetDefault("CONSUMER_RETRY_MAX", 30*time.Second)
	v.SetDefault("CONSUMER_SUBSCRIPTION_PATTERN", "hr.employee.#")
	v.SetDefault("INBOX_TTL", 7*24*time.Hour)
	v.SetDefault("OUTBOX_POLL_INTERVAL", 3*time.Second)
	v.SetDefault("OUTBOX_BATCH_SIZE", 50)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.BusDriver = strings.ToLower(strings.TrimSpace(cfg.BusDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks what every process needs. Bus settings are checked by
// ValidateBus in the processes that publish or consume.
func (c *Config) Validate() error {
	if c.DBHost == "" || c.DBName == "" {
		return fmt.Errorf("config: DB_HOST and DB_NAME are required")
	}
	return nil
}

func (c *Config) ValidateBus() error {
	switch c.BusDriver {
	case BusDriverKafka:
		if c.KafkaBroker == "" {
			return fmt.Errorf("config: KAFKA_BROKER is required when BUS_DRIVER=%s", BusDriverKafka)
		}
	case BusDriverMemory:
	default:
		return fmt.Errorf("config: unknown BUS_DRIVER %q", c.BusDriver)
	}
	if c.KafkaTopic == "" {
		return fmt.Errorf("config: KAFKA_TOPIC is required")
	}
	if c.ConsumerMaxDeliveries < 0 {
		return fmt.Errorf("config: CONSUMER_MAX_DELIVERIES must be >= 0")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("config: OUTBOX_BATCH_SIZE must be > 0")
	}
	return nil
}

// KafkaBrokers splits KAFKA_BROKER on commas.
func (c *Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBroker, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *Config) DeadLetterTopic() string {
	return c.KafkaTopic + ".dlq"
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// PostgresURL is the URL form golang-migrate needs.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}
