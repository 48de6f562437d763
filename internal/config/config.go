package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. RESTAURANT_STORE_NAME.
const EnvPrefix = "RESTAURANT"

// Config хранит все параметры приложения
type Config struct {
	Store    StoreConfig    `yaml:"store" envconfig:"STORE"`
	Producer ProducerConfig `yaml:"producer" envconfig:"PRODUCER"`
	Consumer ConsumerConfig `yaml:"consumer" envconfig:"CONSUMER"`
	System   SystemConfig   `yaml:"system" envconfig:"SYSTEM"`
	Tracker  TrackerConfig  `yaml:"tracker" envconfig:"TRACKER"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOG"`
	Database DatabaseConfig `yaml:"database" envconfig:"DB"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq" envconfig:"RABBITMQ"`
}

type StoreConfig struct {
	Name        string        `yaml:"name" envconfig:"NAME"`
	Dir         string        `yaml:"dir" envconfig:"DIR"`
	Capacity    int           `yaml:"capacity" envconfig:"CAPACITY"`
	MaxAttempts int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
	RetryDelay  time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY"`
	// AttachAttempts/AttachDelay bound how long an agent waits for the owner
	// to publish the segment.
	AttachAttempts int           `yaml:"attach_attempts" envconfig:"ATTACH_ATTEMPTS"`
	AttachDelay    time.Duration `yaml:"attach_delay" envconfig:"ATTACH_DELAY"`
}

type ProducerConfig struct {
	IntervalMin time.Duration `yaml:"interval_min" envconfig:"INTERVAL_MIN"`
	IntervalMax time.Duration `yaml:"interval_max" envconfig:"INTERVAL_MAX"`
}

type ConsumerConfig struct {
	PrepMin      time.Duration `yaml:"prep_min" envconfig:"PREP_MIN"`
	PrepMax      time.Duration `yaml:"prep_max" envconfig:"PREP_MAX"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"`
}

type SystemConfig struct {
	Producers    int           `yaml:"producers" envconfig:"PRODUCERS"`
	Consumers    int           `yaml:"consumers" envconfig:"CONSUMERS"`
	Duration     time.Duration `yaml:"duration" envconfig:"DURATION"` // 0 runs until interrupted
	StartStagger time.Duration `yaml:"start_stagger" envconfig:"START_STAGGER"`
	JoinTimeout  time.Duration `yaml:"join_timeout" envconfig:"JOIN_TIMEOUT"`
}

type TrackerConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED"`
	Port    int  `yaml:"port" envconfig:"PORT"`
}

type ExportConfig struct {
	Dir        string `yaml:"dir" envconfig:"DIR"`
	OnShutdown bool   `yaml:"on_shutdown" envconfig:"ON_SHUTDOWN"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	User     string `yaml:"user" envconfig:"USER"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	Database string `yaml:"database" envconfig:"NAME"`
	SSLMode  string `yaml:"sslmode" envconfig:"SSLMODE"`
	MaxConns int32  `yaml:"max_conns" envconfig:"MAX_CONNS"`
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	User     string `yaml:"user" envconfig:"USER"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	VHost    string `yaml:"vhost" envconfig:"VHOST"`
	UseTLS   bool   `yaml:"use_tls" envconfig:"USE_TLS"`
}

func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Name:           "orders_shm",
			Capacity:       20 * 1024,
			MaxAttempts:    3,
			RetryDelay:     100 * time.Millisecond,
			AttachAttempts: 10,
			AttachDelay:    500 * time.Millisecond,
		},
		Producer: ProducerConfig{IntervalMin: time.Second, IntervalMax: 4 * time.Second},
		Consumer: ConsumerConfig{PrepMin: 2 * time.Second, PrepMax: 6 * time.Second, PollInterval: 500 * time.Millisecond},
		System: SystemConfig{
			Producers:    2,
			Consumers:    3,
			StartStagger: 200 * time.Millisecond,
			JoinTimeout:  2 * time.Second,
		},
		Tracker:  TrackerConfig{Enabled: true, Port: 3002},
		Export:   ExportConfig{Dir: "."},
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Port: 5432, SSLMode: "disable", MaxConns: 10},
		RabbitMQ: RabbitMQConfig{Port: 5672, VHost: "/"},
	}
}

// LoadConfig layers defaults, the YAML file at path and RESTAURANT_*
// environment variables, in that order. An empty path or a missing default
// file is not an error; a missing explicit file is.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("Couldnt open the file for the configuration: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Store.Name != "", "store.name is required")
	check(c.Store.Capacity >= 1024, "store.capacity must be at least 1024 bytes, got %d", c.Store.Capacity)
	check(c.Store.MaxAttempts >= 1, "store.max_attempts must be at least 1")
	check(c.Store.RetryDelay >= 0, "store.retry_delay must not be negative")
	check(c.Store.AttachAttempts >= 1, "store.attach_attempts must be at least 1")

	check(c.Producer.IntervalMin >= 0 && c.Producer.IntervalMin <= c.Producer.IntervalMax,
		"producer interval range [%s, %s] is invalid", c.Producer.IntervalMin, c.Producer.IntervalMax)
	check(c.Consumer.PrepMin >= 0 && c.Consumer.PrepMin <= c.Consumer.PrepMax,
		"consumer prep range [%s, %s] is invalid", c.Consumer.PrepMin, c.Consumer.PrepMax)
	check(c.Consumer.PollInterval > 0, "consumer.poll_interval must be positive")

	check(c.System.Producers >= 1 && c.System.Producers <= 10, "system.producers must be between 1 and 10, got %d", c.System.Producers)
	check(c.System.Consumers >= 1 && c.System.Consumers <= 10, "system.consumers must be between 1 and 10, got %d", c.System.Consumers)
	check(c.System.Duration >= 0, "system.duration must not be negative")
	check(c.System.JoinTimeout > 0, "system.join_timeout must be positive")

	if c.Tracker.Enabled {
		check(c.Tracker.Port > 0 && c.Tracker.Port < 65536, "tracker.port %d is invalid", c.Tracker.Port)
	}
	if c.Database.Enabled {
		check(c.Database.Host != "" && c.Database.User != "" && c.Database.Database != "", "database config incomplete")
	}
	if c.RabbitMQ.Enabled {
		check(c.RabbitMQ.Host != "" && c.RabbitMQ.User != "", "rabbitmq config incomplete")
	}
	return errors.Join(errs...)
}
