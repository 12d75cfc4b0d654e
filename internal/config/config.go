package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Bidding  BiddingConfig  `mapstructure:"bidding"`
	Instance InstanceConfig `mapstructure:"instance"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type BiddingConfig struct {
	MaxBid           float64       `mapstructure:"max_bid"`
	SimulatedLatency time.Duration `mapstructure:"simulated_latency"`
	RetryBase        time.Duration `mapstructure:"retry_base"`
	MaxRetries       int           `mapstructure:"max_retries"`
	StaleAfter       time.Duration `mapstructure:"stale_after"`
	CleanupSchedule  string        `mapstructure:"cleanup_schedule"`
	Placer           string        `mapstructure:"placer"`
	Locker           string        `mapstructure:"locker"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
	ReplayWorkers    int           `mapstructure:"replay_workers"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	PlacerManager   = "manager"
	PlacerSimulated = "simulated"
	LockerMemory    = "memory"
	LockerRedis     = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mysql.enabled", false)
	v.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("bidding.max_bid", 1000000.0)
	v.SetDefault("bidding.simulated_latency", time.Duration(0))
	v.SetDefault("bidding.retry_base", time.Second)
	v.SetDefault("bidding.max_retries", 3)
	v.SetDefault("bidding.stale_after", 5*time.Minute)
	v.SetDefault("bidding.cleanup_schedule", "@every 1m")
	v.SetDefault("bidding.placer", PlacerManager)
	v.SetDefault("bidding.locker", LockerMemory)
	v.SetDefault("bidding.lock_ttl", 30*time.Second)
	v.SetDefault("bidding.replay_workers", 8)
	v.SetDefault("instance.id", "bidding-service-1")
	v.SetDefault("log.level", "info")
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Configuration file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/bid-coordinator/")

	// SERVER_PORT, BIDDING_MAX_BID, ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Bidding.Placer {
	case PlacerManager, PlacerSimulated:
	default:
		return fmt.Errorf("config: unknown bidding.placer %q", c.Bidding.Placer)
	}
	switch c.Bidding.Locker {
	case LockerMemory:
	case LockerRedis:
		if !c.Redis.Enabled {
			return errors.New("config: bidding.locker=redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("config: unknown bidding.locker %q", c.Bidding.Locker)
	}
	if c.Bidding.MaxBid <= 0 {
		return errors.New("config: bidding.max_bid must be positive")
	}
	if c.Bidding.MaxRetries < 0 {
		return errors.New("config: bidding.max_retries must not be negative")
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %t(%s), MySQL: %t, Placer: %s, Locker: %s, Instance: %s",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Enabled,
		c.Redis.Address,
		c.MySQL.Enabled,
		c.Bidding.Placer,
		c.Bidding.Locker,
		c.Instance.ID,
	)
}
