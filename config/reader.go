package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultRemoteBaseURL = "https://jsonplaceholder.typicode.com"
	DefaultAvatarBaseURL = "https://picsum.photos"
	DefaultDBPath        = "feed.db"
	DefaultFeedExchange  = "feed_events"
	DefaultAvatarTTL     = 24 * time.Hour
)

type StoreConfig struct {
	Driver   string   `yaml:"driver"` // sqlite | postgres
	Path     string   `yaml:"path"`
	DSN      string   `yaml:"dsn"`
	Replicas []string `yaml:"replicas"`
	// Размер буфера очереди записи
	QueueSize int `yaml:"queue_size"`
}

type RemoteConfig struct {
	BaseURL       string        `yaml:"base_url"`
	AvatarBaseURL string        `yaml:"avatar_base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	SyncTimeout   time.Duration `yaml:"sync_timeout"` // фоновая синхронизация, 0 - без ограничения
}

type RedisConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	AvatarTTL time.Duration `yaml:"avatar_ttl"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type ConfigSchema struct {
	Store    StoreConfig    `yaml:"store"`
	Remote   RemoteConfig   `yaml:"remote"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Backend  struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
}

// Default возвращает конфигурацию со встроенными значениями
func Default() *ConfigSchema {
	conf := &ConfigSchema{}
	conf.Store.Driver = "sqlite"
	conf.Store.Path = DefaultDBPath
	conf.Store.QueueSize = 64
	conf.Remote.BaseURL = DefaultRemoteBaseURL
	conf.Remote.AvatarBaseURL = DefaultAvatarBaseURL
	conf.Redis.AvatarTTL = DefaultAvatarTTL
	conf.RabbitMQ.Exchange = DefaultFeedExchange
	conf.Backend.Port = 8080
	conf.Logs.Level = "info"
	return conf
}

// LoadConfig читает YAML поверх значений по умолчанию.
// Пустой путь означает только встроенные значения и переменные окружения.
func LoadConfig(filePath string) (*ConfigSchema, error) {
	conf := Default()
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, conf); err != nil {
			return nil, err
		}
	}
	conf.applyEnv()
	return conf, nil
}

// applyEnv переопределяет значения из окружения
func (c *ConfigSchema) applyEnv() {
	if v := os.Getenv("FEED_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
}
