package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	OrderPeek OrderPeekConfig `yaml:"orderpeek"`
}

type StoreConfig struct {
	BaseURL string `yaml:"base_url"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type OrderPeekConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	// Показ в сайдбаре: размер видимой страницы и TTL сессии поиска.
	PageSize          int `yaml:"page_size"`
	SessionTTLSeconds int `yaml:"session_ttl_seconds"`

	// Пагинация upstream-поиска. Страницы больше search_max_pages не
	// запрашиваются, даже если у клиента ещё остались заказы.
	SearchPerPage  int `yaml:"search_per_page"`
	SearchMaxPages int `yaml:"search_max_pages"`

	SearchRateLimitPerMinute int `yaml:"search_rate_limit_per_minute"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

// Credentials магазина приходят только из окружения (.env поддерживается),
// в yaml их не кладём. Значения не валидируются — только наличие.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
}

func LoadCredentials() (Credentials, error) {
	_ = godotenv.Load()

	c := Credentials{
		ConsumerKey:    os.Getenv("WOO_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("WOO_CONSUMER_SECRET"),
	}
	if c.ConsumerKey == "" {
		return Credentials{}, fmt.Errorf("WOO_CONSUMER_KEY env var is required")
	}
	if c.ConsumerSecret == "" {
		return Credentials{}, fmt.Errorf("WOO_CONSUMER_SECRET env var is required")
	}
	return c, nil
}
