package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN,required"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`

	// Оператор, которому дублируется каждый оформленный заказ.
	OperatorChatID int64 `env:"OPERATOR_CHAT_ID,required"`

	GeocoderBaseURL string        `env:"GEOCODER_BASE_URL" envDefault:"https://geocode-maps.yandex.ru/1.x"`
	GeocoderAPIKey  string        `env:"GEOCODER_API_KEY,required"`
	GeocoderTimeout time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"10s"`
	MapHost         string        `env:"MAP_HOST" envDefault:"yandex.ru"`

	// Город, дописываемый к каждому адресу, и границы зоны обслуживания.
	City          string  `env:"CITY" envDefault:"Воронеж"`
	ServiceMinLat float64 `env:"SERVICE_MIN_LAT" envDefault:"51.53"`
	ServiceMaxLat float64 `env:"SERVICE_MAX_LAT" envDefault:"51.83"`
	ServiceMinLon float64 `env:"SERVICE_MIN_LON" envDefault:"39.05"`
	ServiceMaxLon float64 `env:"SERVICE_MAX_LON" envDefault:"39.40"`

	RedisAddr     string        `env:"REDIS_ADDR,required"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,required"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"2m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.ServiceMinLat >= cfg.ServiceMaxLat || cfg.ServiceMinLon >= cfg.ServiceMaxLon {
		return nil, fmt.Errorf("invalid service area bounds")
	}

	return &cfg, nil
}
