package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
		PublicUrl string `env:"APP_PUBLIC_URL" env-default:"http://localhost:8080"`
	}
	Telegram struct {
		Token string `env:"TELEGRAM_TOKEN"`
	}
	Api struct {
		BaseUrl string        `env:"API_BASE_URL" env-default:"https://my.ozimiz.org/api"`
		Timeout time.Duration `env:"API_TIMEOUT" env-default:"30s"`
	}
	Auth struct {
		CodeLength      int           `env:"AUTH_CODE_LENGTH" env-default:"6"`
		ResendCountdown time.Duration `env:"AUTH_RESEND_COUNTDOWN" env-default:"60s"`
	}
	Cache struct {
		TTL time.Duration `env:"CACHE_TTL" env-default:"60s"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT"`
		Host    string `env:"POSTGRES_HOST"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
}

// GetDSN renders the Postgres connection string in lib/pq keyword form,
// used by goose and the migrate tool.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		c.Postgres.Name, c.Postgres.User, c.Postgres.Pass, c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode)
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}
