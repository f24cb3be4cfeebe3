package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      `yaml:"http"`
	Postgres  `yaml:"postgres"`
	Redis     `yaml:"redis"`
	Analytics `yaml:"analytics"`
	App       `yaml:"app"`
}

type HTTP struct {
	Addr         string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type Postgres struct {
	URL               string        `yaml:"url" env:"POSTGRES_URL" env-required:"true"`
	MaxConns          int32         `yaml:"max_conns" env-default:"8"`
	ConnAttempts      uint          `yaml:"conn_attempts" env-default:"5"`
	ConnRetryDelay    time.Duration `yaml:"conn_retry_delay" env-default:"1s"`
	ConnRetryMaxDelay time.Duration `yaml:"conn_retry_max_delay" env-default:"5s"`
}

// Redis is optional: an empty addr disables the snapshot cache.
type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	CacheTTL time.Duration `yaml:"cache_ttl" env-default:"30s"`
}

type Analytics struct {
	TopProductsLimit int `yaml:"top_products_limit" env-default:"3"`
}

type App struct {
	Currency                string        `yaml:"currency" env:"CURRENCY" env-default:"EUR"`
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout" env-default:"15s"`
}

// MustLoad reads the config from CONFIG_PATH, falling back to environment
// variables only when no file is configured.
func MustLoad() (cfg Config) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("Error loading config from environment: %v", err)
		}
		return
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatal("CONFIG_PATH does not exist")
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	return
}
