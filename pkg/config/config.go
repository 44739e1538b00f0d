package config

import (
	"log"
	"os"
	"time"

	"github.com/ayushman2046/Vendor-orders/pkg/utils"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTP     `yaml:"http"`
	Postgres PG       `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Stream   Stream   `yaml:"stream"`
	Consumer Consumer `yaml:"consumer"`
	Auth     Auth     `yaml:"auth"`
	Limiter  Limiter  `yaml:"limiter"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":8000"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Stream struct {
	Name  string `yaml:"name" env:"STREAM_NAME" env-default:"vendor_orders"`
	Group string `yaml:"group" env:"GROUP_NAME" env-default:"order_processor_group"`
}

type Consumer struct {
	Name      string        `yaml:"name" env:"CONSUMER_NAME" env-default:"consumer_1"`
	BatchSize int64         `yaml:"batch_size" env:"CONSUMER_BATCH_SIZE" env-default:"10"`
	BlockTime time.Duration `yaml:"block_time" env-default:"2s"`
	IdlePause time.Duration `yaml:"idle_pause" env-default:"1s"`
}

type Auth struct {
	Token string `yaml:"token" env:"AUTH_TOKEN"`
}

type Limiter struct {
	Max        int           `yaml:"max" env:"LIMITER_MAX" env-default:"20"`
	Expiration time.Duration `yaml:"expiration" env-default:"5s"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exists: %v\n", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
