// Package config предоставляет структуры и функцию загрузки конфигурации.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек сервиса.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	PlansPath               string `yaml:"plans_path" env:"PLANS_PATH"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQConnection      `yaml:"rabbitmq_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Webhook                 `yaml:"webhook"`
}

// HTTPServer настройки HTTP-сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection настройки подключения к Redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQConnection настройки подключения к RabbitMQ.
type RabbitMQConnection struct {
	AddressRabbitMQ string        `yaml:"addressrabbitmq"`
	RetriesRabbitMQ int           `yaml:"retries" env-default:"5"`
	DelayRabbitMQ   time.Duration `yaml:"delay" env-default:"3s"`
}

// JWTToken настройки проверки JWT-токена.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Webhook настройки приёма вебхуков платёжного провайдера.
type Webhook struct {
	WebhookSecret string `yaml:"webhook_secret" env:"WEBHOOK_SECRET"`
}

// MustLoad загружает конфигурацию из файла, путь берётся из CONFIG_PATH.
// При любой ошибке процесс завершается.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
