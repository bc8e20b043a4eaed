package config

import (
	"fmt"
	"log"

	"github.com/ilyakaznacheev/cleanenv"
)

// NotifierConfig - конфигурация воркера push-уведомлений.
type NotifierConfig struct {
	RabbitMQ          RabbitMQConfig `yaml:"rabbitmq"`
	Postgres          PostgresConfig `yaml:"postgres"`
	FCM               FCMConfig      `yaml:"fcm"`
	APNS              APNSConfig     `yaml:"apns"`
	Log               LogConfig      `yaml:"log"`
	PushQueueName     string         `yaml:"push_queue_name" env:"PUSH_QUEUE_NAME" env-default:"push_notifications"`
	WorkerConcurrency int            `yaml:"worker_concurrency" env:"WORKER_CONCURRENCY" env-default:"10"`
	HealthCheckPort   string         `yaml:"health_check_port" env:"HEALTH_CHECK_PORT" env-default:"8088"`
}

type RabbitMQConfig struct {
	URI string `yaml:"uri" env:"RABBITMQ_URL" env-required:"true"`
}

// PostgresConfig - источник токенов устройств.
type PostgresConfig struct {
	DSN      string `yaml:"dsn" env:"DATABASE_URL" env-required:"true"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"5"`
}

type FCMConfig struct {
	CredentialsPath string `yaml:"credentials_path" env:"FCM_CREDENTIALS_PATH"` // файл ключа сервис-аккаунта
}

type APNSConfig struct {
	KeyID      string `yaml:"key_id" env:"APNS_KEY_ID"`
	TeamID     string `yaml:"team_id" env:"APNS_TEAM_ID"`
	KeyPath    string `yaml:"key_path" env:"APNS_KEY_PATH"`
	Topic      string `yaml:"topic" env:"APNS_TOPIC"`
	Production bool   `yaml:"production" env:"APNS_PRODUCTION" env-default:"false"`
}

// Enabled reports whether all APNs credentials are present.
func (c APNSConfig) Enabled() bool {
	return c.KeyID != "" && c.TeamID != "" && c.KeyPath != "" && c.Topic != ""
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
}

// LoadNotifierConfig reads configPath and falls back to environment variables only.
func LoadNotifierConfig(configPath string) (*NotifierConfig, error) {
	var cfg NotifierConfig

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v. Попытка чтения из переменных окружения.", configPath, err)
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
		}
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}

	log.Printf("Конфигурация загружена. Push Queue: %s, workers: %d", cfg.PushQueueName, cfg.WorkerConcurrency)
	return &cfg, nil
}
