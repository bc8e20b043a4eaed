package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"qadamsafe/internal/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the API (and seed) configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"debug"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`
	SecretsDir  string `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	// Database
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	DBAutoMigrate bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string `ignored:"true"`

	// Redis: токены, лидерборд, игровые сессии, rate limit
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string `ignored:"true"`

	// JWT
	JWTSecret       string        `ignored:"true"`
	PasswordPepper  string        `ignored:"true"`
	AccessTokenTTL  time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"168h"`
	RefreshTokenTTL time.Duration `envconfig:"JWT_REFRESH_TOKEN_TTL" default:"720h"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	AuthRateLimit      uint   `envconfig:"AUTH_RATE_LIMIT_PER_MINUTE" default:"10"`

	// RabbitMQ. Пустой URL отключает push-уведомления.
	RabbitMQURL   string `envconfig:"RABBITMQ_URL"`
	PushQueueName string `envconfig:"PUSH_QUEUE_NAME" default:"push_notifications"`

	PlaySessionTTL      time.Duration `envconfig:"PLAY_SESSION_TTL" default:"2h"`
	LeaderboardCacheTTL time.Duration `envconfig:"LEADERBOARD_CACHE_TTL" default:"10m"`

	// AI. Пустой провайдер отключает генерацию.
	AIProvider       string        `envconfig:"AI_PROVIDER"` // openai | ollama
	AIBaseURL        string        `envconfig:"AI_BASE_URL"` // пусто: адрес по умолчанию для провайдера
	AIModel          string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"90s"`
	AIMaxRetries     int           `envconfig:"AI_MAX_RETRIES" default:"3"`
	AIInitialBackoff time.Duration `envconfig:"AI_INITIAL_BACKOFF" default:"1s"`
	AIAPIKey         string        `ignored:"true"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// PostgresDSN builds the pgx connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c *Config) AIEnabled() bool {
	return c.AIProvider != ""
}

var defaultAIBaseURLs = map[string]string{
	"openai": "https://api.openai.com/v1",
	"ollama": "http://localhost:11434",
}

// applyAIDefaults подставляет адрес провайдера, если AI_BASE_URL не задан явно.
func (c *Config) applyAIDefaults() {
	if c.AIBaseURL == "" {
		c.AIBaseURL = defaultAIBaseURLs[strings.ToLower(c.AIProvider)]
	}
}

// LoadConfig loads configuration from an optional .env file, environment variables and secret files.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	// Обязательные секреты
	required := []struct {
		name string
		dst  *string
	}{
		{"db_password", &cfg.DBPassword},
		{"jwt_secret", &cfg.JWTSecret},
		{"password_pepper", &cfg.PasswordPepper},
	}
	for _, s := range required {
		v, err := readSecret(cfg.SecretsDir, s.name)
		if err != nil {
			return nil, err
		}
		*s.dst = v
	}

	// Необязательные
	if v, err := readSecret(cfg.SecretsDir, "redis_password"); err == nil {
		cfg.RedisPassword = v
	}
	if v, err := readSecret(cfg.SecretsDir, "ai_api_key"); err == nil {
		cfg.AIAPIKey = v
	} else if cfg.AIProvider == "openai" {
		log.Printf("Warning: AI provider is openai but 'ai_api_key' is missing: %v", err)
	}

	cfg.applyAIDefaults()

	log.Println("Configuration loaded successfully (secrets read from files).")
	return &cfg, nil
}

// readSecret reads /run/secrets/<name>, falling back to the upper-cased env variable
// (db_password -> DB_PASSWORD) for local runs without Docker secrets.
func readSecret(dir, name string) (string, error) {
	v, err := utils.ReadSecretFrom(dir, name)
	if err == nil {
		return v, nil
	}
	if env := strings.TrimSpace(os.Getenv(strings.ToUpper(name))); env != "" {
		return env, nil
	}
	return "", err
}
