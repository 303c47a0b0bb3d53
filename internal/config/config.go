package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port     string `env:"PORT,default=8080"`
	MongoURI string `env:"MONGO_URI,required"`
	MongoDB  string `env:"MONGO_DB,default=storefront"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=720h"`

	// Lista separada por comas; "*" permite cualquier origen
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`

	// Opcionales: vacíos desactivan la integración
	RedisAddr           string `env:"REDIS_ADDR"`
	KafkaBrokers        string `env:"KAFKA_BROKERS"`
	KafkaOrderTopic     string `env:"KAFKA_ORDER_TOPIC,default=storefront.orders"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	UploadDir   string `env:"UPLOAD_DIR,default=./uploads"`
	MaxUploadMB int64  `env:"MAX_UPLOAD_MB,default=5"`

	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MIN,default=20"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`
	GinMode   string `env:"GIN_MODE,default=release"`
}

func LoadConfig() (*Config, error) {
	// Solo cargar .env en desarrollo local
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			logrus.WithError(err).Warn("error loading .env file")
		} else {
			logrus.Info(".env file loaded")
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MongoURI == "" {
		return errors.New("MONGO_URI is required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// Origins separa ALLOWED_ORIGINS
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
