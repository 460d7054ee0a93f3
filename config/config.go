package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every external setting the backend needs. It is loaded once at
// process start and handed to components at construction; nothing reads the
// environment after that.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBUrl     string `envconfig:"DB_URL" required:"true"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	FrontendBaseURL string `envconfig:"FRONTEND_BASE_URL" default:"http://localhost:3000"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`

	OpteryBaseURL string `envconfig:"OPTERY_BASE_URL" default:"https://public-api-sandbox.test.optery.com/"`
	OpteryAPIKey  string `envconfig:"OPTERY_API_KEY" required:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	SMTPFrom     string `envconfig:"SMTP_FROM"`
	SMTPPassword string `envconfig:"GOOGLE_SMTP_MDP"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	// .env is optional; deployed environments provide real variables.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
