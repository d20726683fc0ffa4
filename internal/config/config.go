package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env         string `env:"APP_ENV" envDefault:"dev"`
	Port        int    `env:"PORT" envDefault:"8080"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	DB    DB    `envPrefix:"DB_"`
	JWT   JWT   `envPrefix:"JWT_"`
	Redis Redis `envPrefix:"REDIS_"`

	// DATABASE_URL wins over the DB_* parts when set.
	DatabaseURL string `env:"DATABASE_URL"`

	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"10"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	AuthRateLimit      int           `env:"AUTH_RATE_LIMIT" envDefault:"20"`
	AuthRateWindow     time.Duration `env:"AUTH_RATE_WINDOW" envDefault:"1m"`
	MaxBodyBytes       int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"jobtracker"`
}

type DB struct {
	Host            string `env:"HOST" envDefault:"127.0.0.1"`
	Port            string `env:"PORT" envDefault:"5432"`
	User            string `env:"USER" envDefault:"jobtracker"`
	Password        string `env:"PASSWORD" envDefault:"jobtracker"`
	Name            string `env:"NAME" envDefault:"jobtracker"`
	SSLMode         string `env:"SSLMODE" envDefault:"disable"`
	MaxConns        int32  `env:"MAX_CONNS" envDefault:"5"`
	Migrate         bool   `env:"MIGRATE" envDefault:"true"`
	ConnectAttempts int    `env:"CONNECT_ATTEMPTS" envDefault:"5"`
}

type JWT struct {
	Secret string        `env:"SECRET"`
	Issuer string        `env:"ISSUER" envDefault:"jobtracker"`
	TTL    time.Duration `env:"TTL" envDefault:"24h"`
}

type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	// a missing .env is normal outside local dev
	_ = godotenv.Load()

	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}

	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	return nil
}

func (c Config) DBURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host + ":" + c.DB.Port,
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.DB.SSLMode),
	}

	return u.String()
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
