package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minSecretLength = 16

// Config holds environment-based settings
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Port        int    `env:"PORT" envDefault:"5000"`

	SessionSecret string `env:"SESSION_SECRET"`
	BcryptCost    int    `env:"BCRYPT_COST" envDefault:"10"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// PostgresURL wins over the discrete DB_ fields.
	PostgresURL string   `env:"DATABASE_URL"`
	Database    Database `envPrefix:"DB_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	MQTT     MQTT     `envPrefix:"MQTT_"`
}

// Database contains connection parameters.
type Database struct {
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"5432"`
	Name     string `env:"NAME"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Redis backs flash messages. Empty Address selects the in-memory store.
type Redis struct {
	Address  string        `env:"ADDRESS"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	FlashTTL time.Duration `env:"FLASH_TTL" envDefault:"10m"`
}

// MQTT receives registration events. Empty BrokerURL disables publishing.
type MQTT struct {
	BrokerURL   string `env:"BROKER_URL"`
	ClientID    string `env:"CLIENT_ID" envDefault:"registrar"`
	TopicPrefix string `env:"TOPIC_PREFIX" envDefault:"registrar"`
}

// ConfigurationError lists every problem found while loading.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Load reads an optional .env file, then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// missing .env files are fine; real environment variables win
	_ = godotenv.Load(envFiles...)

	return Parse(env.Options{})
}

// Parse builds a Config from opts (opts.Environment overrides os.Environ) and validates it.
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, &ConfigurationError{Problems: []string{err.Error()}}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails on anything that would make the server run against a
// wrong database or with a guessable session secret.
func (c *Config) Validate() error {
	var problems []string

	if len(c.SessionSecret) < minSecretLength {
		problems = append(problems, fmt.Sprintf("SESSION_SECRET must be at least %d characters", minSecretLength))
	}
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, "LOG_LEVEL is not a known level")
	}
	if c.Environment != "development" && c.Environment != "production" {
		problems = append(problems, "APP_ENV must be development or production")
	}

	db := c.Database
	if c.PostgresURL != "" {
		if u, err := url.Parse(c.PostgresURL); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, "DATABASE_URL is not a valid connection URL")
		}
	} else {
		for name, v := range map[string]string{"DB_USER": db.User, "DB_HOST": db.Host, "DB_NAME": db.Name} {
			if v == "" {
				problems = append(problems, name+" is required when DATABASE_URL is not set")
			}
		}
		if db.Port <= 0 || db.Port > 65535 {
			problems = append(problems, "DB_PORT must be between 1 and 65535")
		}
	}
	if db.MaxOpenConns < 0 || db.MaxIdleConns < 0 {
		problems = append(problems, "DB pool sizes must not be negative")
	}

	if c.MQTT.BrokerURL != "" {
		if _, err := url.Parse(c.MQTT.BrokerURL); err != nil {
			problems = append(problems, "MQTT_BROKER_URL is not a valid URL")
		}
	}

	if len(problems) == 0 {
		return nil
	}
	// map iteration above is unordered
	sort.Strings(problems)
	return &ConfigurationError{Problems: problems}
}

// DatabaseURL returns DATABASE_URL or a postgres URL assembled from the parts.
func (c *Config) DatabaseURL() string {
	if c.PostgresURL != "" {
		return c.PostgresURL
	}
	db := c.Database
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:     "/" + db.Name,
		RawQuery: url.Values{"sslmode": {db.SSLMode}}.Encode(),
	}
	return u.String()
}

// ServerAddress is the listen address for the HTTP server.
func (c *Config) ServerAddress() string {
	return ":" + strconv.Itoa(c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsConfigurationError reports whether err came from Load or Validate.
func IsConfigurationError(err error) bool {
	var cerr *ConfigurationError
	return errors.As(err, &cerr)
}
