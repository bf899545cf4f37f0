package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	PricingFile string `env:"PRICING_FILE"`

	HTTP     HTTPConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Admin    AdminConfig
	Mail     MailConfig
	Telegram TelegramConfig
	Sheets   SheetsConfig
}

type HTTPConfig struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	PublicDir         string        `env:"PUBLIC_DIR" envDefault:"public"`
	InquiryRateLimit  int64         `env:"INQUIRY_RATE_LIMIT" envDefault:"5"`
	InquiryRateWindow time.Duration `env:"INQUIRY_RATE_WINDOW" envDefault:"10m"`
}

type StorageConfig struct {
	Driver  string `env:"STORAGE_DRIVER" envDefault:"file"`
	DataDir string `env:"DATA_DIR" envDefault:"data"`
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"2m"`
}

// DSN is the lib/pq key/value connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig is optional: with an empty address the public lists are not
// cached and rate limits are off.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"REDIS_TTL" envDefault:"10m"`
}

type AdminConfig struct {
	Password       string        `env:"ADMIN_PASSWORD"`
	SessionTTL     time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"8h"`
	CookieSecure   bool          `env:"ADMIN_COOKIE_SECURE" envDefault:"false"`
	LoginRateLimit int64         `env:"ADMIN_LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginWindow    time.Duration `env:"ADMIN_LOGIN_WINDOW" envDefault:"15m"`

	// Telegram recipients of inquiry notifications and allowed bot operators.
	IDs       []int64 `env:"ADMIN_IDS" envSeparator:","`
	ChatID    int64   `env:"ADMIN_CHAT_ID"`
	ChannelID int64   `env:"ADMIN_CHANNEL_ID"`
}

type MailConfig struct {
	ResendAPIKey  string        `env:"RESEND_API_KEY"`
	ResendBaseURL string        `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	Receiver      string        `env:"RECEIVER_EMAIL"`
	Sender        string        `env:"SENDER_EMAIL" envDefault:"onboarding@resend.dev"`
	Timeout       time.Duration `env:"MAIL_TIMEOUT" envDefault:"15s"`
}

type TelegramConfig struct {
	Token string `env:"TELEGRAM_TOKEN"`
	Debug bool   `env:"TELEGRAM_DEBUG" envDefault:"false"`
}

type SheetsConfig struct {
	FormEndpoint string        `env:"FORM_ENDPOINT"`
	Timeout      time.Duration `env:"FORM_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	const operation = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: read .env: %w", operation, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", operation, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	if cfg.Environment == "production" {
		cfg.Admin.CookieSecure = true
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageFile:
		if c.Storage.DataDir == "" {
			return errors.New("DATA_DIR is required for the file storage driver")
		}
	case StoragePostgres:
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			return errors.New("DB_HOST, DB_USER and DB_NAME are required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Admin.SessionTTL <= 0 {
		return errors.New("ADMIN_SESSION_TTL must be positive")
	}
	if c.HTTP.PublicDir == "" {
		return errors.New("PUBLIC_DIR is required")
	}

	return nil
}
