package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"tracker_worker/core/domain"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Store backends for the ledger and the recipient overrides.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// DefaultConfigFile is read when CONFIG_FILE is unset and the file exists.
const DefaultConfigFile = "config.yaml"

type Config struct {
	Port        string `yaml:"port" env:"PORT" env-default:"8080"`
	Environment string `yaml:"env" env:"ENV" env-default:"development"`

	// Storage
	DataDir      string `yaml:"data_dir" env:"DATA_DIR" env-default:"cache"`
	StoreBackend string `yaml:"store_backend" env:"STORE_BACKEND" env-default:"file"`
	DatabaseURL  string `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL     string `yaml:"redis_url" env:"REDIS_URL"`

	// Publish dispatch outcomes to a Redis stream when Redis is configured.
	AlertEventsEnabled bool  `yaml:"alert_events" env:"ALERT_EVENTS_ENABLED" env-default:"true"`
	AlertEventsMaxLen  int64 `yaml:"alert_events_max_len" env:"ALERT_EVENTS_MAX_LEN" env-default:"10000"`

	// JWT protects the manual trigger when set.
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`

	// Twilio
	TwilioAccountSID   string `yaml:"twilio_account_sid" env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `yaml:"twilio_auth_token" env:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `yaml:"twilio_whatsapp_from" env:"TWILIO_WHATSAPP_FROM"`
	TwilioContentSID   string `yaml:"twilio_content_sid" env:"TWILIO_CONTENT_SID"`
	TwilioAPIBase      string `yaml:"twilio_api_base" env:"TWILIO_API_BASE" env-default:"https://api.twilio.com"`
	WhatsAppDefaultTo  string `yaml:"whatsapp_default_to" env:"WHATSAPP_DEFAULT_TO"`
	SendTimeoutSec     int    `yaml:"send_timeout_sec" env:"SEND_TIMEOUT_SEC" env-default:"10"`

	// Scheduler
	AlertSchedule     string `yaml:"alert_schedule" env:"ALERT_SCHEDULE" env-default:"09:00,14:00,16:30"`
	SchedulerEnabled  bool   `yaml:"scheduler_enabled" env:"SCHEDULER_ENABLED" env-default:"true"`
	SchedulerRetrySec int    `yaml:"scheduler_retry_sec" env:"SCHEDULER_RETRY_SEC" env-default:"60"`
	DispatchWorkers   int    `yaml:"dispatch_workers" env:"DISPATCH_WORKERS" env-default:"4"`

	// Logging
	LogLevel      string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogOutput     string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
	LogFile       string `yaml:"log_file" env:"LOG_FILE" env-default:"logs/tracker.log"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	LogMaxBackups int    `yaml:"log_max_backups" env:"LOG_MAX_BACKUPS" env-default:"5"`
	LogMaxAgeDays int    `yaml:"log_max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"30"`

	// CORS
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:5173"`

	// Contacts is the owner directory. Empty sections fall back to the
	// built-in directory.
	Contacts domain.ContactDirectory `yaml:"contacts"`
}

// Load reads .env, then the YAML file at path (or CONFIG_FILE, or
// config.yaml when present), then the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg.applyContactDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyContactDefaults() {
	def := domain.DefaultContactDirectory()
	if len(c.Contacts.Owners) == 0 {
		c.Contacts.Owners = def.Owners
	}
	if len(c.Contacts.AlwaysNotify) == 0 {
		c.Contacts.AlwaysNotify = def.AlwaysNotify
	}
	if len(c.Contacts.Aliases) == 0 {
		c.Contacts.Aliases = def.Aliases
	}
	if c.WhatsAppDefaultTo != "" {
		c.Contacts.DefaultRecipient = strings.TrimSpace(c.WhatsAppDefaultTo)
	}
}

// Validate checks the settings that would fail later at start-up.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendFile:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("STORE_BACKEND=redis requires REDIS_URL"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("STORE_BACKEND=postgres requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.SendTimeoutSec <= 0 {
		errs = append(errs, errors.New("SEND_TIMEOUT_SEC must be positive"))
	}
	if c.DispatchWorkers <= 0 {
		errs = append(errs, errors.New("DISPATCH_WORKERS must be positive"))
	}
	return errors.Join(errs...)
}

// SendTimeout returns the gateway request timeout.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSec) * time.Second
}

// SchedulerRetry returns the delay after a failed schedule computation.
func (c *Config) SchedulerRetry() time.Duration {
	return time.Duration(c.SchedulerRetrySec) * time.Second
}

// MaskedAuthToken hides all but the last four characters of the token.
func (c *Config) MaskedAuthToken() string {
	t := c.TwilioAuthToken
	if t == "" {
		return ""
	}
	if len(t) <= 4 {
		return strings.Repeat("*", len(t))
	}
	return strings.Repeat("*", len(t)-4) + t[len(t)-4:]
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
