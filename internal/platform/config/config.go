package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr               string        `mapstructure:"APP_ADDR"`
	Environment        string        `mapstructure:"APP_ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	JWTTTL             time.Duration `mapstructure:"JWT_TTL"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	LateAfter          string        `mapstructure:"LATE_AFTER"`
	SeedAdminName      string        `mapstructure:"SEED_ADMIN_NAME"`
	SeedAdminEmail     string        `mapstructure:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword  string        `mapstructure:"SEED_ADMIN_PASSWORD"`
	RunMigrations      bool          `mapstructure:"RUN_MIGRATIONS"`
	RunSeed            bool          `mapstructure:"RUN_SEED"`
	MaxBodyBytes       int64         `mapstructure:"MAX_BODY_BYTES"`
	RateLimitPerMinute int           `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	EmailEnabled       bool          `mapstructure:"EMAIL_ENABLED"`
	EmailFrom          string        `mapstructure:"EMAIL_FROM"`
	AWSRegion          string        `mapstructure:"AWS_REGION"`
	AWSEndpoint        string        `mapstructure:"AWS_ENDPOINT"`
	EventsQueueURL     string        `mapstructure:"EVENTS_QUEUE_URL"`
	OTLPEndpoint       string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName        string        `mapstructure:"SERVICE_NAME"`
	PasswordResetTTL   time.Duration `mapstructure:"PASSWORD_RESET_TTL"`
	ResetURLBase       string        `mapstructure:"RESET_URL_BASE"`
	CleanupInterval    time.Duration `mapstructure:"CLEANUP_INTERVAL"`
	MetricsEnabled     bool          `mapstructure:"METRICS_ENABLED"`
}

var defaults = map[string]any{
	"APP_ADDR":                    ":8080",
	"APP_ENV":                     "development",
	"LOG_LEVEL":                   "info",
	"DATABASE_URL":                "",
	"JWT_SECRET":                  "",
	"JWT_TTL":                     "12h",
	"TIMEZONE":                    "UTC",
	"LATE_AFTER":                  "09:15:00",
	"SEED_ADMIN_NAME":             "Administrator",
	"SEED_ADMIN_EMAIL":            "",
	"SEED_ADMIN_PASSWORD":         "",
	"RUN_MIGRATIONS":              true,
	"RUN_SEED":                    true,
	"MAX_BODY_BYTES":              1048576,
	"RATE_LIMIT_PER_MINUTE":       60,
	"REDIS_ADDR":                  "",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"EMAIL_ENABLED":               false,
	"EMAIL_FROM":                  "no-reply@example.com",
	"AWS_REGION":                  "us-east-1",
	"AWS_ENDPOINT":                "",
	"EVENTS_QUEUE_URL":            "",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"SERVICE_NAME":                "ets-api",
	"PASSWORD_RESET_TTL":          "1h",
	"RESET_URL_BASE":              "http://localhost:3000/reset-password",
	"CLEANUP_INTERVAL":            "1h",
	"METRICS_ENABLED":             true,
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// LateThreshold returns the configured lateness cutoff as an offset from midnight.
func (c Config) LateThreshold() (time.Duration, error) {
	parsed, err := time.Parse("15:04:05", strings.TrimSpace(c.LateAfter))
	if err != nil {
		return 0, fmt.Errorf("LATE_AFTER must be HH:MM:SS: %w", err)
	}
	return time.Duration(parsed.Hour())*time.Hour +
		time.Duration(parsed.Minute())*time.Minute +
		time.Duration(parsed.Second())*time.Second, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if len(strings.TrimSpace(c.JWTSecret)) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	} else if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	if _, err := c.LateThreshold(); err != nil {
		return err
	}
	if c.EmailEnabled && strings.TrimSpace(c.EmailFrom) == "" {
		return fmt.Errorf("EMAIL_FROM must be set when EMAIL_ENABLED is true")
	}
	return nil
}
