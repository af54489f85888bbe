package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConns       int32         `yaml:"max_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// RedisConfig is optional; an empty URL disables the cache, the redis limiter and sweep locks.
type RedisConfig struct {
	URL      string        `yaml:"url"` // redis://[:password@]host:port/db or host:port
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type SideShiftConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Secret         string        `yaml:"secret"`
	AffiliateID    string        `yaml:"affiliate_id"`
	CommissionRate string        `yaml:"commission_rate"`
	Timeout        time.Duration `yaml:"timeout"`
	Fake           bool          `yaml:"fake"` // in-memory gateway, development only
}

type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

type BillingConfig struct {
	SlippageTolerance string `yaml:"slippage_tolerance"` // decimal fraction, e.g. "0.02"
	SweepLimit        int    `yaml:"sweep_limit"`
	SweepConcurrency  int    `yaml:"sweep_concurrency"`
	RenewalBatch      int    `yaml:"renewal_batch"`
}

type RateLimitConfig struct {
	Backend string        `yaml:"backend"` // postgres|redis
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
}

type SchedulerConfig struct {
	RenewInterval     time.Duration `yaml:"renew_interval"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	JanitorInterval   time.Duration `yaml:"janitor_interval"`
	LockTTL           time.Duration `yaml:"lock_ttl"`
}

type SecurityConfig struct {
	CronSecret string `yaml:"cron_secret"`
	JWTSecret  string `yaml:"jwt_secret"`
}

type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

type Config struct {
	Env       string          `yaml:"env"`
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	SideShift SideShiftConfig `yaml:"sideshift"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Billing   BillingConfig   `yaml:"billing"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Security  SecurityConfig  `yaml:"security"`
	Events    EventsConfig    `yaml:"events"`

	Runtime RuntimeConfig `yaml:"-"`
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// Load reads the YAML file at path (a missing file is allowed), loads .env when
// present, applies environment overrides and defaults, then validates.
func Load(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if dev && cfg.Env == "" {
		cfg.Env = EnvDevelopment
	}
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev || cfg.Env == EnvDevelopment

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("APP_ENV", &cfg.Env)
	str("DATABASE_URL", &cfg.Database.URL)
	str("REDIS_URL", &cfg.Redis.URL)
	str("SIDESHIFT_API_BASE_URL", &cfg.SideShift.BaseURL)
	str("SIDESHIFT_SECRET", &cfg.SideShift.Secret)
	str("SIDESHIFT_AFFILIATE_ID", &cfg.SideShift.AffiliateID)
	str("CRON_SECRET", &cfg.Security.CronSecret)
	str("JWT_SECRET", &cfg.Security.JWTSecret)
	str("AMQP_URL", &cfg.Events.AMQPURL)

	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		cfg.HTTP.Port = port
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = EnvProduction
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.ShutdownGrace <= 0 {
		cfg.HTTP.ShutdownGrace = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.ConnectTimeout <= 0 {
		cfg.Database.ConnectTimeout = 5 * time.Second
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.SideShift.BaseURL == "" {
		cfg.SideShift.BaseURL = "https://sideshift.ai/api/v2"
	}
	if cfg.SideShift.Timeout <= 0 {
		cfg.SideShift.Timeout = 10 * time.Second
	}
	if cfg.Breaker.MaxRequests == 0 {
		cfg.Breaker.MaxRequests = 1
	}
	if cfg.Breaker.Interval <= 0 {
		cfg.Breaker.Interval = time.Minute
	}
	if cfg.Breaker.OpenTimeout <= 0 {
		cfg.Breaker.OpenTimeout = 30 * time.Second
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}

	if cfg.Billing.SlippageTolerance == "" {
		cfg.Billing.SlippageTolerance = "0.02"
	}
	if cfg.Billing.SweepLimit <= 0 {
		cfg.Billing.SweepLimit = 50
	}
	if cfg.Billing.SweepConcurrency <= 0 {
		cfg.Billing.SweepConcurrency = 4
	}
	if cfg.Billing.RenewalBatch <= 0 {
		cfg.Billing.RenewalBatch = 500
	}

	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = "postgres"
	}
	if cfg.RateLimit.Limit <= 0 {
		cfg.RateLimit.Limit = 10
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Hour
	}

	if cfg.Scheduler.JanitorInterval <= 0 {
		cfg.Scheduler.JanitorInterval = 30 * time.Minute
	}
	if cfg.Scheduler.LockTTL <= 0 {
		cfg.Scheduler.LockTTL = 5 * time.Minute
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "swapscribe.invoices"
	}
}

// Validate checks required settings. Production needs every credential.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	switch c.RateLimit.Backend {
	case "postgres":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("rate_limit.backend=redis requires redis.url")
		}
	default:
		return fmt.Errorf("unknown rate_limit.backend %q", c.RateLimit.Backend)
	}
	if !c.IsProduction() {
		return nil
	}
	var missing []string
	if c.SideShift.Secret == "" {
		missing = append(missing, "sideshift.secret")
	}
	if c.SideShift.AffiliateID == "" {
		missing = append(missing, "sideshift.affiliate_id")
	}
	if c.Security.CronSecret == "" {
		missing = append(missing, "security.cron_secret")
	}
	if c.Security.JWTSecret == "" {
		missing = append(missing, "security.jwt_secret")
	}
	if c.SideShift.Fake {
		return errors.New("sideshift.fake is not allowed in production")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing production settings: %v", missing)
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Minute
	}
	return d
}
