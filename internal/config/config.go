package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

const minSecretLen = 32

type Config struct {
	Env      string `env:"APP_ENV,   default=dev"`
	Port     int    `env:"PORT,      default=8080"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	DBURL        string        `env:"DATABASE_URL, required"`
	DBMaxConns   int32         `env:"DB_MAX_CONNS, default=5"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT, default=3s"`

	Session SessionConfig
	Redis   RedisConfig
	Admin   AdminConfig
	HTTP    HTTPConfig
	Tracing TracingConfig
}

type SessionConfig struct {
	Secret     string        `env:"SESSION_SECRET, required"`
	TTL        time.Duration `env:"SESSION_TTL,    default=24h"`
	Store      string        `env:"SESSION_STORE,  default=postgres"`
	BcryptCost int           `env:"BCRYPT_COST,    default=10"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type AdminConfig struct {
	Role        string `env:"ADMIN_ROLE,   default=admin"`
	DefaultRole string `env:"DEFAULT_ROLE, default=user"`
	Email       string `env:"ADMIN_EMAIL"`
	Password    string `env:"ADMIN_PASSWORD"`
	Name        string `env:"ADMIN_NAME,   default=Administrator"`
}

type HTTPConfig struct {
	CORSOrigins       []string      `env:"CORS_ORIGINS"`
	TrustedProxies    []string      `env:"TRUSTED_PROXIES"`
	LoginRateLimit    int           `env:"LOGIN_RATE_LIMIT,  default=10"`
	LoginRateWindow   time.Duration `env:"LOGIN_RATE_WINDOW, default=1m"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES,    default=1048576"`
	EmptyListNotFound bool          `env:"EMPTY_LIST_404,    default=false"`
}

type TracingConfig struct {
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE, default=true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME,           default=scheduler"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO,   default=1"`
}

var sessionStores = []string{"postgres", "redis", "memory"}

// Load reads a .env file when present, then the process environment.
// A missing required setting is an error; callers are expected to exit.
func Load(ctx context.Context) (Config, error) {
	err := godotenv.Load()

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}

	return LoadFrom(ctx, envconfig.OsLookuper())
}

func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	})

	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Session.Secret) < minSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSecretLen)
	}

	if !slices.Contains(sessionStores, c.Session.Store) {
		return fmt.Errorf("SESSION_STORE must be one of %v, got %q", sessionStores, c.Session.Store)
	}

	if c.Session.Store == "redis" && c.Redis.Addr == "" {
		return errors.New("SESSION_STORE=redis requires REDIS_ADDR")
	}

	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	if c.Session.BcryptCost < bcrypt.MinCost || c.Session.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}

	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}

	if c.HTTP.LoginRateLimit <= 0 || c.HTTP.LoginRateWindow <= 0 {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_RATIO must be between 0 and 1")
	}

	for _, p := range c.HTTP.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("TRUSTED_PROXIES: %q is not an ip or cidr", p)
			}
		}
	}

	if c.Admin.Role == "" || c.Admin.DefaultRole == "" {
		return errors.New("ADMIN_ROLE and DEFAULT_ROLE must not be empty")
	}

	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return nil
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// WithTimeout bounds a store call made outside of a request.
func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
