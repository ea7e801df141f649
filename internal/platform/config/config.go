package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every environment variable read by Load.
const Prefix = "REGISTRAR_"

// Config is the process-wide configuration. It is built once at startup and
// passed by value into constructors; nothing reads the environment afterwards.
type Config struct {
	// DevelopmentMode mounts the fake homeserver and relaxes the requirements
	// on Redis and the Matrix shared secret.
	DevelopmentMode bool `env:"DEVELOPMENT_MODE" envDefault:"false"`

	Server       Server       `envPrefix:"SERVER_"`
	Redis        RedisConfig  `envPrefix:"REDIS_"`
	Registration Registration `envPrefix:"REGISTRATION_"`
	RateLimit    RateLimit    `envPrefix:"RATE_LIMIT_"`
	Hasher       Hasher       `envPrefix:"ARGON2_"`
	Matrix       Matrix       `envPrefix:"MATRIX_"`
	Notify       Notify       `envPrefix:"NOTIFY_"`
}

// Server captures HTTP surface settings that are not listener addresses.
type Server struct {
	// APIPrefix is mounted before /v1, e.g. "/api/registrar". Empty or starting with "/".
	APIPrefix string `env:"API_PREFIX"`
	// RequestTimeout bounds each inbound request; background jobs ignore it.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	// AllowedOrigins lists the browser origins allowed to call the API.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://127.0.0.1:3000" envSeparator:","`
}

// RedisConfig holds connection settings for the shared cache.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"2s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"2s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"2s"`
}

// Registration bounds the lifetime of registration records.
type Registration struct {
	TTL time.Duration `env:"TTL" envDefault:"48h"`
}

// RateLimit configures the exponential-backoff limiter.
type RateLimit struct {
	Limit      int           `env:"LIMIT" envDefault:"10"`
	MaxBackoff time.Duration `env:"MAX_BACKOFF" envDefault:"24h"`
	Disabled   bool          `env:"DISABLED" envDefault:"false"`

	// BreakerThreshold consecutive Redis failures switch counting to memory
	// for BreakerCooldown before Redis is tried again.
	BreakerThreshold int           `env:"BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`
}

// Hasher holds argon2id cost parameters and the hashing pool size.
type Hasher struct {
	MemoryKiB   uint32 `env:"MEMORY_KIB" envDefault:"65536"`
	Iterations  uint32 `env:"ITERATIONS" envDefault:"3"`
	Parallelism uint8  `env:"PARALLELISM" envDefault:"2"`
	SaltLength  uint32 `env:"SALT_LEN" envDefault:"16"`
	KeyLength   uint32 `env:"KEY_LEN" envDefault:"32"`
	// Workers caps concurrent hash operations; 0 means runtime.NumCPU().
	Workers int `env:"WORKERS" envDefault:"0"`
}

// Matrix configures the homeserver used for account provisioning.
type Matrix struct {
	URL string `env:"URL"`
	// SharedSecret is the homeserver's registration_shared_secret. It allows
	// creating admin accounts; this service only ever requests non-admin ones.
	SharedSecret      string        `env:"REGISTRATION_SHARED_SECRET"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	SupportedVersions []string      `env:"SUPPORTED_VERSIONS" envDefault:"r0.5.0,r0.6.0,r0.6.1" envSeparator:","`
	UserType          string        `env:"USER_TYPE"`
	RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND" envDefault:"2"`
	BreakerThreshold  int           `env:"BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown   time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`
}

// Notify configures notification content and recipients.
type Notify struct {
	ManagersAddresses []string `env:"MANAGERS_ADDRESSES" envSeparator:","`
	SenderAddress     string   `env:"SENDER_ADDRESS"`
	SubjectPrefix     string   `env:"SUBJECT_PREFIX" envDefault:"[Registrar] "`
	ContactAddress    string   `env:"CONTACT_ADDRESS"`
	FrontendURL       string   `env:"FRONTEND_URL"`
	// PublicURL is the externally reachable base URL used in instructions.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://127.0.0.1:8080"`
}

// FromEnv loads the configuration from the process environment.
func FromEnv() (Config, error) {
	return load(env.Options{Prefix: Prefix})
}

// FromMap loads the configuration from an explicit environment map.
func FromMap(environ map[string]string) (Config, error) {
	return load(env.Options{Prefix: Prefix, Environment: environ})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Hasher.Workers <= 0 {
		cfg.Hasher.Workers = runtime.NumCPU()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.APIPrefix != "" && c.Server.APIPrefix[0] != '/' {
		errs = append(errs, errors.New("SERVER_API_PREFIX must begin with a slash"))
	}
	if c.Registration.TTL <= 0 {
		errs = append(errs, errors.New("REGISTRATION_TTL must be positive"))
	}
	if c.RateLimit.Limit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_LIMIT must be positive"))
	}
	if c.RateLimit.MaxBackoff < time.Second {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_BACKOFF must be at least one second"))
	}
	if c.RateLimit.BreakerThreshold <= 0 || c.RateLimit.BreakerCooldown <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BREAKER_THRESHOLD and RATE_LIMIT_BREAKER_COOLDOWN must be positive"))
	}
	if c.Hasher.MemoryKiB == 0 || c.Hasher.Iterations == 0 || c.Hasher.Parallelism == 0 {
		errs = append(errs, errors.New("ARGON2 memory, iterations and parallelism must be positive"))
	}
	if c.Hasher.SaltLength < 8 || c.Hasher.KeyLength < 16 {
		errs = append(errs, errors.New("ARGON2 salt must be >= 8 bytes and key >= 16 bytes"))
	}
	if !c.DevelopmentMode {
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required outside development mode"))
		}
		if c.Matrix.URL == "" {
			errs = append(errs, errors.New("MATRIX_URL is required outside development mode"))
		}
		if c.Matrix.SharedSecret == "" {
			errs = append(errs, errors.New("MATRIX_REGISTRATION_SHARED_SECRET is required outside development mode"))
		}
	}
	if len(c.Matrix.SupportedVersions) == 0 {
		errs = append(errs, errors.New("MATRIX_SUPPORTED_VERSIONS must not be empty"))
	}
	if c.Matrix.RequestTimeout <= 0 {
		errs = append(errs, errors.New("MATRIX_REQUEST_TIMEOUT must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
