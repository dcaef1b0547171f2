package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/auth-gateway/internal/domain"
)

// Secret source selectors.
const (
	SecretSourceKeyVault = "keyvault"
	SecretSourceStatic   = "static"
)

// Store driver selectors.
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	App      AppConfig
	Vault    VaultConfig
	Auth     AuthConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	CORS     CORSConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// VaultConfig locates the signing secret.
type VaultConfig struct {
	Source       string
	URL          string
	TenantID     string
	ClientID     string
	ClientSecret string
	SecretName   string
	StaticSecret string
}

// AuthConfig defines token lifetimes and flow selection.
type AuthConfig struct {
	Mode                   domain.AuthMode
	AccessTokenTTLMinutes  int
	RefreshTokenTTLMinutes int
	ServiceTokenTTLMinutes int
	ServiceSecret          string
	BcryptCost             int
}

// StoreConfig selects backing stores for identities and refresh tokens.
type StoreConfig struct {
	IdentityDriver string
	RefreshDriver  string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// CORSConfig restricts browser access to the configured origin.
type CORSConfig struct {
	AllowedOrigin string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	mode, err := domain.ParseAuthMode(getEnv("AUTH_MODE", string(domain.AuthModeSelfService)))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_MODE: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "auth-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Vault: VaultConfig{
			Source:       getEnv("SECRET_SOURCE", SecretSourceKeyVault),
			URL:          os.Getenv("AZURE_KEY_VAULT_URL"),
			TenantID:     os.Getenv("AZURE_TENANT_ID"),
			ClientID:     os.Getenv("AZURE_CLIENT_ID"),
			ClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
			SecretName:   getEnv("AZURE_KEY_VAULT_SECRET_NAME", "SECRET-KEY"),
			StaticSecret: os.Getenv("AUTH_SIGNING_SECRET"),
		},
		Auth: AuthConfig{
			Mode:                   mode,
			AccessTokenTTLMinutes:  getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 15),
			RefreshTokenTTLMinutes: getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_MINUTES", 43200),
			ServiceTokenTTLMinutes: getEnvAsInt("AUTH_SERVICE_TOKEN_TTL_MINUTES", 15),
			ServiceSecret:          os.Getenv("AUTH_SERVICE_SECRET"),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Store: StoreConfig{
			IdentityDriver: getEnv("STORE_DRIVER", StoreDriverMemory),
			RefreshDriver:  getEnv("REFRESH_STORE_DRIVER", getEnv("STORE_DRIVER", StoreDriverMemory)),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		CORS: CORSConfig{
			AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.Mode == domain.AuthModeServiceGated && c.Auth.ServiceSecret == "" {
		return fmt.Errorf("AUTH_SERVICE_SECRET is required when AUTH_MODE=%s", domain.AuthModeServiceGated)
	}
	switch c.Vault.Source {
	case SecretSourceKeyVault:
		if c.Vault.URL == "" {
			return fmt.Errorf("AZURE_KEY_VAULT_URL is required when SECRET_SOURCE=%s", SecretSourceKeyVault)
		}
	case SecretSourceStatic:
		if c.Vault.StaticSecret == "" {
			return fmt.Errorf("AUTH_SIGNING_SECRET is required when SECRET_SOURCE=%s", SecretSourceStatic)
		}
	default:
		return fmt.Errorf("invalid SECRET_SOURCE: %q", c.Vault.Source)
	}
	for _, driver := range []string{c.Store.IdentityDriver, c.Store.RefreshDriver} {
		switch driver {
		case StoreDriverMemory, StoreDriverPostgres, StoreDriverRedis:
		default:
			return fmt.Errorf("invalid store driver: %q", driver)
		}
	}
	if c.Store.IdentityDriver == StoreDriverRedis {
		return fmt.Errorf("redis driver is supported for the refresh token table only")
	}
	if (c.Store.IdentityDriver == StoreDriverPostgres || c.Store.RefreshDriver == StoreDriverPostgres) && c.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for the postgres store driver")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL is the lifetime of issued refresh tokens.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLMinutes) * time.Minute
}

// ServiceTokenTTL is the lifetime of issued service role tokens.
func (a AuthConfig) ServiceTokenTTL() time.Duration {
	return time.Duration(a.ServiceTokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
