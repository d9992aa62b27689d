package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Environment string `validate:"required,oneof=production development test"`
	Port        string `validate:"required,numeric"`

	MongoURI  string
	DBUser    string `validate:"required_without=MongoURI"`
	DBPass    string `validate:"required_without=MongoURI"`
	DBCluster string `validate:"required_without=MongoURI"`
	DBName    string `validate:"required"`

	SecretKey   string   `validate:"required"`
	CORSOrigins []string `validate:"min=1,dive,url"`

	RedisAddr string
	CacheTTL  time.Duration `validate:"gt=0"`

	StoreTimeout   time.Duration `validate:"gt=0"`
	UpsertOnUpdate bool

	Logging LoggingConfig
}

type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// Load reads the configuration from the environment. Outside production a
// .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	env := getenv("APP_ENV", EnvDevelopment)
	if env != EnvProduction {
		// a missing .env is fine, the process environment still applies
		_ = godotenv.Load()
	}

	cacheTTL, err := durationEnv("CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	storeTimeout, err := durationEnv("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	upsert, err := boolEnv("UPSERT_ON_UPDATE", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:    env,
		Port:           getenv("PORT", "5000"),
		MongoURI:       os.Getenv("MONGO_URI"),
		DBUser:         os.Getenv("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBCluster:      os.Getenv("DB_CLUSTER"),
		DBName:         getenv("DB_NAME", "raceConnectDB"),
		SecretKey:      os.Getenv("SECRET_KEY"),
		CORSOrigins:    splitList(getenv("CORS_ORIGINS", "http://localhost:5173")),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		CacheTTL:       cacheTTL,
		StoreTimeout:   storeTimeout,
		UpsertOnUpdate: upsert,
		Logging: LoggingConfig{
			Level:  strings.ToLower(getenv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getenv("LOG_FORMAT", "json")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// DatabaseURI returns MONGO_URI when set, otherwise an Atlas SRV URI built
// from the credentials and cluster host.
func (c *Config) DatabaseURI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority&appName=RaceConnect",
		c.DBUser, c.DBPass, c.DBCluster)
}

func (c *Config) Addr() string { return ":" + c.Port }

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSuffix(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SecretFromEnv reads only SECRET_KEY, for tools that sign tokens without
// connecting to the store.
func SecretFromEnv() (string, error) {
	if getenv("APP_ENV", EnvDevelopment) != EnvProduction {
		_ = godotenv.Load()
	}
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		return "", fmt.Errorf("SECRET_KEY is not set")
	}
	return secret, nil
}
