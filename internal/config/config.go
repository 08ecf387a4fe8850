package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Logging     LoggingConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Session     SessionConfig
	OTP         OTPConfig
	Kafka       KafkaConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string

	EnableTLS   bool
	TLSPort     int
	AutoCert    bool
	Domain      string
	CertFile    string
	KeyFile     string
	AutoCertDir string
	Email       string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// StorageConfig selects where registration blobs are persisted
type StorageConfig struct {
	Driver string
	Dir    string
	Key    string
	Secret string
	TTL    time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int

	// client certificate material, used only for rediss:// URLs
	TLSCAFile   string
	TLSCertFile string
	TLSKeyFile  string
}

func (r RedisConfig) UsesTLS() bool {
	return strings.HasPrefix(r.URL, "rediss://")
}

type SessionConfig struct {
	Shards      int
	IdleTimeout time.Duration
	SweepEvery  time.Duration
}

type OTPConfig struct {
	SendDelay      time.Duration
	VerifyDelay    time.Duration
	ResendInterval time.Duration
	Argon2Memory   uint32
	Argon2Time     uint32
	Argon2Threads  uint8
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoadConfig reads an optional .env file and then the process environment.
// Values already present in the environment win over the file.
func LoadConfig() *Config {
	envFile := getEnv("ENV_FILE", ".env")
	_ = godotenv.Load(envFile)

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://*", "https://*"}),
			EnableTLS:       getEnvBool("TLS_ENABLED", false),
			TLSPort:         getEnvInt("TLS_PORT", 8443),
			AutoCert:        getEnvBool("TLS_AUTOCERT", false),
			Domain:          getEnv("TLS_DOMAIN", "localhost"),
			CertFile:        getEnv("TLS_CERT_FILE", ""),
			KeyFile:         getEnv("TLS_KEY_FILE", ""),
			AutoCertDir:     getEnv("TLS_AUTOCERT_DIR", "./certs"),
			Email:           getEnv("TLS_EMAIL", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", StorageMemory),
			Dir:    getEnv("STORAGE_DIR", "./data"),
			Key:    getEnv("STORAGE_KEY", "registration_data"),
			Secret: getEnv("STORAGE_SECRET", ""),
			TTL:    getEnvDuration("STORAGE_TTL", 0),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 20),

			TLSCAFile:   getEnv("REDIS_TLS_CA_FILE", ""),
			TLSCertFile: getEnv("REDIS_TLS_CERT_FILE", ""),
			TLSKeyFile:  getEnv("REDIS_TLS_KEY_FILE", ""),
		},
		Session: SessionConfig{
			Shards:      getEnvInt("SESSION_SHARDS", 32),
			IdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			SweepEvery:  getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		},
		OTP: OTPConfig{
			SendDelay:      getEnvDuration("OTP_SEND_DELAY", 500*time.Millisecond),
			VerifyDelay:    getEnvDuration("OTP_VERIFY_DELAY", 0),
			ResendInterval: getEnvDuration("OTP_RESEND_INTERVAL", 60*time.Second),
			Argon2Memory:   uint32(getEnvInt("OTP_ARGON2_MEMORY_KB", 19*1024)),
			Argon2Time:     uint32(getEnvInt("OTP_ARGON2_TIME", 2)),
			Argon2Threads:  uint8(getEnvInt("OTP_ARGON2_THREADS", 1)),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "registration-events"),
		},
	}
}

// Validate rejects combinations the factory cannot build
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageMemory, StorageFile, StorageRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Storage.Driver == StorageFile && c.Storage.Dir == "" {
		errs = append(errs, errors.New("STORAGE_DIR is required for the file driver"))
	}
	if c.Storage.Key == "" {
		errs = append(errs, errors.New("STORAGE_KEY must not be empty"))
	}
	if c.Storage.Driver == StorageRedis && c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL is required for the redis driver"))
	}
	if c.Storage.Driver == StorageRedis && c.Redis.UsesTLS() &&
		(c.Redis.TLSCAFile == "" || c.Redis.TLSCertFile == "" || c.Redis.TLSKeyFile == "") {
		errs = append(errs, errors.New("REDIS_TLS_CA_FILE, REDIS_TLS_CERT_FILE and REDIS_TLS_KEY_FILE are required for rediss:// URLs"))
	}
	if c.Session.Shards < 1 {
		errs = append(errs, errors.New("SESSION_SHARDS must be positive"))
	}
	if c.Server.EnableTLS && !c.Server.AutoCert && (c.Server.CertFile == "" || c.Server.KeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE are required when TLS is enabled without autocert"))
	}
	if c.IsProduction() && c.Storage.Secret == "" && c.Storage.Driver != StorageMemory {
		errs = append(errs, errors.New("STORAGE_SECRET is required in production"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) GetServerAddress() string {
	if c.Server.EnableTLS {
		return fmt.Sprintf(":%d", c.Server.TLSPort)
	}
	return fmt.Sprintf(":%d", c.Server.Port)
}

// PlainAddress is the non-TLS port, used for ACME challenges when TLS is on
func (c *Config) PlainAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
