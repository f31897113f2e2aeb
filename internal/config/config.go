package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Log       LogConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Blob      BlobConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	DynamoDB  DynamoDBConfig
	Retention RetentionConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Company   CompanyConfig
}

type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

type LogConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	Username  string
	Password  string
	Secret    string
	SecretSet bool
	TokenTTL  time.Duration
}

// Storage backend names accepted in STORAGE_BACKEND
const (
	BackendBlob     = "blob"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

type StorageConfig struct {
	Backend string
}

type BlobConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Host      string
	Port      string
	User      string
	Password  string
	DB        int
	TLS       bool
	KeyPrefix string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type DynamoDBConfig struct {
	Table    string
	Endpoint string
	Region   string
}

type RetentionConfig struct {
	QuotationDays int
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type CompanyConfig struct {
	Name     string
	Address  string
	Contact  string
	GSTLabel string
}

const defaultSecret = "default-secret-key"

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory. Missing files are not an error.
func Load() *Config {
	_ = godotenv.Load()
	return fromViper(viper.New())
}

func fromViper(v *viper.Viper) *Config {
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("APP_NAME", "pipecenter-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("AUTH_SECRET", defaultSecret)
	v.SetDefault("AUTH_TOKEN_TTL_HOURS", 24)
	v.SetDefault("BLOB_BASE_URL", "https://blob.vercel-storage.com")
	v.SetDefault("BLOB_TIMEOUT_SECONDS", 15)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB_NUM", 0)
	v.SetDefault("REDIS_SSL", false)
	v.SetDefault("REDIS_KEY_PREFIX", "pipecenter:")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "pipecenter")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("DDB_TABLE", "pipecenter_blobs")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("QUOTATION_RETENTION_DAYS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_REQUESTS", 10)
	v.SetDefault("RATE_LIMIT_DURATION", 60)
	v.SetDefault("COMPANY_NAME", "Pipe Center")
	v.SetDefault("COMPANY_ADDRESS", "51, MARIYAPPA STREET, KATTOOR,\nCOIMBATORE, PIN - 641 009")
	v.SetDefault("COMPANY_CONTACT", "+91 9894858006 / +91 9894154439")
	v.SetDefault("GST_LABEL", "GST (18%)")

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Env:     v.GetString("APP_ENV"),
			Port:    v.GetString("APP_PORT"),
			Version: v.GetString("APP_VERSION"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Auth: AuthConfig{
			Username:  v.GetString("AUTH_USERNAME"),
			Password:  v.GetString("AUTH_PASSWORD"),
			Secret:    v.GetString("AUTH_SECRET"),
			SecretSet: v.IsSet("AUTH_SECRET") && v.GetString("AUTH_SECRET") != defaultSecret,
			TokenTTL:  time.Duration(v.GetInt("AUTH_TOKEN_TTL_HOURS")) * time.Hour,
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_BACKEND"))),
		},
		Blob: BlobConfig{
			Token:   v.GetString("BLOB_READ_WRITE_TOKEN"),
			BaseURL: strings.TrimRight(v.GetString("BLOB_BASE_URL"), "/"),
			Timeout: time.Duration(v.GetInt("BLOB_TIMEOUT_SECONDS")) * time.Second,
		},
		Redis: RedisConfig{
			Host:      v.GetString("REDIS_HOST"),
			Port:      v.GetString("REDIS_PORT"),
			User:      v.GetString("REDIS_USER"),
			Password:  v.GetString("REDIS_PASS"),
			DB:        v.GetInt("REDIS_DB_NUM"),
			TLS:       v.GetBool("REDIS_SSL"),
			KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
			Timezone: v.GetString("DB_TIMEZONE"),
		},
		DynamoDB: DynamoDBConfig{
			Table:    v.GetString("DDB_TABLE"),
			Endpoint: v.GetString("DDB_ENDPOINT"),
			Region:   v.GetString("AWS_REGION"),
		},
		Retention: RetentionConfig{
			QuotationDays: v.GetInt("QUOTATION_RETENTION_DAYS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(v.GetString("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Company: CompanyConfig{
			Name:     v.GetString("COMPANY_NAME"),
			Address:  v.GetString("COMPANY_ADDRESS"),
			Contact:  v.GetString("COMPANY_CONTACT"),
			GSTLabel: v.GetString("GST_LABEL"),
		},
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendMemory
		if cfg.Blob.Token != "" {
			cfg.Storage.Backend = BackendBlob
		}
	}
	if cfg.Retention.QuotationDays <= 0 {
		cfg.Retention.QuotationDays = 30
	}
	return cfg
}

// RetentionWindow is how long a quotation is kept after creation
func (c *RetentionConfig) RetentionWindow() time.Duration {
	return time.Duration(c.QuotationDays) * 24 * time.Hour
}

// HasBlobToken reports whether a remote blob credential was configured
func (c *BlobConfig) HasBlobToken() bool {
	return c.Token != ""
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
