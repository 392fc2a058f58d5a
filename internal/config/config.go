package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Order    OrderConfig    `yaml:"order"`
	Log      LogConfig      `yaml:"log"`
	SeedFile string         `yaml:"seedFile"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

type DatabaseConfig struct {
	Driver           string        `yaml:"driver"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	Name             string        `yaml:"name"`
	MaxOpenConns     int           `yaml:"maxOpenConns"`
	MaxIdleConns     int           `yaml:"maxIdleConns"`
	ConnMaxLifetime  time.Duration `yaml:"connMaxLifetime"`
	SQLitePath       string        `yaml:"sqlitePath"`
	MongoURI         string        `yaml:"mongoUri"`
	MongoDatabase    string        `yaml:"mongoDatabase"`
	OperationTimeout time.Duration `yaml:"operationTimeout"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwtSecret"`
	WebhookSecret string `yaml:"webhookSecret"`
}

type OrderConfig struct {
	// Timezone is the IANA zone whose calendar bounds the daily and monthly earnings windows.
	Timezone       string `yaml:"timezone"`
	PaymentURLBase string `yaml:"paymentUrlBase"`
	// MaxRetryAttempts bounds retries of writes that failed with a transient storage error.
	MaxRetryAttempts int `yaml:"maxRetryAttempts"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_REQUEST_TIMEOUT", "15s")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "kms")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "kms")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_OPERATION_TIMEOUT", "5s")
	v.SetDefault("SQLITE_PATH", "kms.db")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "kms")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("WEBHOOK_SECRET", "")
	v.SetDefault("ORDER_TIMEZONE", "Local")
	v.SetDefault("PAYMENT_URL_BASE", "paytm://pay")
	v.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("SEED_FILE", "")
	v.SetDefault("LOG_LEVEL", "info")

	requestTimeout, err := time.ParseDuration(v.GetString("SERVER_REQUEST_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("parsing SERVER_REQUEST_TIMEOUT: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("parsing DB_CONN_MAX_LIFETIME: %w", err)
	}

	operationTimeout, err := time.ParseDuration(v.GetString("DB_OPERATION_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("parsing DB_OPERATION_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("SERVER_PORT"),
			RequestTimeout: requestTimeout,
		},
		Database: DatabaseConfig{
			Driver:           v.GetString("DB_DRIVER"),
			Host:             v.GetString("DB_HOST"),
			Port:             v.GetInt("DB_PORT"),
			User:             v.GetString("DB_USER"),
			Password:         v.GetString("DB_PASSWORD"),
			Name:             v.GetString("DB_NAME"),
			MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:  connMaxLifetime,
			SQLitePath:       v.GetString("SQLITE_PATH"),
			MongoURI:         v.GetString("MONGO_URI"),
			MongoDatabase:    v.GetString("MONGO_DATABASE"),
			OperationTimeout: operationTimeout,
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			WebhookSecret: v.GetString("WEBHOOK_SECRET"),
		},
		Order: OrderConfig{
			Timezone:         v.GetString("ORDER_TIMEZONE"),
			PaymentURLBase:   v.GetString("PAYMENT_URL_BASE"),
			MaxRetryAttempts: v.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		SeedFile: v.GetString("SEED_FILE"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMongo, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if _, err := c.Order.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves the earnings timezone.
func (o OrderConfig) Location() (*time.Location, error) {
	if o.Timezone == "" || o.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading order timezone %q: %w", o.Timezone, err)
	}
	return loc, nil
}
