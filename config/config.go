package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	MongoDB MongoDBConfig
	Kafka   KafkaConfig
	SMTP    SMTPConfig
	JWT     JWTConfig
	Reset   ResetConfig
}

type ServerConfig struct {
	Port           string
	Environment    string
	Version        string
	AllowedOrigins []string
}

type MongoDBConfig struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
	MaxRetries  int
}

type KafkaConfig struct {
	Brokers         []string
	ProducerTimeout int
	ClientID        string
	Username        string
	Password        string
	SSL             bool
	SASLMechanism   string
	Topics          KafkaTopics
}

type KafkaTopics struct {
	UserSignedUp           string
	PasswordResetRequested string
	PasswordResetCompleted string
	NotificationCreated    string
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
}

type JWTConfig struct {
	PrivateKeyPath     string
	PublicKeyPath      string
	AccessTokenExpiry  int // in minutes
	RefreshTokenExpiry int // in days
}

// ResetConfig controls the one-time-code password reset flow.
type ResetConfig struct {
	CodeTTL        time.Duration // how long an issued code stays valid
	RedisAddr      string        // optional: shared challenge store for multi-instance deployments
	RedisPassword  string
	RequestsPerMin float64 // per-email rate limit on code issuance
	RequestBurst   int
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	setDefaults()

	viper.AutomaticEnv()

	// Config file is optional; env vars and defaults cover everything.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/bluesky-api")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config

	config.Server = ServerConfig{
		Port:           viper.GetString("server.port"),
		Environment:    viper.GetString("server.environment"),
		Version:        viper.GetString("server.version"),
		AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
	}

	config.MongoDB = MongoDBConfig{
		URI:         viper.GetString("mongodb.uri"),
		Database:    viper.GetString("mongodb.database"),
		MaxPoolSize: viper.GetUint64("mongodb.max_pool_size"),
		MinPoolSize: viper.GetUint64("mongodb.min_pool_size"),
		MaxRetries:  viper.GetInt("mongodb.max_retries"),
	}

	config.Kafka = KafkaConfig{
		Brokers:         viper.GetStringSlice("kafka.brokers"),
		ProducerTimeout: viper.GetInt("kafka.producer_timeout"),
		ClientID:        viper.GetString("kafka.client_id"),
		Username:        viper.GetString("kafka.username"),
		Password:        viper.GetString("kafka.password"),
		SSL:             viper.GetBool("kafka.ssl"),
		SASLMechanism:   viper.GetString("kafka.sasl_mechanism"),
		Topics: KafkaTopics{
			UserSignedUp:           viper.GetString("kafka.topics.user_signed_up"),
			PasswordResetRequested: viper.GetString("kafka.topics.password_reset_requested"),
			PasswordResetCompleted: viper.GetString("kafka.topics.password_reset_completed"),
			NotificationCreated:    viper.GetString("kafka.topics.notification_created"),
		},
	}

	config.SMTP = SMTPConfig{
		Host:      viper.GetString("smtp.host"),
		Port:      viper.GetInt("smtp.port"),
		Username:  viper.GetString("smtp.username"),
		Password:  viper.GetString("smtp.password"),
		FromEmail: viper.GetString("smtp.from_email"),
	}

	config.JWT = JWTConfig{
		PrivateKeyPath:     viper.GetString("jwt.private_key_path"),
		PublicKeyPath:      viper.GetString("jwt.public_key_path"),
		AccessTokenExpiry:  viper.GetInt("jwt.access_token_expiry"),
		RefreshTokenExpiry: viper.GetInt("jwt.refresh_token_expiry"),
	}

	config.Reset = ResetConfig{
		CodeTTL:        viper.GetDuration("reset.code_ttl"),
		RedisAddr:      viper.GetString("reset.redis_addr"),
		RedisPassword:  viper.GetString("reset.redis_password"),
		RequestsPerMin: viper.GetFloat64("reset.requests_per_min"),
		RequestBurst:   viper.GetInt("reset.request_burst"),
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("server.version", "1.0.0")
	viper.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000",
		"http://localhost:5173",
	})

	// MongoDB defaults
	viper.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongodb.database", "bluesky_db")
	viper.SetDefault("mongodb.max_pool_size", 100)
	viper.SetDefault("mongodb.min_pool_size", 10)
	viper.SetDefault("mongodb.max_retries", 5)

	// Kafka defaults
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.producer_timeout", 5000)
	viper.SetDefault("kafka.client_id", "bluesky-api-producer")
	viper.SetDefault("kafka.username", "")
	viper.SetDefault("kafka.password", "")
	viper.SetDefault("kafka.ssl", false)
	viper.SetDefault("kafka.sasl_mechanism", "plain")

	// Kafka topic defaults
	viper.SetDefault("kafka.topics.user_signed_up", "users.signed_up")
	viper.SetDefault("kafka.topics.password_reset_requested", "auth.password_reset_requested")
	viper.SetDefault("kafka.topics.password_reset_completed", "auth.password_reset_completed")
	viper.SetDefault("kafka.topics.notification_created", "notifications.created")

	// SMTP defaults
	viper.SetDefault("smtp.host", "smtp.gmail.com")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.username", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("smtp.from_email", "no-reply@bluesky.com")

	// JWT defaults
	viper.SetDefault("jwt.private_key_path", "./secrets/jwt/private.pem")
	viper.SetDefault("jwt.public_key_path", "./secrets/jwt/public.pem")
	viper.SetDefault("jwt.access_token_expiry", 15) // 15 minutes
	viper.SetDefault("jwt.refresh_token_expiry", 7) // 7 days

	// Reset flow defaults
	viper.SetDefault("reset.code_ttl", 10*time.Minute)
	viper.SetDefault("reset.redis_addr", "") // empty: in-process store
	viper.SetDefault("reset.redis_password", "")
	viper.SetDefault("reset.requests_per_min", 3)
	viper.SetDefault("reset.request_burst", 3)
}
