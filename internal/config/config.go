package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 保存应用级别的配置。
type AppConfig struct {
	Name    string `mapstructure:"NAME"`
	Version string `mapstructure:"VERSION"`
	// BasePath 是所有路由的前缀，例如 "/catalogointerativo"。
	BasePath string `mapstructure:"BASE_PATH"`
}

// LogConfig 保存日志配置。
type LogConfig struct {
	Level      string `mapstructure:"LEVEL"`  // debug, info, warn, error
	Format     string `mapstructure:"FORMAT"` // json, console
	OutputPath string `mapstructure:"OUTPUT_PATH"`
}

// APIServerConfig 保存 API 服务器特有的配置。
type APIServerConfig struct {
	Host         string        `mapstructure:"HOST"`
	Port         string        `mapstructure:"PORT"`
	ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	CORS         CORSConfig    `mapstructure:"CORS"`
}

// NotifierConfig holds configuration for the websocket notifier server.
type NotifierConfig struct {
	Host          string `mapstructure:"HOST"`
	Port          string `mapstructure:"PORT"`
	WebSocketPath string `mapstructure:"WEBSOCKET_PATH"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// RedisConfig holds configuration for Redis. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	App       AppConfig       `mapstructure:"APP"`
	Log       LogConfig       `mapstructure:"LOG"`
	APIServer APIServerConfig `mapstructure:"API_SERVER"`
	Notifier  NotifierConfig  `mapstructure:"NOTIFIER"`
	Kafka     KafkaConfig     `mapstructure:"KAFKA"`
	Database  DatabaseConfig  `mapstructure:"DATABASE"`
	Storage   StorageConfig   `mapstructure:"STORAGE"`
	Auth      AuthConfig      `mapstructure:"AUTH"`
	WebSocket WebSocketConfig `mapstructure:"WEBSOCKET"`
	Redis     RedisConfig     `mapstructure:"REDIS"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Enabled            bool     `mapstructure:"ENABLED"`
	Brokers            []string `mapstructure:"BROKERS"`
	ClientID           string   `mapstructure:"CLIENT_ID"`
	CatalogEventsTopic string   `mapstructure:"CATALOG_EVENTS_TOPIC"`
	ConsumerGroup      string   `mapstructure:"CONSUMER_GROUP"`
	Protocol           string   `mapstructure:"PROTOCOL"`
}

// DatabaseConfig holds configuration for the database.
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"` // "postgres", "sqlite"
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
	// SQLitePath 仅在 TYPE 为 sqlite 时使用。
	SQLitePath string `mapstructure:"SQLITE_PATH"`
}

// StorageConfig holds configuration for catalog file storage.
type StorageConfig struct {
	Type              string   `mapstructure:"TYPE"` // "local", "s3"
	LocalPath         string   `mapstructure:"LOCAL_PATH"`
	MaxFileSizeMB     int64    `mapstructure:"MAX_FILE_SIZE_MB"`
	AllowedExtensions []string `mapstructure:"ALLOWED_EXTENSIONS"`
	PageLimit         int      `mapstructure:"PAGE_LIMIT"`
	S3                S3Config `mapstructure:"S3"`
}

// S3Config holds configuration for AWS S3.
type S3Config struct {
	BucketName      string `mapstructure:"BUCKET_NAME"`
	Region          string `mapstructure:"REGION"`
	AccessKeyID     string `mapstructure:"ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"SECRET_ACCESS_KEY"`
	Endpoint        string `mapstructure:"ENDPOINT"` // For S3 compatible storage like MinIO
	Prefix          string `mapstructure:"PREFIX"`
	PublicURL       string `mapstructure:"PUBLIC_URL"`
}

// AuthConfig holds configuration for the admin session gate.
type AuthConfig struct {
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
	// AdminPasswordHash 为 bcrypt 哈希，设置后优先于明文密码。
	AdminPasswordHash string        `mapstructure:"ADMIN_PASSWORD_HASH"`
	JWTSecretKey      string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry         time.Duration `mapstructure:"JWT_EXPIRY"`
	RequireSession    bool          `mapstructure:"REQUIRE_SESSION"`
}

// WebSocketConfig holds configuration for WebSocket connections.
type WebSocketConfig struct {
	WriteWaitSeconds    int `mapstructure:"WRITE_WAIT_SECONDS"`
	PongWaitSeconds     int `mapstructure:"PONG_WAIT_SECONDS"`
	PingPeriodSeconds   int `mapstructure:"PING_PERIOD_SECONDS"`
	MaxMessageSizeBytes int `mapstructure:"MAX_MESSAGE_SIZE_BYTES"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	v.SetDefault("APP.NAME", "catalog-admin")
	v.SetDefault("APP.VERSION", "0.1.0")
	v.SetDefault("APP.BASE_PATH", "/catalogointerativo")

	v.SetDefault("LOG.LEVEL", "info")
	v.SetDefault("LOG.FORMAT", "json")
	v.SetDefault("LOG.OUTPUT_PATH", "stdout")

	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "8081")
	v.SetDefault("API_SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.WRITE_TIMEOUT", 60*time.Second)
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length", "X-Request-ID"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300)

	v.SetDefault("NOTIFIER.HOST", "0.0.0.0")
	v.SetDefault("NOTIFIER.PORT", "8082")
	v.SetDefault("NOTIFIER.WEBSOCKET_PATH", "/ws/catalog")

	v.SetDefault("KAFKA.ENABLED", false)
	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "catalog-admin")
	v.SetDefault("KAFKA.CATALOG_EVENTS_TOPIC", "catalog-events")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "catalog-notifier-group")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")

	v.SetDefault("DATABASE.TYPE", "sqlite")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.DB_NAME", "catalog")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.SQLITE_PATH", "./data/catalog.db")

	v.SetDefault("STORAGE.TYPE", "local")
	v.SetDefault("STORAGE.LOCAL_PATH", "./public/files")
	v.SetDefault("STORAGE.MAX_FILE_SIZE_MB", 20)
	v.SetDefault("STORAGE.ALLOWED_EXTENSIONS", []string{".jpg", ".jpeg", ".png", ".gif", ".webp"})
	v.SetDefault("STORAGE.PAGE_LIMIT", 50)
	v.SetDefault("STORAGE.S3.REGION", "us-east-1")

	v.SetDefault("AUTH.ADMIN_PASSWORD", "admin123")
	v.SetDefault("AUTH.ADMIN_PASSWORD_HASH", "")
	v.SetDefault("AUTH.JWT_SECRET_KEY", "a_very_secret_key_that_should_be_changed")
	v.SetDefault("AUTH.JWT_EXPIRY", 8*time.Hour)
	v.SetDefault("AUTH.REQUIRE_SESSION", true)

	v.SetDefault("REDIS.ADDR", "")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("WEBSOCKET.WRITE_WAIT_SECONDS", 10)
	v.SetDefault("WEBSOCKET.PONG_WAIT_SECONDS", 60)
	v.SetDefault("WEBSOCKET.PING_PERIOD_SECONDS", 54) // (60 * 9) / 10
	v.SetDefault("WEBSOCKET.MAX_MESSAGE_SIZE_BYTES", 1024)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// APP_BASE_PATH 覆盖 App.BasePath，嵌套字段使用下划线
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		// 没有配置文件时使用默认值
		err = nil
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}
	config.App.BasePath = NormalizeBasePath(config.App.BasePath)
	return
}

// NormalizeBasePath 保证前缀以 "/" 开头且不以 "/" 结尾；"/" 与空串都表示无前缀。
func NormalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
