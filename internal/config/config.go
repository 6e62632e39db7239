package config

import (
	"fmt"     // For DSN formatting
	"net"     // For host and port joining
	"net/url" // For URL-form DSNs
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For DSN quoting
	"time"    // For durations

	"github.com/go-sql-driver/mysql" // For MySQL DSN formatting
	"github.com/joho/godotenv"       // For loading .env files
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration
type Config struct {
	AppPort  string // Application port
	IsProd   bool   // Is production environment
	LogLevel string // Logrus level name

	DBDriver   string // postgres, mysql or sqlite
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	DBSSLMode  string // Postgres sslmode
	DBPath     string // SQLite file path

	JWTSecret string        // JWT secret key
	JWTTTL    time.Duration // Token lifetime

	RedisAddr string // Redis server address, empty disables caching
	RedisPass string // Redis password
	RedisDB   int    // Redis database number

	MLEndpoint   string        // Prediction service URL
	MLTimeout    time.Duration // Per-call timeout for the prediction service
	StatsRefresh string        // Cron schedule for the stats snapshot job

	AdminEmail    string // Default admin email for create-admin
	AdminPassword string // Default admin password for create-admin
	AdminName     string // Default admin display name
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:  getEnv("APP_PORT", "8080"),     // Application port
		IsProd:   os.Getenv("IS_PROD") == "true", // Is production environment
		LogLevel: getEnv("LOG_LEVEL", "info"),    // Log level

		DBDriver:   getEnv("DB_DRIVER", DriverPostgres), // Database driver
		DBUser:     os.Getenv("DB_USER"),                // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),            // Database password
		DBHost:     getEnv("DB_HOST", "localhost"),      // Database host
		DBPort:     os.Getenv("DB_PORT"),                // Database port
		DBName:     os.Getenv("DB_NAME"),                // Database name
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),     // Postgres sslmode
		DBPath:     getEnv("DB_PATH", "srq.db"),         // SQLite file

		JWTSecret: os.Getenv("JWT_SECRET"),              // JWT secret key
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour), // Token lifetime
		RedisAddr: os.Getenv("REDIS_ADDR"),              // Redis server address
		RedisPass: os.Getenv("REDIS_PASS"),              // Redis password
		RedisDB:   redisDB,                              // Redis database number

		MLEndpoint:   os.Getenv("ML_ENDPOINT"),                  // Prediction service URL
		MLTimeout:    getDuration("ML_TIMEOUT", 15*time.Second), // Prediction timeout
		StatsRefresh: getEnv("STATS_REFRESH", "@every 5m"),      // Stats job schedule

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),              // Default admin email
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),           // Default admin password
		AdminName:     getEnv("ADMIN_NAME", "Administrator"), // Default admin name
	}
}

// DSN returns the data source name for the configured driver
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverMySQL:
		mc := mysql.NewConfig()                              // Driver defaults
		mc.User = c.DBUser                                   // Database user
		mc.Passwd = c.DBPassword                             // Database password
		mc.Net = "tcp"                                       // Network type
		mc.Addr = net.JoinHostPort(c.DBHost, c.port("3306")) // Host and port
		mc.DBName = c.DBName                                 // Database name
		mc.ParseTime = true                                  // Scan DATETIME into time.Time
		return mc.FormatDSN()
	case DriverSQLite:
		return c.DBPath
	default:
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			dsnValue(c.DBHost), dsnValue(c.DBUser), dsnValue(c.DBPassword),
			dsnValue(c.DBName), dsnValue(c.port("5432")), dsnValue(c.DBSSLMode),
		)
	}
}

// PostgresURL returns a URL-form DSN for tools that talk to Postgres directly
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",                                    // Postgres scheme
		User:     url.UserPassword(c.DBUser, c.DBPassword),      // Escaped credentials
		Host:     net.JoinHostPort(c.DBHost, c.port("5432")),    // Host and port
		Path:     "/" + c.DBName,                                // Database name
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(), // Connection options
	}
	return u.String()
}

func (c *Config) port(fallback string) string {
	if c.DBPort != "" {
		return c.DBPort
	}
	return fallback
}

// dsnValue quotes a keyword/value DSN value when it is empty or holds a space, quote or backslash
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
