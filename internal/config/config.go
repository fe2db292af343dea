package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

// Config holds service configuration.
type Config struct {
	ServerAddr     string
	StoreDriver    string
	DatabaseURL    string
	MigrationsDir  string
	SQLitePath     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	UsersCSVPath   string
	RequestTimeout time.Duration
	LogLevel       string
	RandomSeed     uint64

	// Pool tuning for the postgres driver. Zero keeps the pgx default.
	DBMaxConns        int32
	DBMaxConnLifetime time.Duration
}

// Load reads configuration from the environment. Values from an env file
// (ENV_FILE, default .env) fill in variables that are not already set; a
// missing file is ignored.
func Load() (*Config, error) {
	if err := loadEnvFile(getenv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "lunch")
		pass := getenv("POSTGRES_PASSWORD", "lunch_pass")
		db := getenv("POSTGRES_DB", "lunch")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	driver := strings.ToLower(getenv("STORE_DRIVER", DriverMemory))
	switch driver {
	case DriverMemory, DriverPostgres, DriverSQLite, DriverRedis:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}

	redisDB, err := parseInt(getenv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	maxConns, err := strconv.ParseInt(getenv("DB_MAX_CONNS", "0"), 10, 32)
	if err != nil || maxConns < 0 {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS %q", os.Getenv("DB_MAX_CONNS"))
	}
	seed, err := strconv.ParseUint(getenv("RANDOM_SEED", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RANDOM_SEED: %w", err)
	}

	return &Config{
		ServerAddr:     getenv("SERVER_ADDR", "0.0.0.0:8080"),
		StoreDriver:    driver,
		DatabaseURL:    dsn,
		MigrationsDir:  getenv("MIGRATIONS_DIR", "internal/migrations"),
		SQLitePath:     getenv("SQLITE_PATH", "lunch.db"),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		UsersCSVPath:   getenv("USERS_CSV_PATH", "data/users.csv"),
		RequestTimeout: parseDuration(getenv("REQUEST_TIMEOUT", "30s"), 30*time.Second),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		RandomSeed:     seed,

		DBMaxConns:        int32(maxConns),
		DBMaxConnLifetime: parseDuration(os.Getenv("DB_MAX_CONN_LIFETIME"), 0),
	}, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(val))
}
