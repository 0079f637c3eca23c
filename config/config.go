package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port        string
	StorageType string

	MongoURI string
	MongoDB  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret string
	JWTTTL    time.Duration

	UploadDir      string
	UploadMaxBytes int64

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string

	// AllowLegacyIDs keeps accepting base-10 integer post ids next to
	// 24-char hex ObjectIDs.
	AllowLegacyIDs bool
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "3003"),
		StorageType:        strings.ToLower(getEnv("STORAGE_TYPE", StorageMongo)),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getEnv("MONGO_DB", "blog"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", "blog"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		JWTSecret:          getEnv("JWT_SECRET", "default-secret"),
		JWTTTL:             getDuration("JWT_TTL", 30*24*time.Hour),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes:     getInt64("UPLOAD_MAX_BYTES", 15<<20),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		AllowLegacyIDs:     getBool("ALLOW_LEGACY_IDS", true),
	}
}

func (c *Config) Validate() error {
	switch c.StorageType {
	case StorageMongo, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage type %q", c.StorageType)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload limit must be positive, got %d", c.UploadMaxBytes)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("jwt ttl must be positive, got %s", c.JWTTTL)
	}
	return nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return v
}

func getInt64(key string, defaultVal int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return v
}

func getList(key string, defaultVal []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
