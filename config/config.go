package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	AppMode       string
	DBHost        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPort        string
	SessionSecret string
	SessionTTLMin int
	SessionCookie string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	LogFile       string
	TemplateGlob  string
	StaticDir     string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		AppMode:       getEnv("APP_MODE", "debug"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "livepoll"),
		DBPort:        getEnv("DB_PORT", "5432"),
		SessionSecret: getEnv("SESSION_SECRET", "change-me"),
		SessionTTLMin: getEnvAsInt("SESSION_TTL_MIN", 720),
		SessionCookie: getEnv("SESSION_COOKIE", "livepoll_session"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		LogFile:       getEnv("LOG_FILE", ""),
		TemplateGlob:  getEnv("TEMPLATE_GLOB", "web/templates/*.html"),
		StaticDir:     getEnv("STATIC_DIR", "web/static"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
