package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port        string
	DataDir     string
	DatabaseURL string // empty disables the Postgres store
	SourcesFile string // optional YAML registry override

	MaxPerSource int
	SampleCount  int
	UserAgent    string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Port:        getEnv("PORT", "5002"),
		DataDir:     getEnv("DATA_DIR", "./data"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SourcesFile: getEnv("SOURCES_FILE", ""),

		MaxPerSource: getEnvInt("MAX_PER_SOURCE", 15),
		SampleCount:  getEnvInt("SAMPLE_COUNT", 35),
		UserAgent:    getEnv("USER_AGENT", ""),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
