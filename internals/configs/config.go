package configs

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[CONFIG] no .env file found, using system ENV")
		} else {
			log.Println("[CONFIG] .env loaded")
		}
	} else {
		log.Println("[CONFIG] running on Railway, using system ENV")
	}

	for _, key := range []string{
		"DB_HOST", "DB_NAME",
		"ALI_OSS_ENDPOINT", "ALI_OSS_BUCKET",
	} {
		if GetEnv(key) == "" {
			log.Printf("[CONFIG] warn: %s is not set", key)
		}
	}
}

func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvOr(key, def string) string {
	if v := GetEnv(key); v != "" {
		return v
	}
	return def
}
