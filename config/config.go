package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	StoreDriver string
	StorePath   string
	SQLitePath  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr       string
	RedisDB         int
	CacheTTLSeconds int

	SiteTitle string
	SiteURL   string
}

func mustEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("config: %s=%q is not a number, using %d", k, v, def)
	}
	return def
}

// Load reads the environment, after merging in envFiles (".env" when none are
// given). Missing env files are ignored; variables already set win.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			log.Printf("config: can't load %s: %v", f, err)
		}
	}

	port := mustEnv("APP_PORT", "8080")
	return Config{
		Port: port,

		StoreDriver: mustEnv("STORE_DRIVER", "file"),
		StorePath:   mustEnv("STORE_PATH", "blog_posts.json"),
		SQLitePath:  mustEnv("SQLITE_PATH", "blog.db"),

		DBHost:     mustEnv("DB_HOST", "postgres"),
		DBPort:     mustEnv("DB_PORT", "5432"),
		DBUser:     mustEnv("DB_USER", "blog"),
		DBPassword: mustEnv("DB_PASSWORD", "blogpass"),
		DBName:     mustEnv("DB_NAME", "blogdb"),
		DBSSLMode:  mustEnv("DB_SSLMODE", "disable"),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisDB:         mustEnvInt("REDIS_DB", 0),
		CacheTTLSeconds: mustEnvInt("CACHE_TTL_SECONDS", 300),

		SiteTitle: mustEnv("SITE_TITLE", "Blog"),
		SiteURL:   mustEnv("SITE_URL", "http://localhost:"+port),
	}
}

func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}
