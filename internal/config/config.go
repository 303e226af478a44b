package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	// sqlite | postgres | file
	StorageDriver string
	DBDSN         string
	DataDir       string

	// Redis-backed sessions when set; otherwise sessions live in the
	// primary store.
	RedisAddr     string
	RedisPassword string

	AuthHMACSecret string
	AdminUser      string
	AdminPassHash  string // bcrypt

	University string

	CookieSecure bool
	CORSOrigins  []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:      addr,
		PublicURL:     os.Getenv("PUBLIC_URL"),
		StorageDriver: envOr("STORAGE_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		DataDir:       envOr("DATA_DIR", "./data"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:      envOr("ADMIN_USER", "admin"),
		AdminPassHash:  envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		University: envOr("UNIVERSITY_NAME", "Oriental Universiteti"),

		CookieSecure: envBool("COOKIE_SECURE", false),
		CORSOrigins:  csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
