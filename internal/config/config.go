package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	GatewayURL string
	StorageDSN string
	LogLevel   string

	VisitorSecret []byte
	VisitorTTL    time.Duration
	CookieSecure  bool

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	KafkaBrokers []string

	LoginRatePerMinute int
	LoginBurst         int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	return &Config{
		ListenAddr: getenv("STOREFRONT_ADDR", ":8080"),
		GatewayURL: must(os.Getenv("GATEWAY_URL"), "GATEWAY_URL"),
		StorageDSN: getenv("STORAGE_DSN", "storefront.db"),
		LogLevel:   getenv("LOG_LEVEL", "info"),

		VisitorSecret: []byte(must(os.Getenv("VISITOR_SECRET"), "VISITOR_SECRET")),
		VisitorTTL:    time.Duration(EnvIntDefault("VISITOR_TTL_DAYS", 365)) * 24 * time.Hour,
		CookieSecure:  EnvBoolDefault("COOKIE_SECURE", false),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    getenv("ES_INDEX", "products"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		LoginRatePerMinute: EnvIntDefault("LOGIN_RATE_PER_MINUTE", 10),
		LoginBurst:         EnvIntDefault("LOGIN_BURST", 5),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(v string, name string) string {
	if v == "" {
		log.Fatalf("missing required env %s", name)
	}
	return v
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
