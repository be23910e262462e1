package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv string `mapstructure:"APP_ENV"`
	Port   string `mapstructure:"PORT"`

	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	DatabaseSSLRequired bool   `mapstructure:"DATABASE_SSL_REQUIRED"`
	DatabaseMaxPoolSize int    `mapstructure:"DATABASE_MAX_POOL_SIZE"`

	LogLevel     string `mapstructure:"LOG_LEVEL"`
	DebugEnabled bool   `mapstructure:"DEBUG_ENABLED"`

	RedisURL      string `mapstructure:"REDIS_URL"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	GeoProvider      string        `mapstructure:"GEO_PROVIDER"`
	IPAPIBaseURL     string        `mapstructure:"IPAPI_BASE_URL"`
	NominatimBaseURL string        `mapstructure:"NOMINATIM_BASE_URL"`
	GeoUserAgent     string        `mapstructure:"GEO_USER_AGENT"`
	GeoHTTPTimeout   time.Duration `mapstructure:"GEO_HTTP_TIMEOUT"`

	MaxMindAccountID  string `mapstructure:"MAXMIND_ACCOUNT_ID"`
	MaxMindLicenseKey string `mapstructure:"MAXMIND_LICENSE_KEY"`
	MaxMindEditionIDs string `mapstructure:"MAXMIND_EDITION_IDS"`
	MaxMindDBPath     string `mapstructure:"GEOIP_DB_PATH"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	SessionSweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`

	TrustedProxies  []string `mapstructure:"TRUSTED_PROXIES"`
	TrustedPlatform string   `mapstructure:"TRUSTED_PLATFORM"`
}

// IsProduction reports whether the service runs with production defaults
// (JSON logs, secure cookies, gin release mode).
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func LoadConfig() (config Config, err error) {
	// .env files are optional; real environment variables always win.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "sqlite://iplocator.db")
	v.SetDefault("DATABASE_SSL_REQUIRED", false)
	v.SetDefault("DATABASE_MAX_POOL_SIZE", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEBUG_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SESSION_SECRET", "change-me-in-production-0123456789abcdef")
	v.SetDefault("GEO_PROVIDER", "ipapi")
	v.SetDefault("IPAPI_BASE_URL", "http://ip-api.com")
	v.SetDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEO_USER_AGENT", "IP-Locator-App/1.0")
	v.SetDefault("GEO_HTTP_TIMEOUT", "5s")
	v.SetDefault("GEOIP_DB_PATH", "./geoip/GeoLite2-City.mmdb")
	v.SetDefault("MAXMIND_ACCOUNT_ID", "")
	v.SetDefault("MAXMIND_LICENSE_KEY", "")
	v.SetDefault("MAXMIND_EDITION_IDS", "GeoLite2-City")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1h")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("TRUSTED_PLATFORM", "")

	v.AutomaticEnv()

	err = v.Unmarshal(&config)
	if err != nil {
		log.Printf("unable to decode into struct, %v", err)
		return
	}

	return
}
