package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Readiness ReadinessConfig
	Access    AccessConfig
	Zones     ZonesConfig
	Geocoder  GeocoderConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`
}

// ReadinessConfig holds the per-stage budgets of the readiness pipeline.
//
// The coordinate budget is the longest because cold GPS fixes are slow;
// the address budget is the shortest because the address is enrichment,
// not a correctness requirement.
type ReadinessConfig struct {
	BasicChecksTimeout time.Duration `mapstructure:"READINESS_BASIC_CHECKS_TIMEOUT"`
	CoordinateTimeout  time.Duration `mapstructure:"READINESS_COORDINATE_TIMEOUT"`
	AddressTimeout     time.Duration `mapstructure:"READINESS_ADDRESS_TIMEOUT"`
	ZoneTimeout        time.Duration `mapstructure:"READINESS_ZONE_TIMEOUT"`
}

// AccessConfig holds the access-level classification policy knobs.
type AccessConfig struct {
	// ViewingRadiusKm: a point within this distance of the closest active
	// zone is classified viewing_only instead of no_access.
	ViewingRadiusKm float64 `mapstructure:"ACCESS_VIEWING_RADIUS_KM"`
}

// ZonesConfig holds zone-data settings.
type ZonesConfig struct {
	// CacheTTL bounds how stale the Redis active-zone snapshot may get.
	CacheTTL time.Duration `mapstructure:"ZONES_CACHE_TTL"`
}

// GeocoderConfig holds reverse-geocoding client settings.
type GeocoderConfig struct {
	BaseURL   string        `mapstructure:"GEOCODER_BASE_URL"`
	UserAgent string        `mapstructure:"GEOCODER_USER_AGENT"`
	Timeout   time.Duration `mapstructure:"GEOCODER_TIMEOUT"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "5s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "freshkart")
	viper.SetDefault("POSTGRES_PASSWORD", "freshkart_secret")
	viper.SetDefault("POSTGRES_DB", "freshkart_db")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_CONNS", 50)
	viper.SetDefault("POSTGRES_MIN_CONNS", 10)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 100)

	// Stage budgets: permission queries fail fast, GPS fixes get the most
	// room, address lookup is strictly opportunistic, zone validation may
	// include a backend round trip.
	viper.SetDefault("READINESS_BASIC_CHECKS_TIMEOUT", "2s")
	viper.SetDefault("READINESS_COORDINATE_TIMEOUT", "7s")
	viper.SetDefault("READINESS_ADDRESS_TIMEOUT", "2s")
	viper.SetDefault("READINESS_ZONE_TIMEOUT", "3s")

	viper.SetDefault("ACCESS_VIEWING_RADIUS_KM", 10.0)

	viper.SetDefault("ZONES_CACHE_TTL", "5m")

	viper.SetDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("GEOCODER_USER_AGENT", "freshkart-geofence/1.0")
	viper.SetDefault("GEOCODER_TIMEOUT", "2s")

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         viper.GetString("SERVER_HOST"),
		Port:         viper.GetInt("SERVER_PORT"),
		ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     viper.GetString("POSTGRES_HOST"),
		Port:     viper.GetInt("POSTGRES_PORT"),
		User:     viper.GetString("POSTGRES_USER"),
		Password: viper.GetString("POSTGRES_PASSWORD"),
		DBName:   viper.GetString("POSTGRES_DB"),
		SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: viper.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     viper.GetString("REDIS_HOST"),
		Port:     viper.GetInt("REDIS_PORT"),
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
		PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
	}

	// ── Readiness ───────────────────────────────────────
	cfg.Readiness = ReadinessConfig{
		BasicChecksTimeout: viper.GetDuration("READINESS_BASIC_CHECKS_TIMEOUT"),
		CoordinateTimeout:  viper.GetDuration("READINESS_COORDINATE_TIMEOUT"),
		AddressTimeout:     viper.GetDuration("READINESS_ADDRESS_TIMEOUT"),
		ZoneTimeout:        viper.GetDuration("READINESS_ZONE_TIMEOUT"),
	}

	// ── Access policy ───────────────────────────────────
	cfg.Access = AccessConfig{
		ViewingRadiusKm: viper.GetFloat64("ACCESS_VIEWING_RADIUS_KM"),
	}

	// ── Zones ───────────────────────────────────────────
	cfg.Zones = ZonesConfig{
		CacheTTL: viper.GetDuration("ZONES_CACHE_TTL"),
	}

	// ── Geocoder ────────────────────────────────────────
	cfg.Geocoder = GeocoderConfig{
		BaseURL:   viper.GetString("GEOCODER_BASE_URL"),
		UserAgent: viper.GetString("GEOCODER_USER_AGENT"),
		Timeout:   viper.GetDuration("GEOCODER_TIMEOUT"),
	}

	return cfg, nil
}
