package memora

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log      LogConfig      `toml:"log"`
	Web      WebConfig      `toml:"web"`
	Mongo    MongoConfig    `toml:"mongo"`
	Postgres PostgresConfig `toml:"postgres"`
	Spaces   struct {
		Key       string `toml:"key"`
		Secret    string `toml:"secret"`
		Region    string `toml:"region"`
		Bucket    string `toml:"bucket"`
		PhotoRoot string `toml:"photoroot"`
	} `toml:"spaces"`
	Session SessionConfig `toml:"session"`
	Claims  ClaimsConfig  `toml:"claims"`
	Tenants TenantsConfig `toml:"tenants"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type WebConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// PublicBaseURL is the externally visible URL public memory pages are
	// served under, e.g. "https://pages.memora.app".
	PublicBaseURL  string   `toml:"public_base_url"`
	AllowedOrigins []string `toml:"allowed_origins"`
	Debug          bool     `toml:"debug"`
}

type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

type PostgresConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type SessionConfig struct {
	Secret   string `toml:"secret"`
	TTLHours int    `toml:"ttl_hours"`
}

type ClaimsConfig struct {
	// SkipExpiryCheck disables the token time-window check. Development only.
	SkipExpiryCheck bool `toml:"skip_expiry_check"`
	// LinkValidityHours is measured from the claim request's creation time.
	LinkValidityHours int `toml:"link_validity_hours"`
}

// TenantOrigin maps one request origin to the tenant/channel it may act as.
type TenantOrigin struct {
	Origin    string `toml:"origin"`
	Tenant    string `toml:"tenant"`
	ChannelID string `toml:"channel_id"`
}

type TenantsConfig struct {
	DefaultTenant  string         `toml:"default_tenant"`
	DefaultChannel string         `toml:"default_channel"`
	Origins        []TenantOrigin `toml:"origins"`
}
