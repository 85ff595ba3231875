package types

import (
	"strings"
	"time"
)

// Mode constants for gateway operation
const (
	ModeLocal  = "local"  // No Redis/Postgres, memory repositories
	ModeRemote = "remote" // Full infrastructure
)

// AppConfig is the root configuration for chromedash
type AppConfig struct {
	Mode       string `key:"mode" json:"mode"` // "local" or "remote"
	DebugMode  bool   `key:"debugMode" json:"debug_mode"`
	PrettyLogs bool   `key:"prettyLogs" json:"pretty_logs"`

	Database      DatabaseConfig      `key:"database" json:"database"`
	Gateway       GatewayConfig       `key:"gateway" json:"gateway"`
	Catalog       CatalogConfig       `key:"catalog" json:"catalog"`
	Page          PageConfig          `key:"page" json:"page"`
	Notifications NotificationsConfig `key:"notifications" json:"notifications"`
}

// IsLocalMode returns true if running in local mode (no Redis/Postgres)
func (c *AppConfig) IsLocalMode() bool {
	return c.Mode == ModeLocal
}

// ----------------------------------------------------------------------------
// Database Configuration
// ----------------------------------------------------------------------------

type DatabaseConfig struct {
	Redis    RedisConfig    `key:"redis" json:"redis"`
	Postgres PostgresConfig `key:"postgres" json:"postgres"`
}

type RedisMode string

const (
	RedisModeSingle  RedisMode = "single"
	RedisModeCluster RedisMode = "cluster"
)

type RedisConfig struct {
	Mode               RedisMode     `key:"mode" json:"mode"`
	Addrs              []string      `key:"addrs" json:"addrs"`
	Username           string        `key:"username" json:"username"`
	Password           string        `key:"password" json:"password"`
	ClientName         string        `key:"clientName" json:"client_name"`
	EnableTLS          bool          `key:"enableTLS" json:"enable_tls"`
	InsecureSkipVerify bool          `key:"insecureSkipVerify" json:"insecure_skip_verify"`
	PoolSize           int           `key:"poolSize" json:"pool_size"`
	MinIdleConns       int           `key:"minIdleConns" json:"min_idle_conns"`
	MaxIdleConns       int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxIdleTime    time.Duration `key:"connMaxIdleTime" json:"conn_max_idle_time"`
	ConnMaxLifetime    time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`
	DialTimeout        time.Duration `key:"dialTimeout" json:"dial_timeout"`
	ReadTimeout        time.Duration `key:"readTimeout" json:"read_timeout"`
	WriteTimeout       time.Duration `key:"writeTimeout" json:"write_timeout"`
	MaxRedirects       int           `key:"maxRedirects" json:"max_redirects"`
	MaxRetries         int           `key:"maxRetries" json:"max_retries"`
	RouteByLatency     bool          `key:"routeByLatency" json:"route_by_latency"`
}

type PostgresConfig struct {
	Host            string        `key:"host" json:"host"`
	Port            int           `key:"port" json:"port"`
	User            string        `key:"user" json:"user"`
	Password        string        `key:"password" json:"password"`
	Database        string        `key:"database" json:"database"`
	SSLMode         string        `key:"sslMode" json:"ssl_mode"`
	MaxOpenConns    int           `key:"maxOpenConns" json:"max_open_conns"`
	MaxIdleConns    int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`
}

// ----------------------------------------------------------------------------
// Gateway Configuration
// ----------------------------------------------------------------------------

type GatewayConfig struct {
	HTTP            HTTPConfig    `key:"http" json:"http"`
	ShutdownTimeout time.Duration `key:"shutdownTimeout" json:"shutdown_timeout"`
	AuthToken       string        `key:"authToken" json:"auth_token"`
	SessionSecret   string        `key:"sessionSecret" json:"session_secret"`
	SessionTTL      time.Duration `key:"sessionTTL" json:"session_ttl"`
}

type HTTPConfig struct {
	Host             string     `key:"host" json:"host"`
	Port             int        `key:"port" json:"port"`
	EnablePrettyLogs bool       `key:"enablePrettyLogs" json:"enable_pretty_logs"`
	CORS             CORSConfig `key:"cors" json:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `key:"allowOrigins" json:"allow_origins"`
	AllowedMethods []string `key:"allowMethods" json:"allow_methods"`
	AllowedHeaders []string `key:"allowHeaders" json:"allow_headers"`
}

// ----------------------------------------------------------------------------
// Catalog Configuration
// ----------------------------------------------------------------------------

type S3Config struct {
	Bucket         string `key:"bucket" json:"bucket"`
	Region         string `key:"region" json:"region"`
	Endpoint       string `key:"endpoint" json:"endpoint"`
	AccessKey      string `key:"accessKey" json:"access_key"`
	SecretKey      string `key:"secretKey" json:"secret_key"`
	ForcePathStyle bool   `key:"forcePathStyle" json:"force_path_style"`
}

// CatalogConfig controls where the feature catalog is seeded from and how
// much of it the gateway keeps in memory.
type CatalogConfig struct {
	// SeedPath is a local JSON or YAML file of features. When S3.Bucket is set
	// it is instead the object key inside that bucket.
	SeedPath      string        `key:"seedPath" json:"seed_path"`
	S3            S3Config      `key:"s3" json:"s3"`
	CacheSize     int           `key:"cacheSize" json:"cache_size"`
	InvalidateLag time.Duration `key:"invalidateLag" json:"invalidate_lag"`
}

// SeedFromS3 reports whether the seed file lives in an S3 bucket.
func (c CatalogConfig) SeedFromS3() bool {
	return c.S3.Bucket != "" && c.SeedPath != ""
}

// SeedFormat returns "yaml" or "json" based on the seed file extension.
func (c CatalogConfig) SeedFormat() string {
	lower := strings.ToLower(c.SeedPath)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return "yaml"
	}
	return "json"
}

// ----------------------------------------------------------------------------
// Page Configuration
// ----------------------------------------------------------------------------

// PageConfig configures an interactive browsing session.
type PageConfig struct {
	SearchDebounce time.Duration `key:"searchDebounce" json:"search_debounce"`
	GatewayURL     string        `key:"gatewayURL" json:"gateway_url"`
}

// NotificationsConfig configures topic subscriptions.
type NotificationsConfig struct {
	Enabled          bool   `key:"enabled" json:"enabled"`
	AllFeaturesTopic string `key:"allFeaturesTopic" json:"all_features_topic"`
}
