package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Authority  AuthorityConfig
	Feed       FeedConfig
	Agents     AgentsConfig
	Ranking    RankingConfig
	Exports    ExportsConfig
	SessionAPI SessionAPIConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthorityConfig seeds the dual-authority migration flag and names the
// response header carrying the mode for rollout observability.
type AuthorityConfig struct {
	RemoteSessions     bool
	ModeHeader         string
	RemoteHealthURL    string
	HealthCheckTimeout time.Duration
}

// FeedConfig tunes the per-institution change-feed subscription.
type FeedConfig struct {
	ChannelPrefix string
	BufferSize    int
	CacheTTL      time.Duration
}

// AgentsConfig sizes the background worker pool that executes sessions.
type AgentsConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// RankingConfig governs the admission classifier defaults.
type RankingConfig struct {
	DefaultIntakeLimit int
}

// ExportsConfig configures ranking export storage and signed downloads.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

// SessionAPIConfig points the local engine at the remote session API used
// while the authority flag routes writes remotely.
type SessionAPIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Authority = AuthorityConfig{
		RemoteSessions:     v.GetBool("REMOTE_SESSION_AUTHORITY"),
		ModeHeader:         v.GetString("AUTHORITY_MODE_HEADER"),
		RemoteHealthURL:    v.GetString("REMOTE_HEALTH_URL"),
		HealthCheckTimeout: parseDuration(v.GetString("AUTHORITY_HEALTH_TIMEOUT"), 2*time.Second),
	}

	cfg.Feed = FeedConfig{
		ChannelPrefix: v.GetString("FEED_CHANNEL_PREFIX"),
		BufferSize:    v.GetInt("FEED_BUFFER_SIZE"),
		CacheTTL:      parseDuration(v.GetString("SESSION_LIST_CACHE_TTL"), 30*time.Second),
	}

	cfg.Agents = AgentsConfig{
		Workers:    v.GetInt("AGENT_WORKERS"),
		MaxRetries: v.GetInt("AGENT_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("AGENT_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Ranking = RankingConfig{
		DefaultIntakeLimit: v.GetInt("RANKING_DEFAULT_INTAKE_LIMIT"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	cfg.SessionAPI = SessionAPIConfig{
		BaseURL: v.GetString("SESSION_API_BASE_URL"),
		Token:   v.GetString("SESSION_API_TOKEN"),
		Timeout: parseDuration(v.GetString("SESSION_API_TIMEOUT"), 10*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "admissions_agents")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REMOTE_SESSION_AUTHORITY", false)
	v.SetDefault("AUTHORITY_MODE_HEADER", "X-Authority-Mode")
	v.SetDefault("REMOTE_HEALTH_URL", "")
	v.SetDefault("AUTHORITY_HEALTH_TIMEOUT", "2s")

	v.SetDefault("FEED_CHANNEL_PREFIX", "feed:agent_sessions")
	v.SetDefault("FEED_BUFFER_SIZE", 64)
	v.SetDefault("SESSION_LIST_CACHE_TTL", "30s")

	v.SetDefault("AGENT_WORKERS", 2)
	v.SetDefault("AGENT_MAX_RETRIES", 3)
	v.SetDefault("AGENT_RETRY_DELAY", "5s")

	v.SetDefault("RANKING_DEFAULT_INTAKE_LIMIT", 100)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")

	v.SetDefault("SESSION_API_BASE_URL", "http://localhost:8080/api/v1")
	v.SetDefault("SESSION_API_TOKEN", "")
	v.SetDefault("SESSION_API_TIMEOUT", "10s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
