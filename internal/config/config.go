package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AuthBackendPostgres = "postgres"
	AuthBackendFirebase = "firebase"

	ProfileStoreMemory    = "memory"
	ProfileStoreFirestore = "firestore"
	ProfileStoreRedis     = "redis"
	ProfileStoreSQLite    = "sqlite"
	ProfileStorePostgres  = "postgres"
	ProfileStoreMongo     = "mongo"
)

type Config struct {
	AppPort   string `yaml:"app_port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// AuthBackend selects who verifies email/password sign-ins.
	AuthBackend string `yaml:"auth_backend"`
	// ProfileStore selects where users/{uid} documents live.
	ProfileStore string `yaml:"profile_store"`

	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleRedirectURL  string `yaml:"google_redirect_url"`

	// Optional second OpenID Connect provider (Keycloak, Auth0, ...).
	OIDCName         string `yaml:"oidc_name"`
	OIDCIssuer       string `yaml:"oidc_issuer"`
	OIDCClientID     string `yaml:"oidc_client_id"`
	OIDCClientSecret string `yaml:"oidc_client_secret"`
	OIDCRedirectURL  string `yaml:"oidc_redirect_url"`
	OIDCAuthURL      string `yaml:"oidc_auth_url"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	DatabaseDSN string `yaml:"database_dsn"`

	SQLitePath string `yaml:"sqlite_path"`
	MongoURI   string `yaml:"mongo_uri"`
	MongoDB    string `yaml:"mongo_db"`

	FirebaseProjectID       string `yaml:"firebase_project_id"`
	FirebaseAPIKey          string `yaml:"firebase_api_key"`
	FirebaseCredentialsFile string `yaml:"firebase_credentials_file"`

	JWTSecret string        `yaml:"jwt_secret"`
	JWTIssuer string        `yaml:"jwt_issuer"`
	JWTExpiry time.Duration `yaml:"jwt_expiry"`

	SessionTTL   time.Duration `yaml:"session_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

func defaults() Config {
	return Config{
		AppPort:      "8080",
		LogLevel:     "info",
		LogFormat:    "json",
		AuthBackend:  AuthBackendPostgres,
		ProfileStore: ProfileStoreMemory,
		RedisAddr:    "localhost:6379",
		SQLitePath:   "./data/profiles.db",
		MongoDB:      "think-piece",
		JWTIssuer:    "think-piece",
		JWTExpiry:    12 * time.Hour,
		SessionTTL:   24 * time.Hour,
		SecureCookie: true,
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the
// environment. Later sources win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.mergeEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	setString(&c.AppPort, "APP_PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	setString(&c.AuthBackend, "AUTH_BACKEND")
	setString(&c.ProfileStore, "PROFILE_STORE")

	setString(&c.GoogleClientID, "GOOGLE_CLIENT_ID")
	setString(&c.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.GoogleRedirectURL, "GOOGLE_REDIRECT_URL")

	setString(&c.OIDCName, "OIDC_NAME")
	setString(&c.OIDCIssuer, "OIDC_ISSUER")
	setString(&c.OIDCClientID, "OIDC_CLIENT_ID")
	setString(&c.OIDCClientSecret, "OIDC_CLIENT_SECRET")
	setString(&c.OIDCRedirectURL, "OIDC_REDIRECT_URL")
	setString(&c.OIDCAuthURL, "OIDC_AUTH_URL")

	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")

	setString(&c.DatabaseDSN, "DATABASE_DSN")
	setString(&c.SQLitePath, "SQLITE_PATH")
	setString(&c.MongoURI, "MONGO_URI")
	setString(&c.MongoDB, "MONGO_DB")

	setString(&c.FirebaseProjectID, "FIREBASE_PROJECT_ID")
	setString(&c.FirebaseAPIKey, "FIREBASE_API_KEY")
	setString(&c.FirebaseCredentialsFile, "FIREBASE_CREDENTIALS_FILE")

	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.JWTIssuer, "JWT_ISSUER")
	setDuration(&c.JWTExpiry, "JWT_EXPIRY")

	setDuration(&c.SessionTTL, "SESSION_TTL")
	setBool(&c.SecureCookie, "SECURE_COOKIE")
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}

	switch c.AuthBackend {
	case AuthBackendPostgres:
		if c.DatabaseDSN == "" {
			return errors.New("config: DATABASE_DSN is required for the postgres auth backend")
		}
	case AuthBackendFirebase:
		if c.FirebaseAPIKey == "" || c.FirebaseProjectID == "" {
			return errors.New("config: FIREBASE_API_KEY and FIREBASE_PROJECT_ID are required for the firebase auth backend")
		}
	default:
		return fmt.Errorf("config: unknown AUTH_BACKEND %q", c.AuthBackend)
	}

	switch c.ProfileStore {
	case ProfileStoreMemory, ProfileStoreRedis:
	case ProfileStoreFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("config: FIREBASE_PROJECT_ID is required for the firestore profile store")
		}
	case ProfileStoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: SQLITE_PATH is required for the sqlite profile store")
		}
	case ProfileStorePostgres:
		if c.DatabaseDSN == "" {
			return errors.New("config: DATABASE_DSN is required for the postgres profile store")
		}
	case ProfileStoreMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI is required for the mongo profile store")
		}
	default:
		return fmt.Errorf("config: unknown PROFILE_STORE %q", c.ProfileStore)
	}

	if c.OIDCName == "google" {
		return errors.New("config: OIDC_NAME must not shadow the google provider")
	}

	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	return nil
}

// GoogleEnabled reports whether the interactive Google sign-in is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// OIDCEnabled reports whether the generic OpenID Connect provider is configured.
func (c Config) OIDCEnabled() bool {
	return c.OIDCName != "" && c.OIDCIssuer != "" && c.OIDCClientID != "" && c.OIDCRedirectURL != ""
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
