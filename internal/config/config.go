package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the environment-driven service configuration.
// FIREBASE_* selects the Firestore backend; DATABASE_URL selects the
// Postgres backend; with neither set the service runs local-only
// against the SQLite fallback store.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	FirebaseCredentialsPath string `envconfig:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseCredentialsJSON string `envconfig:"FIREBASE_CREDENTIALS_JSON"`
	// GoogleCredentials is the standard application-default-credentials
	// path; setting it alone also selects the Firestore backend.
	GoogleCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	StorageBucket     string `envconfig:"STORAGE_BUCKET"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	DBMaxConns          int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns          int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	DBMaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	DBMaxConnIdleTime   time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"5m"`
	DBHealthCheckPeriod time.Duration `envconfig:"DB_HEALTHCHECK_PERIOD" default:"30s"`

	LocalDBPath string `envconfig:"LOCAL_DB_PATH" default:"tradetrack.db"`

	// ScreenshotInlineLimit is the inline screenshot size in bytes
	// above which the payload moves to blob storage.
	ScreenshotInlineLimit int `envconfig:"SCREENSHOT_INLINE_LIMIT" default:"307200"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HasFirebase reports whether the Firestore backend is configured,
// through explicit credentials or application default credentials.
func (c Config) HasFirebase() bool {
	return c.FirebaseCredentialsPath != "" || c.FirebaseCredentialsJSON != "" || c.GoogleCredentials != ""
}
