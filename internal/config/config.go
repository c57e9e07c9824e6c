package config // package config loads application configuration from environment variables

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required variables fail Load when unset; the
// rest fall back to the listed defaults.
type Config struct {
	Env             string `envconfig:"APP_ENV" default:"dev"`                     // application environment (dev/test/prod)
	Port            string `envconfig:"APP_PORT" default:"8080"`                   // HTTP port to listen on
	DBUser          string `envconfig:"DB_USER" required:"true"`                   // database username
	DBPass          string `envconfig:"DB_PASS"`                                   // database password (optional)
	DBHost          string `envconfig:"DB_HOST" default:"127.0.0.1"`               // database host address
	DBPort          string `envconfig:"DB_PORT" default:"3306"`                    // database port number
	DBName          string `envconfig:"DB_NAME" required:"true"`                   // database name
	SessionSecret   string `envconfig:"SESSION_SECRET" required:"true"`            // secret used to sign session tokens
	SessionTTLHours int    `envconfig:"SESSION_TTL_HOURS" default:"24"`            // lifetime of a login session
	BcryptCost      int    `envconfig:"BCRYPT_COST" default:"10"`                  // bcrypt cost for password hashing
	AdminUsername   string `envconfig:"ADMIN_USERNAME"`                            // bootstrap administrator (optional)
	AdminPassword   string `envconfig:"ADMIN_PASSWORD"`                            // password of the bootstrap administrator
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`                  // zerolog level name
	Timezone        string `envconfig:"APP_TIMEZONE" default:"Local"`             // zone deciding "today" on the slot grid
	ConsumerEnabled bool   `envconfig:"BOOKING_CONSUMER_ENABLED" default:"false"` // run the booking log consumer in-process
}

// Load reads configuration values from the environment.  A missing
// required variable or a malformed number is reported as an error so the
// caller can decide how to exit.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if c.SessionTTLHours <= 0 {
		c.SessionTTLHours = 24
	}
	return c, nil
}

// IsProd reports whether the service runs in production mode.
func (c Config) IsProd() bool { return c.Env == "prod" }
