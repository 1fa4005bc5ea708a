package config // package config loads application configuration from environment variables

import (
	"os"
	"strconv"

	"github.com/labstack/gommon/log"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must/mustInt;
// the rest fall back to defaults.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	LogLevel       string // debug | info | warn | error | off
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	AutoMigrate    bool   // apply the embedded schema at startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	StudentIDPrefix string // leading letters of generated student numbers
	StudentIDWidth  int    // zero-padded width of the numeric suffix
	DefaultCohort   string // cohort assigned to newly created students

	EventsEnabled bool   // publish domain events and run the audit consumer
	RabbitMQURL   string // AMQP broker URL
	AuditLogDir   string // directory the event consumer appends to
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required variables are fatal.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		AutoMigrate:    envBool("AUTO_MIGRATE", false),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		StudentIDPrefix: envStr("STUDENT_ID_PREFIX", "STU"),
		StudentIDWidth:  envInt("STUDENT_ID_WIDTH", 4),
		DefaultCohort:   envStr("DEFAULT_COHORT", "FOUNDATION-A"),

		EventsEnabled: envBool("EVENTS_ENABLED", false),
		RabbitMQURL:   rabbitURL(),
		AuditLogDir:   envStr("AUDIT_LOG_DIR", "logs"),
	}
}

// rabbitURL honours RABBITMQ_URL, then AMQP_URL.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
