package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Grid fields default to the classic scale of
// 48 pixels per 15-minute unit.
type Config struct {
	Env                  string // application environment (e.g. "dev", "prod")
	Port                 string // HTTP port to listen on
	ReadOnly             bool   // disables every mutating endpoint when true
	JWTSecret            string // secret used to sign JWTs
	AccessTTLMin         int    // access token time‑to‑live in minutes
	OperatorEmail        string // login of the scheduling operator
	OperatorPasswordHash string // bcrypt hash of the operator password
	AuthorityURL         string // base URL of the remote session authority
	EventID              uint64 // id of the event being scheduled
	EventStart           string // event start, "YYYY-MM-DD HH:mm:ss"
	EventEnd             string // event end, "YYYY-MM-DD HH:mm:ss"
	GridUnitMinutes      int    // minutes covered by one grid unit
	GridUnitPx           int    // pixel height of one grid unit
	DefaultDurationMin   int    // minutes assigned to sessions without a duration
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:                  must("APP_ENV"),
		Port:                 must("APP_PORT"),
		ReadOnly:             envBool("SCHEDULER_READONLY", false),
		JWTSecret:            must("JWT_SECRET"),
		AccessTTLMin:         envInt("ACCESS_TOKEN_TTL_MIN", 60),
		OperatorEmail:        must("OPERATOR_EMAIL"),
		OperatorPasswordHash: must("OPERATOR_PASSWORD_HASH"),
		AuthorityURL:         must("AUTHORITY_URL"),
		EventID:              mustUint("EVENT_ID"),
		EventStart:           must("EVENT_START_TIME"),
		EventEnd:             must("EVENT_END_TIME"),
		GridUnitMinutes:      envInt("GRID_UNIT_MINUTES", 15),
		GridUnitPx:           envInt("GRID_UNIT_PX", 48),
		DefaultDurationMin:   envInt("DEFAULT_SESSION_DURATION_MIN", 30),
	}
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

// mustUint is like must() but converts the retrieved string into a uint64.
// If conversion fails, the application logs a fatal error and exits.
func mustUint(key string) uint64 {
	s := must(key)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		log.Fatalf("invalid uint for %s: %q", key, s)
	}
	return n
}

// envInt reads an optional integer variable, falling back to def when the
// variable is unset or malformed.
func envInt(key string, def int) int {
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

// envBool reads an optional boolean variable.
func envBool(key string, def bool) bool {
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
