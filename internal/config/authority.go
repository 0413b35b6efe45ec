package config

import "os"

// AuthorityConfig holds the configuration of the reference authority
// service, which keeps the persistent record of sessions and rooms.
type AuthorityConfig struct {
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name
}

// LoadAuthority reads the authority configuration from the environment.
func LoadAuthority() AuthorityConfig {
	return AuthorityConfig{
		Port:   must("AUTHORITY_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),
	}
}
