package db

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Supported relational drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config describes the relational backend. Either DSN is set, or it is built
// from the remaining fields for the chosen driver.
type Config struct {
	Driver   string
	DSN      string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	SlowThreshold time.Duration
}

// Validate checks that the config names a usable backend.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.DSN == "" && c.Path == "" {
			return fmt.Errorf("sqlite database requires a path or dsn")
		}
	case DriverPostgres:
		if c.DSN != "" {
			return nil
		}
		var missing []string
		if c.Host == "" {
			missing = append(missing, "host")
		}
		if c.User == "" {
			missing = append(missing, "user")
		}
		if c.Name == "" {
			missing = append(missing, "name")
		}
		if len(missing) > 0 {
			return fmt.Errorf("postgres database config missing: %s", strings.Join(missing, ", "))
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	return nil
}

// dataSourceName returns the DSN handed to the driver.
func (c Config) dataSourceName() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == DriverSQLite {
		return sqliteDSN(c.Path)
	}
	return c.postgresURL()
}

// postgresURL creates the database URL from the connection fields
func (c Config) postgresURL() string {
	port := c.Port
	if port == "" {
		port = "5432"
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// sqliteDSN enables foreign keys on every connection and waits on locks.
func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
