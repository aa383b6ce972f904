package db

import (
	"fmt"
	"net/url"
	"strings"
)

// TargetCredentials is the full set of connection parameters for one
// tenant database. Admin accounts carry exactly one of these; superadmin
// accounts carry none.
type TargetCredentials struct {
	Host     string `json:"host"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
	// SSLMode defaults to "disable": many of the legacy database servers
	// these dashboards point at do not speak modern TLS.
	SSLMode string `json:"sslmode,omitempty"`
}

// Complete reports whether every required connection parameter is set.
func (c TargetCredentials) Complete() bool {
	return c.Host != "" && c.Database != "" && c.User != "" && c.Password != ""
}

// MissingFields names the unset required parameters, for error messages.
func (c TargetCredentials) MissingFields() []string {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Database == "" {
		missing = append(missing, "database")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// Key returns the tenant key for these credentials. It is derived from
// the connection identity (host, database, user) rather than from any
// dashboard account id, so two accounts pointing at the same database
// share one pool and two accounts pointing at different databases never
// do. The password is deliberately excluded.
func (c TargetCredentials) Key() string {
	return strings.Join([]string{c.Host, c.Database, c.User}, "/")
}

// ConnString builds a PostgreSQL connection URL for these credentials.
func (c TargetCredentials) ConnString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host,
		Path:     "/" + c.Database,
		RawQuery: fmt.Sprintf("sslmode=%s", sslMode),
	}
	return u.String()
}
