package config

import "time"

// Credentials is a saved session.
type Credentials struct {
	Server    string    `yaml:"server"`
	Email     string    `yaml:"email"`
	Token     string    `yaml:"token"`
	ExpiresAt time.Time `yaml:"expires_at,omitempty"`
}

// Valid reports whether c holds a token for server that has not expired
// at now. An empty server matches any.
func (c *Credentials) Valid(server string, now time.Time) bool {
	if c == nil || c.Token == "" {
		return false
	}
	if server != "" && c.Server != "" && c.Server != server {
		return false
	}
	return c.ExpiresAt.IsZero() || now.Before(c.ExpiresAt)
}
