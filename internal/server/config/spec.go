package config

import "time"

// ServerConfig is the root configuration for secdesk-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Auth      AuthSection      `koanf:"auth"`
	Admission AdmissionSection `koanf:"admission"`
	Storage   StorageSection   `koanf:"storage"`
	Email     EmailSection     `koanf:"email"`
	Metrics   MetricsSection   `koanf:"metrics"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string    `koanf:"addr"`
	TLS  TLSConfig `koanf:"tls"`

	// Origins lists the CORS origins allowed to send credentials.
	Origins []string `koanf:"origins"`

	// Proxied trusts X-Forwarded-For and X-Real-IP for the client address.
	// Enable only behind a proxy that overwrites them.
	Proxied bool `koanf:"proxied"`

	// Shutdown bounds graceful shutdown.
	Shutdown time.Duration `koanf:"shutdown"`
}

// TLSConfig enables HTTPS when both files are set.
type TLSConfig struct {
	Cert string `koanf:"cert"`
	Key  string `koanf:"key"`
}

// Enabled reports whether TLS is configured.
func (c TLSConfig) Enabled() bool { return c.Cert != "" && c.Key != "" }

// AuthSection configures identity tokens, cookies and passwords.
type AuthSection struct {
	JWT    JWTConfig    `koanf:"jwt"`
	Cookie CookieConfig `koanf:"cookie"`
	Bcrypt BcryptConfig `koanf:"bcrypt"`
	Reset  ResetConfig  `koanf:"reset"`
}

// JWTConfig configures the token service.
type JWTConfig struct {
	Secret string        `koanf:"secret"`
	TTL    time.Duration `koanf:"ttl"`
	Issuer string        `koanf:"issuer"`
}

// CookieConfig configures the session cookie.
type CookieConfig struct {
	Name   string `koanf:"name"`
	Secure bool   `koanf:"secure"`
}

// BcryptConfig configures password hashing.
type BcryptConfig struct {
	Cost int `koanf:"cost"`
}

// ResetConfig configures password reset links.
type ResetConfig struct {
	TTL time.Duration `koanf:"ttl"`
	URL string        `koanf:"url"`
}

// AdmissionSection configures request admission.
type AdmissionSection struct {
	// Prune is the interval between expired-entry sweeps.
	Prune  time.Duration `koanf:"prune"`
	Shards int           `koanf:"shards"`

	// Policies overrides built-in policies, keyed by the two halves of the
	// policy name: policies.issue.create.limit adjusts "issue.create".
	Policies map[string]map[string]PolicyConfig `koanf:"policies"`
}

// PolicyConfig overrides one admission policy. Nil fields keep the
// built-in value.
type PolicyConfig struct {
	Limit  *int           `koanf:"limit"`
	Window *time.Duration `koanf:"window"`
	Lock   *time.Duration `koanf:"lock"`
}

// Storage drivers.
const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

// StorageSection configures persistence.
type StorageSection struct {
	Driver   string         `koanf:"driver"`
	Badger   BadgerConfig   `koanf:"badger"`
	Postgres PostgresConfig `koanf:"postgres"`
}

// BadgerConfig configures the embedded store.
type BadgerConfig struct {
	Dir    string `koanf:"dir"`
	Memory bool   `koanf:"memory"`
	Sync   bool   `koanf:"sync"`
}

// PostgresConfig configures the SQL store.
type PostgresConfig struct {
	DSN string `koanf:"dsn"`
}

// EmailSection configures outbound notifications.
type EmailSection struct {
	From   string       `koanf:"from"`
	App    string       `koanf:"app"`
	Resend ResendConfig `koanf:"resend"`
	Queue  QueueConfig  `koanf:"queue"`

	// Rate is the maximum number of sends per second.
	Rate float64 `koanf:"rate"`
}

// ResendConfig configures the Resend API client. An empty key disables
// email delivery.
type ResendConfig struct {
	Key      string `koanf:"key"`
	Endpoint string `koanf:"endpoint"`
}

// QueueConfig sizes the delivery queue.
type QueueConfig struct {
	Size    int `koanf:"size"`
	Workers int `koanf:"workers"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
