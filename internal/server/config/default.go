package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr     = "127.0.0.1:5000"
	DefaultShutdown     = 15 * time.Second
	DefaultTokenTTL     = 7 * 24 * time.Hour
	DefaultTokenIssuer  = "secdesk"
	DefaultCookieName   = "token"
	DefaultBcryptCost   = 10
	DefaultResetTTL     = time.Hour
	DefaultResetURL     = "http://localhost:3000/reset-password"
	DefaultPrune        = 60 * time.Second
	DefaultShards       = 32
	DefaultDataDir      = "/var/lib/secdesk-server/data"
	DefaultEmailFrom    = "onboarding@resend.dev"
	DefaultAppURL       = "http://localhost:3000"
	DefaultQueueSize    = 256
	DefaultQueueWorkers = 2
	DefaultEmailRate    = 2
	DefaultMetricsPath  = "/metrics"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"

	// MinJWTSecretLength is the shortest accepted HS256 secret in bytes.
	MinJWTSecretLength = 32
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:     DefaultHTTPAddr,
				Origins:  []string{DefaultAppURL},
				Shutdown: DefaultShutdown,
			},
		},
		Auth: AuthSection{
			JWT: JWTConfig{
				TTL:    DefaultTokenTTL,
				Issuer: DefaultTokenIssuer,
			},
			Cookie: CookieConfig{Name: DefaultCookieName},
			Bcrypt: BcryptConfig{Cost: DefaultBcryptCost},
			Reset: ResetConfig{
				TTL: DefaultResetTTL,
				URL: DefaultResetURL,
			},
		},
		Admission: AdmissionSection{
			Prune:  DefaultPrune,
			Shards: DefaultShards,
		},
		Storage: StorageSection{
			Driver: DriverBadger,
			Badger: BadgerConfig{Dir: DefaultDataDir},
		},
		Email: EmailSection{
			From: DefaultEmailFrom,
			App:  DefaultAppURL,
			Queue: QueueConfig{
				Size:    DefaultQueueSize,
				Workers: DefaultQueueWorkers,
			},
			Rate: DefaultEmailRate,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
