package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yndnr/secdesk-go/internal/admission"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyAuth(&cfg.Auth); err != nil {
		return err
	}
	if _, err := cfg.PolicyTable(); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Log.Format)
	}
	return nil
}

// PolicyTable builds the admission policy table with the configured
// overrides applied.
func (cfg *ServerConfig) PolicyTable() (*admission.PolicyTable, error) {
	overrides := make(map[string]admission.Override)
	for group, actions := range cfg.Admission.Policies {
		for action, p := range actions {
			overrides[group+"."+action] = admission.Override{
				Limit:  p.Limit,
				Window: p.Window,
				Lock:   p.Lock,
			}
		}
	}
	table, err := admission.NewPolicyTable(overrides)
	if err != nil {
		return nil, fmt.Errorf("admission.policies: %w", err)
	}
	return table, nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if cfg.HTTP.Shutdown <= 0 {
		return errors.New("server.http.shutdown must be positive")
	}
	if (cfg.HTTP.TLS.Cert == "") != (cfg.HTTP.TLS.Key == "") {
		return errors.New("server.http.tls.cert and server.http.tls.key must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLS.Cert, cfg.HTTP.TLS.Key} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("tls file: %w", err)
		}
	}
	return nil
}

func verifyAuth(cfg *AuthSection) error {
	switch {
	case cfg.JWT.Secret == "":
		return errors.New("auth.jwt.secret is required")
	case len(cfg.JWT.Secret) < MinJWTSecretLength:
		return fmt.Errorf("auth.jwt.secret must be at least %d bytes", MinJWTSecretLength)
	case cfg.JWT.TTL <= 0:
		return errors.New("auth.jwt.ttl must be positive")
	case cfg.Cookie.Name == "":
		return errors.New("auth.cookie.name is required")
	case cfg.Reset.TTL <= 0:
		return errors.New("auth.reset.ttl must be positive")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Driver {
	case DriverBadger:
		if cfg.Badger.Memory {
			return nil
		}
		if cfg.Badger.Dir == "" {
			return errors.New("storage.badger.dir is required")
		}
		if err := os.MkdirAll(cfg.Badger.Dir, 0o750); err != nil {
			return fmt.Errorf("cannot create data directory: %w", err)
		}
	case DriverPostgres:
		if cfg.Postgres.DSN == "" {
			return errors.New("storage.postgres.dsn is required")
		}
	default:
		return fmt.Errorf("storage.driver must be %s or %s, got %q", DriverBadger, DriverPostgres, cfg.Driver)
	}
	return nil
}
