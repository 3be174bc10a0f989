package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/secdesk-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	API *handler.Handler

	// Metrics serves the Prometheus exposition. Nil disables the endpoint.
	Metrics     http.Handler
	MetricsPath string

	Observer     RequestObserver
	Origins      []string
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewRouter builds the full handler chain.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	mux := http.NewServeMux()
	cfg.API.Register(mux)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, cfg.Metrics)
	}

	return Chain(capturePattern(mux),
		Recover(cfg.Logger),
		RequestID(),
		Audit(cfg.Logger, cfg.Observer),
		CORS(cfg.Origins),
		BodyLimit(cfg.MaxBodyBytes),
	)
}
