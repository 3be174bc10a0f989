package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yndnr/secdesk-go/internal/admission"
	"github.com/yndnr/secdesk-go/internal/core/service"
	"github.com/yndnr/secdesk-go/internal/infra/buildinfo"
	"github.com/yndnr/secdesk-go/internal/infra/confloader"
	"github.com/yndnr/secdesk-go/internal/infra/shutdown"
	"github.com/yndnr/secdesk-go/internal/infra/tlsconf"
	"github.com/yndnr/secdesk-go/internal/notify"
	"github.com/yndnr/secdesk-go/internal/ratelimit"
	"github.com/yndnr/secdesk-go/internal/server/config"
	"github.com/yndnr/secdesk-go/internal/server/httpserver"
	"github.com/yndnr/secdesk-go/internal/server/httpserver/handler"
	"github.com/yndnr/secdesk-go/internal/storage"
	"github.com/yndnr/secdesk-go/internal/storage/kvrepo"
	"github.com/yndnr/secdesk-go/internal/storage/pgrepo"
	"github.com/yndnr/secdesk-go/internal/telemetry/logger"
	"github.com/yndnr/secdesk-go/internal/telemetry/metric"
)

const dotEnvFile = ".env"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("secdesk-server", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogger := logger.Slog(log)

	info := buildinfo.Get()
	log.Info("starting secdesk-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
		"storage", cfg.Storage.Driver)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := metric.NewRegistry()

	store, err := initStorage(ctx, cfg, registry, slogger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Hooks are registered as components start and run in reverse order,
	// either on shutdown or when a later startup step fails.
	sh := shutdown.NewHandler(cfg.Server.HTTP.Shutdown, slogger)
	sh.OnShutdown("storage", func(context.Context) error {
		return store.Close()
	})
	abort := func(err error) error {
		if serr := sh.Shutdown("startup failed"); serr != nil {
			log.Warn("startup cleanup incomplete", "error", serr)
		}
		return err
	}

	mailer, err := notify.New(notify.Config{
		APIKey:        cfg.Email.Resend.Key,
		From:          cfg.Email.From,
		Endpoint:      cfg.Email.Resend.Endpoint,
		AppURL:        cfg.Email.App,
		QueueSize:     cfg.Email.Queue.Size,
		Workers:       cfg.Email.Queue.Workers,
		RatePerSecond: cfg.Email.Rate,
	}, notify.WithLogger(slogger.With("component", "mailer")))
	if err != nil {
		return abort(fmt.Errorf("init mailer: %w", err))
	}
	sh.OnShutdown("mailer", mailer.Close)

	services, err := initServices(cfg, store, mailer)
	if err != nil {
		return abort(fmt.Errorf("init services: %w", err))
	}

	limiter := ratelimit.New(
		ratelimit.WithShards(cfg.Admission.Shards),
		ratelimit.WithPruneInterval(cfg.Admission.Prune),
		ratelimit.WithLogger(slogger.With("component", "ratelimit")),
	)
	limiterCtx, stopLimiter := context.WithCancel(ctx)
	limiterDone := make(chan struct{})
	go func() {
		defer close(limiterDone)
		limiter.Run(limiterCtx)
	}()
	sh.OnShutdown("ratelimit", func(ctx context.Context) error {
		stopLimiter()
		select {
		case <-limiterDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err := registry.Prometheus().Register(metric.NewCollector(limiter)); err != nil {
		log.Warn("rate limiter metrics unavailable", "error", err)
	}

	policies, err := cfg.PolicyTable()
	if err != nil {
		return abort(err)
	}
	gate := admission.NewGate(services.Token, limiter, policies,
		admission.WithRecorder(registry),
		admission.WithCookieName(cfg.Auth.Cookie.Name),
		admission.WithTrustedProxyHeaders(cfg.Server.HTTP.Proxied),
		admission.WithLogger(slogger.With("component", "admission")),
	)

	api := handler.New(handler.Config{
		Auth:   services.Auth,
		Issues: services.Issues,
		Posts:  services.Posts,
		Users:  services.Users,
		Gate:   gate,
		Cookie: handler.CookieConfig{
			Name:   cfg.Auth.Cookie.Name,
			Secure: cfg.Auth.Cookie.Secure,
			MaxAge: cfg.Auth.JWT.TTL,
		},
		Ready:  store.Ping,
		Logger: slogger,
	})

	routerCfg := httpserver.RouterConfig{
		API:          api,
		Observer:     registry,
		Origins:      cfg.Server.HTTP.Origins,
		MaxBodyBytes: httpserver.DefaultMaxBodyBytes,
		Logger:       slogger,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = registry.Handler()
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	var tlsConfig *tls.Config
	if cfg.Server.HTTP.TLS.Enabled() {
		reloader, err := tlsconf.NewReloader(cfg.Server.HTTP.TLS.Cert, cfg.Server.HTTP.TLS.Key,
			tlsconf.WithLogger(slogger.With("component", "tls")))
		if err != nil {
			return abort(fmt.Errorf("init tls: %w", err))
		}
		tlsConfig = reloader.ServerConfig()
		go func() {
			if err := reloader.Watch(ctx); err != nil {
				log.Warn("certificate watcher stopped", "error", err)
			}
		}()
	}

	srv := httpserver.New(httpserver.Config{
		Addr:    cfg.Server.HTTP.Addr,
		Handler: httpserver.NewRouter(routerCfg),
		TLS:     tlsConfig,
		Logger:  slogger,
	})
	if err := srv.Start(); err != nil {
		return abort(fmt.Errorf("start http server: %w", err))
	}
	sh.OnShutdown("http", srv.Shutdown)
	log.Info("HTTP server listening", "addr", srv.Addr(), "tls", tlsConfig != nil)

	if watcher := watchConfig(*configFile, gate, slogger); watcher != nil {
		defer watcher.Stop()
	}

	go func() {
		if err, ok := <-srv.Err(); ok && err != nil {
			log.Error("HTTP server failed", "error", err)
			sh.Trigger("http server failed")
		}
	}()

	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown completed with errors", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers defaults, .env, the YAML file and the environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithDotEnv(dotEnvFile)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  os.Stdout,
		Service: "secdesk-server",
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// repository is what a storage driver hands to the services.
type repository interface {
	service.UserRepository
	service.IssueRepository
	service.PostRepository
	Ping(ctx context.Context) error
	Close() error
}

// kvStore closes the Badger engine behind a kvrepo.Repository.
type kvStore struct {
	*kvrepo.Repository
	engine *storage.BadgerEngine
}

func (s kvStore) Ping(ctx context.Context) error { return s.engine.Ping(ctx) }
func (s kvStore) Close() error                   { return s.engine.Close() }

func initStorage(ctx context.Context, cfg *config.ServerConfig, registry *metric.Registry, log *slog.Logger) (repository, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		repo, err := pgrepo.Open(ctx, cfg.Storage.Postgres.DSN, log.With("component", "postgres"))
		if err != nil {
			return nil, err
		}
		return repo, nil

	default:
		badgerCfg := storage.DefaultBadgerConfig(cfg.Storage.Badger.Dir)
		if cfg.Storage.Badger.Memory {
			badgerCfg = storage.InMemoryBadgerConfig()
		}
		badgerCfg.SyncWrites = cfg.Storage.Badger.Sync

		engine, err := storage.NewBadgerEngine(badgerCfg, log.With("component", "badger"))
		if err != nil {
			return nil, err
		}
		if err := engine.RegisterMetrics(registry.Prometheus()); err != nil {
			_ = engine.Close()
			return nil, err
		}
		if stats, err := engine.Stats(ctx); err == nil {
			log.Info("badger storage opened", "size_bytes", stats.TotalSize())
		}
		return kvStore{Repository: kvrepo.New(engine), engine: engine}, nil
	}
}

// Services holds the domain services.
type Services struct {
	Token  *service.TokenService
	Auth   *service.AuthService
	Issues *service.IssueService
	Posts  *service.PostService
	Users  *service.UserService
}

func initServices(cfg *config.ServerConfig, store repository, notifier service.Notifier) (*Services, error) {
	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret: cfg.Auth.JWT.Secret,
		TTL:    cfg.Auth.JWT.TTL,
		Issuer: cfg.Auth.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}

	auth := service.NewAuthService(store, tokens, service.NewCredentialService(cfg.Auth.Bcrypt.Cost), notifier,
		&service.AuthServiceConfig{
			ResetTokenTTL: cfg.Auth.Reset.TTL,
			ResetURL:      cfg.Auth.Reset.URL,
		})

	return &Services{
		Token:  tokens,
		Auth:   auth,
		Issues: service.NewIssueService(store, store, notifier, nil),
		Posts:  service.NewPostService(store, store, nil),
		Users:  service.NewUserService(store, notifier, nil),
	}, nil
}

// watchConfig reapplies admission policies and the log level when the
// config file changes. Other settings need a restart.
func watchConfig(path string, gate *admission.Gate, log *slog.Logger) *confloader.Watcher {
	if path == "" {
		return nil
	}
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.With("component", "config")))
	if err != nil {
		log.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := watcher.Watch(path); err != nil {
		log.Warn("config watcher unavailable", "error", err)
		_ = watcher.Stop()
		return nil
	}

	watcher.OnChange(func(string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Error("config reload rejected", "error", err)
			return
		}
		policies, err := cfg.PolicyTable()
		if err != nil {
			log.Error("config reload rejected", "error", err)
			return
		}
		gate.SetPolicies(policies)
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("log level not changed", "error", err)
		}
		log.Info("configuration reloaded",
			"log_level", logger.GetLevel(),
			"policies", policies.Names())
	})
	watcher.StartAsync()
	return watcher
}
