package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// Config holds mailer configuration.
type Config struct {
	// APIKey authenticates against the provider. Empty disables delivery.
	APIKey string

	// From is the bare sender address.
	From string

	// Endpoint overrides the provider base URL.
	Endpoint string

	// AppURL prefixes dashboard links in templates.
	AppURL string

	// QueueSize bounds pending notifications (default: 256).
	QueueSize int

	// Workers is the number of delivery goroutines (default: 2).
	Workers int

	// RatePerSecond paces deliveries (default: 2).
	RatePerSecond float64

	// Timeout bounds a single delivery (default: 10s).
	Timeout time.Duration
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		From:          "onboarding@resend.dev",
		Endpoint:      DefaultResendEndpoint,
		AppURL:        "http://localhost:3000",
		QueueSize:     256,
		Workers:       2,
		RatePerSecond: 2,
		Timeout:       10 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.From == "" {
		c.From = def.From
	}
	if c.AppURL == "" {
		c.AppURL = def.AppURL
	}
	if c.QueueSize <= 0 {
		c.QueueSize = def.QueueSize
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = def.RatePerSecond
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
}

// Mailer queues notifications and delivers them in the background.
type Mailer struct {
	cfg      Config
	sender   Sender
	renderer *Renderer
	limiter  *rate.Limiter
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan domain.Notification

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSender replaces the Resend client.
func WithSender(s Sender) Option {
	return func(m *Mailer) { m.sender = s }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mailer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Mailer and starts its workers.
func New(cfg Config, opts ...Option) (*Mailer, error) {
	cfg.applyDefaults()

	renderer, err := NewRenderer(cfg.From, cfg.AppURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Mailer{
		cfg:      cfg,
		renderer: renderer,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		logger:   slog.Default(),
		queue:    make(chan domain.Notification, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sender == nil && cfg.APIKey != "" {
		m.sender = NewResendClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
	}
	if m.sender == nil {
		m.logger.Warn("email api key is missing, email sending is disabled")
	}

	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m, nil
}

// Enabled reports whether notifications are delivered.
func (m *Mailer) Enabled() bool {
	return m.sender != nil
}

// Notify enqueues n. It never blocks: when delivery is disabled, the queue
// is full or the mailer is closed, n is dropped and logged.
func (m *Mailer) Notify(_ context.Context, n domain.Notification) {
	if m.sender == nil {
		m.logger.Debug("email skipped", "kind", n.Kind)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		m.logger.Warn("email dropped, mailer closed", "kind", n.Kind)
		return
	}

	select {
	case m.queue <- n:
	default:
		m.logger.Warn("email dropped, queue full", "kind", n.Kind, "queue_size", m.cfg.QueueSize)
	}
}

func (m *Mailer) worker() {
	defer m.wg.Done()
	for n := range m.queue {
		m.deliver(n)
	}
}

func (m *Mailer) deliver(n domain.Notification) {
	if err := m.limiter.Wait(m.ctx); err != nil {
		m.logger.Warn("email abandoned", "kind", n.Kind, "error", err)
		return
	}

	msg, err := m.renderer.Render(n, time.Now())
	if err != nil {
		m.logger.Error("email render failed", "kind", n.Kind, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.Timeout)
	defer cancel()

	id, err := m.sender.Send(ctx, msg)
	if err != nil {
		m.logger.Error("email send failed", "kind", n.Kind, "error", err)
		return
	}
	m.logger.Info("email sent", "kind", n.Kind, "id", id)
}

// Close stops accepting notifications and waits for the queue to drain.
// If ctx ends first, in-flight deliveries are cancelled and ctx.Err() is
// returned.
func (m *Mailer) Close(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		<-done
		return ctx.Err()
	}
}
