package admission

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/core/service"
	"github.com/yndnr/secdesk-go/internal/ratelimit"
)

// DefaultCookieName carries the bearer token for browser clients.
const DefaultCookieName = "token"

// Decision outcomes reported to the Recorder.
const (
	OutcomeAdmitted     = "admitted"
	OutcomeUnauthorized = "unauthorized"
	OutcomeRateLimited  = "rate_limited"
	OutcomeDuplicate    = "duplicate"
)

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(token string) (*service.Claims, error)
}

// Limiter is the quota and single-flight store.
type Limiter interface {
	CheckLimit(key string, limit int, period time.Duration) ratelimit.Result
	CheckDuplicate(key string, lockFor time.Duration) (bool, time.Time)
}

// Recorder counts admission decisions.
type Recorder interface {
	RecordAdmission(policy, outcome string)
}

// Admission is what a handler learns from an admitted request.
type Admission struct {
	Policy  string
	Subject string
	Email   string

	// Quota is set when the policy enforces a limit.
	Quota *ratelimit.Result
}

// Gate runs the admission pipeline.
type Gate struct {
	tokens   TokenVerifier
	limiter  Limiter
	policies atomic.Pointer[PolicyTable]

	recorder   Recorder
	cookieName string
	trustProxy bool
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithRecorder sets the decision recorder.
func WithRecorder(r Recorder) Option {
	return func(g *Gate) { g.recorder = r }
}

// WithCookieName sets the cookie that carries the token.
func WithCookieName(name string) Option {
	return func(g *Gate) {
		if name != "" {
			g.cookieName = name
		}
	}
}

// WithTrustedProxyHeaders makes origin keying honour X-Forwarded-For and
// X-Real-IP. Enable only behind a proxy that overwrites them.
func WithTrustedProxyHeaders(trust bool) Option {
	return func(g *Gate) { g.trustProxy = trust }
}

// WithClock overrides the time source used for Retry-After.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGate creates a Gate over tokens and limiter using table.
func NewGate(tokens TokenVerifier, limiter Limiter, table *PolicyTable, opts ...Option) *Gate {
	g := &Gate{
		tokens:     tokens,
		limiter:    limiter,
		cookieName: DefaultCookieName,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.policies.Store(table)
	return g
}

// SetPolicies swaps the policy table. In-flight requests keep the table
// they started with.
func (g *Gate) SetPolicies(table *PolicyTable) {
	if table != nil {
		g.policies.Store(table)
	}
}

// Policies returns the current policy table.
func (g *Gate) Policies() *PolicyTable {
	return g.policies.Load()
}

// Authenticate extracts and verifies the bearer token. Every failure,
// whether the token is missing, forged or expired, is domain.ErrUnauthorized.
func (g *Gate) Authenticate(r *http.Request) (*service.Claims, error) {
	raw := g.bearerToken(r)
	if raw == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return nil, domain.ErrUnauthorized.WithCause(err)
	}
	return claims, nil
}

func (g *Gate) bearerToken(r *http.Request) string {
	if c, err := r.Cookie(g.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// EnforceRateLimit counts the request against p. subject is used for
// subject-keyed policies; origin-keyed policies use the client address.
func (g *Gate) EnforceRateLimit(r *http.Request, p Policy, subject string) (ratelimit.Result, error) {
	if !p.Limited() {
		return ratelimit.Result{Allowed: true, Limit: 0, Remaining: -1}, nil
	}

	caller := subject
	if p.KeyBy == KeyByOrigin || caller == "" {
		caller = ClientIP(r, g.trustProxy)
	}
	res := g.limiter.CheckLimit("rl:"+p.Name+":"+caller, p.Limit, p.Window)
	if !res.Allowed {
		return res, domain.ErrTooManyRequests.WithDetails(QuotaDetails{
			Limit:     res.Limit,
			Remaining: 0,
			Reset:     unixCeil(res.ResetAt),
		})
	}
	return res, nil
}

// EnforceSingleFlight takes the duplicate lock for subject on this method
// and path. On a duplicate it also returns when the held lock is released.
func (g *Gate) EnforceSingleFlight(r *http.Request, p Policy, subject string) (time.Time, error) {
	if !p.Locking() {
		return time.Time{}, nil
	}
	key := "dup:" + subject + ":" + r.Method + ":" + r.URL.Path
	if dup, unlockAt := g.limiter.CheckDuplicate(key, p.Lock); dup {
		return unlockAt, domain.ErrDuplicateRequest
	}
	return time.Time{}, nil
}

// Admit runs the pipeline for the named policy. On rejection it writes the
// response and returns false; the handler must return immediately.
func (g *Gate) Admit(w http.ResponseWriter, r *http.Request, name string) (Admission, bool) {
	p, ok := g.Policies().Lookup(name)
	if !ok {
		g.logger.Error("admission policy not found", "policy", name, "path", r.URL.Path)
		WriteError(w, domain.ErrInternal)
		return Admission{}, false
	}

	adm := Admission{Policy: p.Name}

	if p.Authenticate {
		claims, err := g.Authenticate(r)
		if err != nil {
			g.reject(w, r, p, OutcomeUnauthorized, err, nil)
			return Admission{}, false
		}
		adm.Subject = claims.UserID
		adm.Email = claims.Email
	}

	res, err := g.EnforceRateLimit(r, p, adm.Subject)
	if err != nil {
		g.reject(w, r, p, OutcomeRateLimited, err, &res)
		return Admission{}, false
	}

	if unlockAt, err := g.EnforceSingleFlight(r, p, adm.Subject); err != nil {
		w.Header().Set(HeaderRetryAfter, seconds(unlockAt.Sub(g.now())))
		g.reject(w, r, p, OutcomeDuplicate, err, nil)
		return Admission{}, false
	}

	if p.Limited() {
		adm.Quota = &res
		setQuotaHeaders(w.Header(), res)
	}

	g.record(p.Name, OutcomeAdmitted)
	return adm, true
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, p Policy, outcome string, err error, quota *ratelimit.Result) {
	g.record(p.Name, outcome)
	g.logger.Debug("request rejected",
		"policy", p.Name,
		"outcome", outcome,
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)

	if quota != nil {
		setQuotaHeaders(w.Header(), *quota)
		w.Header().Set(HeaderRetryAfter, seconds(quota.ResetAt.Sub(g.now())))
	}
	WriteError(w, err)
}

func (g *Gate) record(policy, outcome string) {
	if g.recorder != nil {
		g.recorder.RecordAdmission(policy, outcome)
	}
}
