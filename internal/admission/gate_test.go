package admission

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/core/service"
	"github.com/yndnr/secdesk-go/internal/ratelimit"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordAdmission(policy, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[policy+"/"+outcome]++
}

func (r *countingRecorder) get(policy, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[policy+"/"+outcome]
}

type gateFixture struct {
	gate     *Gate
	tokens   *service.TokenService
	clock    *testClock
	recorder *countingRecorder
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)}
	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret: "gate-test-secret-0123456789abcdef",
		Clock:  clock.Now,
	})
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	table, err := NewPolicyTable(nil)
	if err != nil {
		t.Fatalf("NewPolicyTable() error = %v", err)
	}
	rec := &countingRecorder{}
	gate := NewGate(tokens, ratelimit.New(ratelimit.WithClock(clock.Now)), table,
		WithRecorder(rec), WithClock(clock.Now))
	return &gateFixture{gate: gate, tokens: tokens, clock: clock, recorder: rec}
}

func (f *gateFixture) token(t *testing.T, subject string) string {
	t.Helper()
	tok, _, err := f.tokens.Issue(subject, subject+"@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return tok
}

// handlerFor wraps a domain step behind the gate the way route handlers do.
func handlerFor(g *Gate, policy string, domainCalls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := g.Admit(w, r, policy); !ok {
			return
		}
		domainCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestGate_LoginQuotaByOrigin(t *testing.T) {
	f := newGateFixture(t)
	var calls atomic.Int32
	h := handlerFor(f.gate, PolicyAuthLogin, &calls)

	for i := 1; i <= 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d, want 200", i, rec.Code)
		}
		if got := rec.Header().Get(HeaderRemaining); got != strconv.Itoa(20-i) {
			t.Errorf("attempt %d: %s = %s, want %d", i, HeaderRemaining, got, 20-i)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:40001"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("attempt 21: status = %d, want 429", rec.Code)
	}
	if calls.Load() != 20 {
		t.Errorf("domain calls = %d, want 20", calls.Load())
	}

	wantReset := f.clock.Now().Add(15 * time.Minute).Unix()
	hdr := rec.Header()
	if hdr.Get(HeaderLimit) != "20" || hdr.Get(HeaderRemaining) != "0" {
		t.Errorf("headers = limit %q remaining %q", hdr.Get(HeaderLimit), hdr.Get(HeaderRemaining))
	}
	if hdr.Get(HeaderReset) != strconv.FormatInt(wantReset, 10) {
		t.Errorf("%s = %s, want %d", HeaderReset, hdr.Get(HeaderReset), wantReset)
	}
	if hdr.Get(HeaderRetryAfter) != "900" {
		t.Errorf("%s = %s, want 900", HeaderRetryAfter, hdr.Get(HeaderRetryAfter))
	}

	body := decodeError(t, rec)
	if body.Error != domain.ErrTooManyRequests.Message {
		t.Errorf("error = %q", body.Error)
	}
	details, _ := body.Details.(map[string]any)
	if details["limit"] != float64(20) || details["remaining"] != float64(0) || details["reset"] != float64(wantReset) {
		t.Errorf("details = %v", body.Details)
	}

	// Another origin has its own window.
	other := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	other.RemoteAddr = "198.51.100.1:40000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other origin: status = %d, want 200", rec.Code)
	}

	if f.recorder.get(PolicyAuthLogin, OutcomeRateLimited) != 1 {
		t.Errorf("rate_limited decisions = %d, want 1", f.recorder.get(PolicyAuthLogin, OutcomeRateLimited))
	}
}

func TestGate_DuplicateCreate(t *testing.T) {
	f := newGateFixture(t)
	tok := f.token(t, "usr-a")
	var calls atomic.Int32
	h := handlerFor(f.gate, PolicyIssueCreate, &calls)

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/issues", strings.NewReader(`{}`))
		req.AddCookie(&http.Cookie{Name: "token", Value: tok})
		return req
	}

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, newReq())
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("domain calls = %d, want exactly 1 (codes %v)", calls.Load(), codes)
	}
	if !(codes[0] == 200 && codes[1] == 429) && !(codes[0] == 429 && codes[1] == 200) {
		t.Fatalf("codes = %v, want one 200 and one 429", codes)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newReq())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request inside lock: status = %d, want 429", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Error != domain.ErrDuplicateRequest.Message {
		t.Errorf("error = %q, want duplicate message", body.Error)
	}
	if body.Details != nil {
		t.Errorf("duplicate rejection carries details %v", body.Details)
	}
	if rec.Header().Get(HeaderRetryAfter) != "5" {
		t.Errorf("%s = %q, want 5", HeaderRetryAfter, rec.Header().Get(HeaderRetryAfter))
	}
	for _, name := range []string{HeaderLimit, HeaderRemaining, HeaderReset} {
		if v := rec.Header().Get(name); v != "" {
			t.Errorf("duplicate rejection carries %s = %q", name, v)
		}
	}

	// Retry-After counts down to the end of the held lock.
	f.clock.Advance(4 * time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, newReq())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("request late in lock: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get(HeaderRetryAfter) != "1" {
		t.Errorf("late %s = %q, want 1", HeaderRetryAfter, rec.Header().Get(HeaderRetryAfter))
	}

	f.clock.Advance(time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, newReq())
	if rec.Code != http.StatusOK {
		t.Fatalf("after lock: status = %d, want 200", rec.Code)
	}
	if rec.Header().Get(HeaderLimit) == "" {
		t.Errorf("admitted request missing %s", HeaderLimit)
	}
	if calls.Load() != 2 {
		t.Errorf("domain calls = %d, want 2", calls.Load())
	}
}

func TestGate_UnauthorizedCollapsed(t *testing.T) {
	f := newGateFixture(t)
	var calls atomic.Int32
	h := handlerFor(f.gate, PolicyProfileRead, &calls)

	valid := f.token(t, "usr-a")
	parts := strings.Split(valid, ".")
	forged := parts[0] + "." + parts[1] + ".AAAA"

	expiredSvc, _ := service.NewTokenService(service.TokenConfig{
		Secret: "gate-test-secret-0123456789abcdef",
		TTL:    time.Second,
		Clock:  func() time.Time { return f.clock.Now().Add(-time.Hour) },
	})
	expired, _, _ := expiredSvc.Issue("usr-a", "a@example.com")

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"missing", func(r *http.Request) {}},
		{"forged cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: forged}) }},
		{"expired cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: expired}) }},
		{"garbage bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+valid) }},
	}

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if rec.Header().Get(HeaderLimit) != "" {
				t.Error("rate limit ran for an unauthenticated caller")
			}
			bodies = append(bodies, rec.Body.String())
		})
	}

	for _, b := range bodies[1:] {
		if b != bodies[0] {
			t.Errorf("unauthorized bodies differ: %q vs %q", b, bodies[0])
		}
	}
	if calls.Load() != 0 {
		t.Errorf("domain reached %d times", calls.Load())
	}
	if got := f.recorder.get(PolicyProfileRead, OutcomeUnauthorized); got != len(tests) {
		t.Errorf("unauthorized decisions = %d, want %d", got, len(tests))
	}
}

func TestGate_BearerHeaderAccepted(t *testing.T) {
	f := newGateFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/issues", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "usr-b"))

	adm, ok := f.gate.Admit(httptest.NewRecorder(), req, PolicyIssueRead)
	if !ok {
		t.Fatal("Admit() rejected a valid bearer token")
	}
	if adm.Subject != "usr-b" || adm.Email != "usr-b@example.com" {
		t.Errorf("Admission = %+v", adm)
	}
	if adm.Quota != nil {
		t.Error("unlimited policy reported a quota")
	}
}

// A request that fails validation after admission still uses its quota slot
// and holds the single-flight lock.
func TestGate_ValidationFailureConsumesSlot(t *testing.T) {
	f := newGateFixture(t)
	tok := f.token(t, "usr-a")
	var calls atomic.Int32

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := f.gate.Admit(w, r, PolicyProfileUpdate); !ok {
			return
		}
		var in domain.UpdateProfileInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if err := in.Validate(); err != nil {
			WriteError(w, err)
			return
		}
		calls.Add(1)
	})

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/users/profile", strings.NewReader(body))
		req.AddCookie(&http.Cookie{Name: "token", Value: tok})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	longBio := `{"bio":"` + strings.Repeat("x", 501) + `"}`
	rec := send(longBio)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if rec.Header().Get(HeaderRemaining) != "19" {
		t.Errorf("%s = %q, want 19", HeaderRemaining, rec.Header().Get(HeaderRemaining))
	}
	body := decodeError(t, rec)
	if body.Error != "Bio cannot exceed 500 characters" {
		t.Errorf("error = %q", body.Error)
	}

	// The lock taken by the invalid request blocks an immediate retry.
	rec = send(`{"bio":"short"}`)
	if rec.Code != http.StatusTooManyRequests || decodeError(t, rec).Error != domain.ErrDuplicateRequest.Message {
		t.Fatalf("retry inside lock: %d %s", rec.Code, rec.Body.String())
	}

	f.clock.Advance(5 * time.Second)
	rec = send(`{"bio":"short"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("retry after lock: status = %d", rec.Code)
	}
	if rec.Header().Get(HeaderRemaining) != "17" {
		t.Errorf("%s = %q, want 17", HeaderRemaining, rec.Header().Get(HeaderRemaining))
	}
	if calls.Load() != 1 {
		t.Errorf("domain calls = %d, want 1", calls.Load())
	}
}

func TestGate_SingleFlightKeyedByPath(t *testing.T) {
	f := newGateFixture(t)
	tok := f.token(t, "usr-a")

	admit := func(method, path string) bool {
		req := httptest.NewRequest(method, path, nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: tok})
		_, ok := f.gate.Admit(httptest.NewRecorder(), req, PolicyIssueUpdate)
		return ok
	}

	if !admit(http.MethodPut, "/api/issues/iss-1") {
		t.Fatal("first update rejected")
	}
	if !admit(http.MethodPut, "/api/issues/iss-2") {
		t.Error("update of a different issue rejected")
	}
	if admit(http.MethodPut, "/api/issues/iss-1") {
		t.Error("duplicate update admitted")
	}
}

func TestGate_SetPolicies(t *testing.T) {
	f := newGateFixture(t)
	one := 1
	table, err := NewPolicyTable(map[string]Override{PolicyAuthRegister: {Limit: &one}})
	if err != nil {
		t.Fatalf("NewPolicyTable() error = %v", err)
	}
	f.gate.SetPolicies(table)
	f.gate.SetPolicies(nil)

	admit := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
		rec := httptest.NewRecorder()
		f.gate.Admit(rec, req, PolicyAuthRegister)
		return rec.Code
	}
	if code := admit(); code != http.StatusOK {
		t.Fatalf("first: %d", code)
	}
	if code := admit(); code != http.StatusTooManyRequests {
		t.Fatalf("second: %d, want 429 after reload", code)
	}
}

func TestGate_UnknownPolicy(t *testing.T) {
	f := newGateFixture(t)
	rec := httptest.NewRecorder()
	_, ok := f.gate.Admit(rec, httptest.NewRequest(http.MethodGet, "/", nil), "nope")
	if ok || rec.Code != http.StatusInternalServerError {
		t.Fatalf("Admit(unknown) = %v, status %d", ok, rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "Internal Server Error" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		trust   bool
		want    string
	}{
		{"remote addr", "192.0.2.1:1234", nil, false, "192.0.2.1"},
		{"ipv6", "[2001:db8::1]:443", nil, false, "2001:db8::1"},
		{"no port", "192.0.2.9", nil, false, "192.0.2.9"},
		{"xff ignored when untrusted", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "10.0.0.1"}, false, "192.0.2.1"},
		{"xff first hop", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, true, "10.0.0.1"},
		{"x-real-ip", "192.0.2.1:1234", map[string]string{"X-Real-IP": "10.0.0.3"}, true, "10.0.0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req, tt.trust); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", domain.ErrValidation.WithMessage("Title must be at least 3 characters"), 400, "Title must be at least 3 characters"},
		{"not found", domain.ErrIssueNotFound, 404, "Issue not found"},
		{"storage hides cause", domain.ErrStorage.WithCause(errString("disk full")), 500, "Internal Server Error"},
		{"plain error", errString("boom"), 500, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decodeError(t, rec).Error; got != tt.msg {
				t.Errorf("error = %q, want %q", got, tt.msg)
			}
			if strings.Contains(rec.Body.String(), "disk full") || strings.Contains(rec.Body.String(), "boom") {
				t.Errorf("body leaks cause: %s", rec.Body.String())
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestUnixCeilAndSeconds(t *testing.T) {
	base := time.Unix(1000, 0)
	if got := unixCeil(base); got != 1000 {
		t.Errorf("unixCeil(whole) = %d", got)
	}
	if got := unixCeil(base.Add(time.Millisecond)); got != 1001 {
		t.Errorf("unixCeil(+1ms) = %d", got)
	}
	if got := seconds(1500 * time.Millisecond); got != "2" {
		t.Errorf("seconds(1.5s) = %s", got)
	}
	if got := seconds(-time.Second); got != "1" {
		t.Errorf("seconds(-1s) = %s", got)
	}
}
