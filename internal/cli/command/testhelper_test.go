package command

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/secdesk-go/internal/cli/config"
)

// mockServer serves canned API responses and records requests.
type mockServer struct {
	*httptest.Server
	mux *http.ServeMux

	mu       sync.Mutex
	requests []recorded
}

type recorded struct {
	method, path, query, cookie string
	body                        map[string]any
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{mux: http.NewServeMux()}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if c, err := r.Cookie("token"); err == nil {
			rec.cookie = c.Value
		}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
		}
		m.mu.Lock()
		m.requests = append(m.requests, rec)
		m.mu.Unlock()
		m.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(pattern string, status int, body any) {
	m.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, status, body)
	})
}

func (m *mockServer) last() recorded {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return recorded{}
	}
	return m.requests[len(m.requests)-1]
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// cliEnv runs the app against a mock server with isolated credentials.
type cliEnv struct {
	server *mockServer
	creds  string
	stdin  string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{
		server: newMockServer(t),
		creds:  filepath.Join(t.TempDir(), "credentials.yaml"),
	}
}

func (e *cliEnv) run(args ...string) (string, error) {
	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(e.stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"secdesk-cli", "--server", e.server.URL, "--credentials", e.creds}, args...)
	err := app.Run(full)
	return out.String(), err
}

// login saves a session for the mock server.
func (e *cliEnv) login(t *testing.T, token string) {
	t.Helper()
	err := config.Save(e.creds, &config.Credentials{
		Server: e.server.URL,
		Email:  "neo@example.com",
		Token:  token,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "01HZX",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret-test-secret-test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}
