package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []Message
	started chan struct{}
	release chan struct{}
	err     error
}

func (s *fakeSender) Send(ctx context.Context, msg Message) (string, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "msg-" + msg.To, nil
}

func (s *fakeSender) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func testConfig() Config {
	return Config{
		APIKey:        "re_test",
		From:          "alerts@secdesk.test",
		AppURL:        "https://secdesk.test/",
		QueueSize:     4,
		Workers:       1,
		RatePerSecond: 1000,
	}
}

func TestMailer_DeliversAndDrains(t *testing.T) {
	sender := &fakeSender{}
	m, err := New(testConfig(), WithSender(sender))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.Notify(context.Background(), domain.Notification{Kind: domain.NotifyWelcome, To: "neo@example.com", Name: "Neo"})
	m.Notify(context.Background(), domain.Notification{
		Kind: domain.NotifyIssueCreated, To: "neo@example.com", Name: "Neo",
		IssueTitle: "SQLi in search", IssueType: domain.IssueTypeVAPT,
	})

	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got := sender.messages()
	if len(got) != 2 {
		t.Fatalf("sent %d messages, want 2", len(got))
	}
	if got[0].Subject != "Welcome to SecDesk Dashboard" {
		t.Errorf("first subject = %q", got[0].Subject)
	}
	if got[1].Subject != "[ALERT] New Issue: SQLi in search" {
		t.Errorf("second subject = %q", got[1].Subject)
	}
	if got[1].From != "SecDesk Dashboard <alerts@secdesk.test>" {
		t.Errorf("From = %q", got[1].From)
	}
}

func TestMailer_DisabledWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.Enabled() {
		t.Error("Enabled() = true without api key")
	}
	m.Notify(context.Background(), domain.Notification{Kind: domain.NotifyWelcome, To: "a@b.c"})
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestMailer_DropsWhenQueueFull(t *testing.T) {
	sender := &fakeSender{started: make(chan struct{}, 8), release: make(chan struct{})}
	cfg := testConfig()
	cfg.QueueSize = 1
	m, err := New(cfg, WithSender(sender))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	n := domain.Notification{Kind: domain.NotifyWelcome, To: "a@b.c", Name: "A"}
	m.Notify(context.Background(), n)
	<-sender.started // worker is busy

	m.Notify(context.Background(), n) // queued
	m.Notify(context.Background(), n) // dropped

	close(sender.release)
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := len(sender.messages()); got != 2 {
		t.Errorf("sent %d messages, want 2", got)
	}
}

func TestMailer_NotifyAfterCloseIsDropped(t *testing.T) {
	sender := &fakeSender{}
	m, err := New(testConfig(), WithSender(sender))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	m.Notify(context.Background(), domain.Notification{Kind: domain.NotifyWelcome, To: "a@b.c"})
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if got := len(sender.messages()); got != 0 {
		t.Errorf("sent %d messages after close, want 0", got)
	}
}

func TestMailer_CloseDeadlineCancelsDelivery(t *testing.T) {
	sender := &fakeSender{started: make(chan struct{}, 1), release: make(chan struct{})}
	m, err := New(testConfig(), WithSender(sender))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.Notify(context.Background(), domain.Notification{Kind: domain.NotifyWelcome, To: "a@b.c"})
	<-sender.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close() error = %v, want deadline exceeded", err)
	}
}

func TestMailer_SendErrorIsLogged(t *testing.T) {
	sender := &fakeSender{err: errors.New("provider down")}
	m, err := New(testConfig(), WithSender(sender))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.Notify(context.Background(), domain.Notification{Kind: domain.NotifyPasswordReset, To: "a@b.c", ResetLink: "https://x/reset?token=t"})
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer("alerts@secdesk.test", "https://secdesk.test/")
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		n           domain.Notification
		wantSubject string
		wantFrom    string
		wantBody    []string
	}{
		{
			name:        "welcome",
			n:           domain.Notification{Kind: domain.NotifyWelcome, To: "neo@example.com", Name: "Neo"},
			wantSubject: "Welcome to SecDesk Dashboard",
			wantFrom:    "SecDesk <alerts@secdesk.test>",
			wantBody:    []string{"WELCOME Neo", "https://secdesk.test/dashboard", "2026"},
		},
		{
			name: "issue created",
			n: domain.Notification{
				Kind: domain.NotifyIssueCreated, To: "neo@example.com", Name: "Neo",
				IssueTitle: "XSS <script>", IssueType: domain.IssueTypeCloudSecurity,
			},
			wantSubject: "[ALERT] New Issue: XSS <script>",
			wantFrom:    "SecDesk Dashboard <alerts@secdesk.test>",
			wantBody:    []string{"XSS &lt;script&gt;", strings.ToUpper(string(domain.IssueTypeCloudSecurity))},
		},
		{
			name:        "profile updated",
			n:           domain.Notification{Kind: domain.NotifyProfileUpdated, To: "neo@example.com", Name: "Neo"},
			wantSubject: "[SECURITY] Profile Information Updated",
			wantFrom:    "SecDesk Security <alerts@secdesk.test>",
			wantBody:    []string{"Hello Neo", "/profile"},
		},
		{
			name: "password reset",
			n: domain.Notification{
				Kind: domain.NotifyPasswordReset, To: "neo@example.com", Name: "Neo",
				ResetLink: "https://secdesk.test/reset-password?token=abc",
			},
			wantSubject: "[ACTION REQUIRED] Reset Your Credentials",
			wantFrom:    "SecDesk Security <alerts@secdesk.test>",
			wantBody:    []string{"reset-password?token=abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := r.Render(tt.n, now)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if msg.Subject != tt.wantSubject {
				t.Errorf("Subject = %q, want %q", msg.Subject, tt.wantSubject)
			}
			if msg.From != tt.wantFrom {
				t.Errorf("From = %q, want %q", msg.From, tt.wantFrom)
			}
			if msg.To != tt.n.To {
				t.Errorf("To = %q", msg.To)
			}
			for _, s := range tt.wantBody {
				if !strings.Contains(msg.HTML, s) {
					t.Errorf("HTML missing %q", s)
				}
			}
		})
	}

	if _, err := r.Render(domain.Notification{Kind: "digest"}, now); err == nil {
		t.Error("Render() of unknown kind succeeded")
	}
}

func TestResendClient_Send(t *testing.T) {
	var gotAuth string
	var gotBody resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer srv.Close()

	c := NewResendClient(srv.URL+"/", "re_123", time.Second)
	id, err := c.Send(context.Background(), Message{From: "A <a@b.c>", To: "x@y.z", Subject: "hi", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id != "49a3999c-0ce1-4ea6-ab68-afcd6dc2e794" {
		t.Errorf("id = %q", id)
	}
	if gotAuth != "Bearer re_123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(gotBody.To) != 1 || gotBody.To[0] != "x@y.z" || gotBody.Subject != "hi" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestResendClient_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"message":"Invalid from field"}`))
	}))
	defer srv.Close()

	c := NewResendClient(srv.URL, "re_123", time.Second)
	_, err := c.Send(context.Background(), Message{To: "x@y.z"})
	if err == nil || !strings.Contains(err.Error(), "Invalid from field") {
		t.Errorf("Send() error = %v", err)
	}
}
