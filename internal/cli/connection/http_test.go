package connection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeServer(t *testing.T) {
	tests := map[string]string{
		"localhost:5000":          "http://localhost:5000",
		"http://localhost:5000/":  "http://localhost:5000",
		"https://desk.example.io": "https://desk.example.io",
	}
	for in, want := range tests {
		if got := NormalizeServer(in); got != want {
			t.Errorf("NormalizeServer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClient_Do(t *testing.T) {
	var gotCookie, gotType, gotMethod string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		if c, err := r.Cookie(CookieName); err == nil {
			gotCookie = c.Value
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_liked":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Options{Token: "tok-1"})
	var out struct {
		IsLiked bool `json:"is_liked"`
	}
	if err := c.Put(context.Background(), "/api/x", map[string]string{"a": "b"}, &out); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if gotMethod != http.MethodPut || gotCookie != "tok-1" || gotType != "application/json" || gotBody["a"] != "b" {
		t.Errorf("request = %s cookie=%q type=%q body=%v", gotMethod, gotCookie, gotType, gotBody)
	}
	if !out.IsLiked {
		t.Error("response not decoded")
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		header     map[string]string
		body       string
		wantSubstr []string
		wantFields int
	}{
		{
			name:       "validation",
			status:     http.StatusBadRequest,
			body:       `{"error":"Validation failed","details":[{"field":"email","message":"Invalid email address"}]}`,
			wantSubstr: []string{"Validation failed", "email: Invalid email address"},
			wantFields: 1,
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			header:     map[string]string{"Retry-After": "42"},
			body:       `{"error":"Too many requests, please try again later.","details":{"limit":5,"remaining":0,"reset":1}}`,
			wantSubstr: []string{"Too many requests", "retry after 42s"},
		},
		{
			name:       "no body",
			status:     http.StatusBadGateway,
			wantSubstr: []string{"Bad Gateway"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(srv.URL, Options{}).Get(context.Background(), "/", nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if !IsStatus(err, tt.status) {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if len(apiErr.Fields) != tt.wantFields {
				t.Errorf("fields = %v", apiErr.Fields)
			}
			for _, s := range tt.wantSubstr {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("Error() = %q, missing %q", err.Error(), s)
				}
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url, Options{}).Get(context.Background(), "/health", nil)
	if err == nil || IsStatus(err, 0) {
		t.Errorf("Get() error = %v", err)
	}
}
