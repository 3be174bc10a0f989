package admission

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/ratelimit"
)

// Rate limit response headers.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// QuotaDetails accompanies a quota rejection. Reset is in Unix seconds.
type QuotaDetails struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// WriteError writes err as an ErrorBody. Domain errors carry their own
// status, message and details; anything else is a bare 500.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := ErrorBody{Error: domain.ErrInternal.Message}

	if de, ok := domain.AsDomainError(err); ok {
		status = de.Status()
		if status < http.StatusInternalServerError {
			body = ErrorBody{Error: de.Message, Details: de.Details}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func setQuotaHeaders(h http.Header, res ratelimit.Result) {
	h.Set(HeaderLimit, strconv.Itoa(res.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(max(res.Remaining, 0)))
	h.Set(HeaderReset, strconv.FormatInt(unixCeil(res.ResetAt), 10))
}

// unixCeil rounds t up to whole Unix seconds.
func unixCeil(t time.Time) int64 {
	s := t.Unix()
	if t.Nanosecond() > 0 {
		s++
	}
	return s
}

// seconds renders d as a Retry-After value, never less than 1.
func seconds(d time.Duration) string {
	n := int64(math.Ceil(d.Seconds()))
	if n < 1 {
		n = 1
	}
	return strconv.FormatInt(n, 10)
}

// ClientIP returns the caller's network origin. Forwarding headers are only
// consulted when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
