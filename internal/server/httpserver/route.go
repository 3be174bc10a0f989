package httpserver

import (
	"context"
	"net/http"
)

type routeKey struct{}

// routeLabel is filled in by the mux wrapper and read by Audit.
type routeLabel struct {
	pattern string
}

func withRouteLabel(ctx context.Context, l *routeLabel) context.Context {
	return context.WithValue(ctx, routeKey{}, l)
}

// capturePattern records which mux pattern served the request. ServeMux
// sets Request.Pattern on the request it was handed, so it is readable
// once ServeHTTP returns.
func capturePattern(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if l, ok := r.Context().Value(routeKey{}).(*routeLabel); ok {
			l.pattern = r.Pattern
		}
	})
}
