package identity

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// Principal identifies the caller of a request. Resolution is header-based
// for now; a session or token layer slots in behind FromRequest without
// touching call sites.
type Principal struct {
	UserID      uuid.UUID
	DisplayName string
}

var ErrNoPrincipal = errors.New("no principal on request")

const (
	userIDHeader   = "X-User-ID"
	userNameHeader = "X-User-Name"
)

type contextKey struct{}

// FromRequest resolves the caller from request headers.
func FromRequest(r *http.Request) (Principal, error) {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		return Principal{}, ErrNoPrincipal
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return Principal{}, errors.New("malformed user id header")
	}
	return Principal{UserID: id, DisplayName: r.Header.Get(userNameHeader)}, nil
}

// WithPrincipal attaches a principal to the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal attached by Middleware, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// Middleware resolves the caller once per request and stores it on the
// context. Requests without identity headers pass through anonymous.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, err := FromRequest(r); err == nil {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}
