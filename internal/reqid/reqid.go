// Package reqid carries a per-request identifier through a context.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header a request id is read from and echoed in.
const Header = "X-Request-Id"

// key is the context key for the request ID.
type key struct{}

// Request identifies one request. Its address is unique per WithID call,
// even when two clients send the same id.
type Request struct {
	ID string
}

// NewContext returns a copy of parent carrying a new random request ID.
// It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, string) {
	return WithID(parent, uuid.NewString())
}

// WithID returns a copy of parent carrying id. An empty id is replaced by a
// generated one.
func WithID(parent context.Context, id string) (context.Context, string) {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(parent, key{}, &Request{ID: id}), id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	r, ok := RequestFromContext(ctx)
	if !ok {
		return "", false
	}
	return r.ID, true
}

// RequestFromContext returns the request carried by ctx. Use the pointer, not
// the id, to correlate work belonging to a single request.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	r, ok := ctx.Value(key{}).(*Request)
	return r, ok
}
