package access

import "context"

type ctxKey struct{}

// WithSession stores the session on ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request session, anonymous when none was stored.
func FromContext(ctx context.Context) Session {
	if ctx == nil {
		return Anonymous()
	}
	if s, ok := ctx.Value(ctxKey{}).(Session); ok {
		return s
	}
	return Anonymous()
}
