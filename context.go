package storeauth

import "context"

type contextKey int

const (
	clientIPKey contextKey = iota
	identityKey
)

// WithClientIP attaches the caller's remote IP so rate limiting and audit
// events can key on it. Transports should set it once per request.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the IP attached by [WithClientIP], or "".
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// WithIdentity attaches a resolved caller identity to the context. Used by
// the middleware gate after token resolution.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity attached by [WithIdentity].
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
