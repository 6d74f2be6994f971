package session

import "context"

type idContextKey struct{}

type credentialsContextKey struct{}

// WithID returns a context carrying the active session identifier. Every
// transport dispatcher installs this before handing a message to the MCP
// layer, so handler code at any depth of asynchronous work observes the same
// identifier even while unrelated sessions' work interleaves on the process.
func WithID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, idContextKey{}, sessionID)
}

// IDFromContext returns the active session identifier, or "" outside any
// session scope.
func IDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(idContextKey{}).(string)
	return id
}

// WithCredentials stashes credentials extracted from an inbound request so a
// later stage (running with the same context) can bind them to a session.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsContextKey{}, creds)
}

// CredentialsFromContext returns the credentials extracted for this request,
// if any.
func CredentialsFromContext(ctx context.Context) Credentials {
	if ctx == nil {
		return Credentials{}
	}
	creds, _ := ctx.Value(credentialsContextKey{}).(Credentials)
	return creds
}
