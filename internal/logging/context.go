package logging

import "context"

// contextKey is unexported so no other package can collide with para's
// context values.
type contextKey int

const (
	sessionIDKey contextKey = iota
	componentKey
	agentKey
)

// WithSession attaches a session name to ctx for log correlation.
func WithSession(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, sessionIDKey, name)
}

// WithComponent attaches a component name (e.g. "vcs", "isolation.container")
// to ctx so log lines can be filtered by subsystem.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithAgent attaches the agent name (e.g. "claude-code") driving the session
// to ctx.
func WithAgent(ctx context.Context, agent string) context.Context {
	return context.WithValue(ctx, agentKey, agent)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
