package logging

import (
	"context"
	"testing"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithSession(ctx, "feature-x")
	ctx = WithComponent(ctx, "vcs")
	ctx = WithAgent(ctx, "claude-code")

	if got := stringValue(ctx, sessionIDKey); got != "feature-x" {
		t.Errorf("session = %q, want feature-x", got)
	}
	if got := stringValue(ctx, componentKey); got != "vcs" {
		t.Errorf("component = %q, want vcs", got)
	}
	if got := stringValue(ctx, agentKey); got != "claude-code" {
		t.Errorf("agent = %q, want claude-code", got)
	}
}

func TestStringValueNilContext(t *testing.T) {
	if got := stringValue(nil, sessionIDKey); got != "" {
		t.Errorf("expected empty string for nil context, got %q", got)
	}
}
