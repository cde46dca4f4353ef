package sandbox

import "testing"

func TestIsAllowedExactAndSubdomain(t *testing.T) {
	m := &proxyMux{allowed: map[string]struct{}{"registry.npmjs.org": {}}}

	if !m.isAllowed("registry.npmjs.org") {
		t.Error("expected exact match to be allowed")
	}
	if !m.isAllowed("mirror.registry.npmjs.org") {
		t.Error("expected subdomain to be allowed")
	}
	if m.isAllowed("evil.example.com") {
		t.Error("expected unrelated domain to be denied")
	}
}

func TestIsAllowedEmptyDenyAll(t *testing.T) {
	m := &proxyMux{allowed: map[string]struct{}{}}
	if m.isAllowed("anything.example.com") {
		t.Error("expected empty allowlist to deny everything")
	}
}
