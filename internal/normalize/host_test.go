package normalize

import "testing"

func TestHost_Redact(t *testing.T) {
	cfg := HostConfig{RedactHosts: []string{"*.internal.example.com"}, Canonicalize: true}
	got := Host("db.internal.example.com", cfg)
	if got != "<redacted:host>" {
		t.Errorf("got %q", got)
	}
}

func TestHost_RedactHashed(t *testing.T) {
	cfg := HostConfig{RedactHosts: []string{"internal.example.com"}, HashValues: true, Canonicalize: true}
	got := Host("INTERNAL.example.com.", cfg)
	if got == "<redacted:host>" {
		t.Errorf("expected hashed token, got plain redaction marker")
	}
}

func TestHost_PassThrough(t *testing.T) {
	got := Host("API.Example.com", HostConfig{Canonicalize: true})
	if got != "api.example.com" {
		t.Errorf("got %q", got)
	}
}

func TestHost_CanonicalizeDisabled(t *testing.T) {
	got := Host("API.Example.com", HostConfig{})
	if got != "API.Example.com" {
		t.Errorf("got %q, want raw host unchanged", got)
	}
}
