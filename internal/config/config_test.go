package config

import (
	"strings"
	"testing"
)

func TestGatewayEndpoints(t *testing.T) {
	prod := Config{Environment: "production"}
	if !strings.HasPrefix(prod.AuthURL(), "https://api.safaricom.co.ke/") {
		t.Fatalf("production auth url = %q", prod.AuthURL())
	}

	sandbox := Config{Environment: "sandbox"}
	if !strings.HasPrefix(sandbox.STKPushURL(), "https://sandbox.safaricom.co.ke/") {
		t.Fatalf("sandbox stk push url = %q", sandbox.STKPushURL())
	}

	override := Config{Environment: "production", BaseURL: "http://127.0.0.1:9999"}
	if !strings.HasPrefix(override.AuthURL(), "http://127.0.0.1:9999/") {
		t.Fatalf("override auth url = %q", override.AuthURL())
	}
	if !strings.Contains(override.AuthURL(), "grant_type=client_credentials") {
		t.Fatalf("auth url missing grant type: %q", override.AuthURL())
	}
}
