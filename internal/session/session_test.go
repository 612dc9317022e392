package session

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

// clearAmbient guarantees no ambient session leaks into a test.
func clearAmbient(t *testing.T) {
	t.Helper()
	t.Setenv(EnvHost, "")
	t.Setenv(EnvToken, "")
	t.Setenv(EnvTokenFile, "")
}

func validConfig() Config {
	return Config{
		Account:   "ACME-TEST",
		User:      "svc_promptdeck",
		Token:     "secret-token",
		Role:      "app_role",
		Warehouse: "app_wh",
	}
}

func TestAcquire_AmbientPreferred(t *testing.T) {
	clearAmbient(t)
	t.Setenv(EnvHost, "https://ambient.example")
	t.Setenv(EnvToken, "ambient-token")

	// A deliberately invalid fallback config proves it is never consulted.
	s, err := Acquire(Config{Account: "only-account"})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if s.Source != SourceAmbient {
		t.Errorf("Source = %q, want %q", s.Source, SourceAmbient)
	}
	if s.Host != "https://ambient.example" || s.Token != "ambient-token" {
		t.Errorf("unexpected session: %+v", s)
	}
}

func TestAcquire_AmbientTokenFile(t *testing.T) {
	clearAmbient(t)
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("file-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvHost, "https://ambient.example")
	t.Setenv(EnvTokenFile, path)

	s, err := Acquire(Config{})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if s.Token != "file-token" {
		t.Errorf("Token = %q, want trimmed file contents", s.Token)
	}
}

func TestAcquire_FallbackConfig(t *testing.T) {
	clearAmbient(t)

	s, err := Acquire(validConfig())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if s.Source != SourceConfig {
		t.Errorf("Source = %q, want %q", s.Source, SourceConfig)
	}
	if s.Host != "https://acme-test.inference.cloud" {
		t.Errorf("derived Host = %q", s.Host)
	}
	if s.Role != "app_role" || s.Warehouse != "app_wh" {
		t.Errorf("unexpected session: %+v", s)
	}
}

func TestAcquire_ExplicitHostWins(t *testing.T) {
	clearAmbient(t)
	cfg := validConfig()
	cfg.Host = "https://custom.example"

	s, err := Acquire(cfg)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if s.Host != "https://custom.example" {
		t.Errorf("Host = %q, want explicit host", s.Host)
	}
}

func TestAcquire_NoConfig_ConnectionError(t *testing.T) {
	clearAmbient(t)

	_, err := Acquire(Config{})
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("Acquire() error = %v, want *ConnectionError", err)
	}
}

func TestAcquire_InvalidConfig_ConnectionError(t *testing.T) {
	clearAmbient(t)

	_, err := Acquire(Config{Account: "acme"}) // missing user and token
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("Acquire() error = %v, want *ConnectionError", err)
	}
	if connErr.Unwrap() == nil {
		t.Error("validation failure should carry a cause")
	}
}

func TestAmbientAvailable(t *testing.T) {
	clearAmbient(t)
	if AmbientAvailable() {
		t.Error("AmbientAvailable() = true with empty environment")
	}

	t.Setenv(EnvHost, "https://ambient.example")
	if AmbientAvailable() {
		t.Error("AmbientAvailable() = true without a token")
	}

	t.Setenv(EnvToken, "tok")
	if !AmbientAvailable() {
		t.Error("AmbientAvailable() = false with host and token set")
	}
}

func TestAuthorize_SetsHeaders(t *testing.T) {
	s := &Session{Token: "tok", Role: "r", Warehouse: "wh"}
	req, _ := http.NewRequest(http.MethodPost, "https://example", nil)

	s.Authorize(req)

	if got := req.Header.Get("Authorization"); got != "Bearer tok" {
		t.Errorf("Authorization = %q", got)
	}
	if req.Header.Get("X-Session-Role") != "r" || req.Header.Get("X-Session-Warehouse") != "wh" {
		t.Errorf("session headers missing: %v", req.Header)
	}
}
