package llm

import (
	"strings"
	"testing"
)

func clearDetectionEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PROMPTDECK_SESSION_HOST",
		"PROMPTDECK_SESSION_TOKEN",
		"PROMPTDECK_SESSION_TOKEN_FILE",
		"ANTHROPIC_API_KEY",
		"OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestAvailableProviders(t *testing.T) {
	providers := AvailableProviders()
	set := make(map[string]bool, len(providers))
	for _, p := range providers {
		set[p] = true
	}

	for _, name := range []string{"cortex", "anthropic", "openai"} {
		if !set[name] {
			t.Errorf("AvailableProviders() should contain %q, got %v", name, providers)
		}
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider("nope", ProviderConfig{}, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
	if !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("error = %v", err)
	}
}

func TestDetectProvider_AmbientSessionWins(t *testing.T) {
	clearDetectionEnv(t)
	t.Setenv("PROMPTDECK_SESSION_HOST", "https://ambient.example")
	t.Setenv("PROMPTDECK_SESSION_TOKEN", "tok")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	provider, _ := DetectProvider()
	if provider != "cortex" {
		t.Errorf("DetectProvider() = %q, want cortex when an ambient session exists", provider)
	}
}

func TestDetectProvider_APIKeys(t *testing.T) {
	clearDetectionEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	provider, key := DetectProvider()
	if provider != "anthropic" || key != "sk-ant" {
		t.Errorf("DetectProvider() = %q, %q", provider, key)
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-oai")

	provider, key = DetectProvider()
	if provider != "openai" || key != "sk-oai" {
		t.Errorf("DetectProvider() = %q, %q", provider, key)
	}
}

func TestDetectProvider_FallsBackToCortex(t *testing.T) {
	clearDetectionEnv(t)

	provider, key := DetectProvider()
	if provider != "cortex" || key != "" {
		t.Errorf("DetectProvider() = %q, %q", provider, key)
	}
}

func TestGetDefaultModel(t *testing.T) {
	if m := GetDefaultModel("cortex"); m != "claude-3-5-sonnet" {
		t.Errorf("GetDefaultModel(cortex) = %q", m)
	}
	if m := GetDefaultModel("nope"); m != "" {
		t.Errorf("GetDefaultModel(nope) = %q, want empty", m)
	}
}
