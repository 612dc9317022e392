package llm

import (
	"fmt"
	"os"

	"github.com/jmylchreest/promptdeck/internal/session"
)

// ProviderFactory creates providers.
type ProviderFactory func(cfg ProviderConfig, sess *session.Session) (Provider, error)

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"cortex":    "claude-3-5-sonnet",
	"anthropic": "claude-3-5-sonnet-20241022",
	"openai":    "gpt-4o",
}

var registry = map[string]ProviderFactory{
	"cortex": func(cfg ProviderConfig, sess *session.Session) (Provider, error) {
		return NewCortexProvider(cfg, sess)
	},
	"anthropic": func(cfg ProviderConfig, _ *session.Session) (Provider, error) {
		return NewAnthropicProvider(cfg)
	},
	"openai": func(cfg ProviderConfig, _ *session.Session) (Provider, error) {
		return NewOpenAIProvider(cfg)
	},
}

// NewProvider creates a provider by name. The session handle is only used by
// providers that call the managed warehouse endpoint ("cortex"); SDK-backed
// providers authenticate with their own API keys.
func NewProvider(name string, cfg ProviderConfig, sess *session.Session) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: cortex, anthropic, openai)", name)
	}
	return factory(cfg, sess)
}

// RegisterProvider adds a custom provider factory.
func RegisterProvider(name string, factory ProviderFactory) {
	registry[name] = factory
}

// AvailableProviders returns the list of registered providers.
func AvailableProviders() []string {
	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	return providers
}

// DetectProvider auto-detects the best provider from the environment.
// Priority: ambient warehouse session > ANTHROPIC_API_KEY > OPENAI_API_KEY >
// cortex (which will fail at session acquisition if nothing is configured).
func DetectProvider() (provider string, apiKey string) {
	if session.AmbientAvailable() {
		return "cortex", ""
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return "anthropic", key
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return "openai", key
	}

	return "cortex", ""
}

// GetDefaultModel returns the default model for a provider.
func GetDefaultModel(provider string) string {
	if model, ok := DefaultModels[provider]; ok {
		return model
	}
	return ""
}
