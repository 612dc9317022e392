// Package completion orchestrates completion calls: the blocking invoker,
// its memoizing wrapper, and the streaming adapters.
//
// The package holds no state between invocations except the result cache.
// Errors are never recovered here; they propagate to the presentation layer
// unchanged.
package completion

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmylchreest/promptdeck/internal/llm"
	"github.com/jmylchreest/promptdeck/internal/logger"
)

// Result is the structured value decoded from the remote capability's raw
// payload. Its schema belongs to the remote side; we treat it as an opaque
// mapping.
type Result map[string]any

// Invoker issues completion calls through a provider. One remote round-trip
// per call, no retries.
type Invoker struct {
	provider llm.Provider

	// MaxTokens and Temperature are forwarded to every request.
	MaxTokens   int
	Temperature float64

	// PacingDelay is the inter-fragment delay used by the paced streaming
	// strategy.
	PacingDelay time.Duration
}

// NewInvoker creates an invoker bound to a provider.
func NewInvoker(provider llm.Provider) *Invoker {
	return &Invoker{
		provider:    provider,
		PacingDelay: DefaultPacingDelay,
	}
}

// Provider returns the underlying provider.
func (inv *Invoker) Provider() llm.Provider {
	return inv.provider
}

// Complete performs one blocking completion and decodes the raw payload as a
// mapping. A malformed payload is a *llm.DecodeError; a remote failure is a
// *llm.InvocationError. Neither is swallowed.
func (inv *Invoker) Complete(ctx context.Context, model, prompt string) (Result, error) {
	resp, err := inv.provider.Complete(ctx, llm.Request{
		Model:       model,
		Prompt:      prompt,
		MaxTokens:   inv.MaxTokens,
		Temperature: inv.Temperature,
	})
	if err != nil {
		return nil, err
	}

	var result Result
	if err := json.Unmarshal([]byte(resp.Raw), &result); err != nil {
		return nil, &llm.DecodeError{Provider: inv.provider.Name(), Payload: resp.Raw, Cause: err}
	}

	logger.Debug("completion finished",
		"provider", inv.provider.Name(),
		"model", model,
		"duration", resp.Duration)

	return result, nil
}
