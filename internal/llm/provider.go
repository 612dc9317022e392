// Package llm provides a unified interface for hosted completion providers.
//
// Providers are deliberately thin: one blocking round-trip or one streaming
// call per invocation, no retries, no local model validation. Model
// identifiers the remote side does not recognize are rejected remotely and
// surface as an *InvocationError.
package llm

import (
	"context"
	"time"
)

// Request represents a single completion request.
//
// Two requests with identical Model and Prompt are interchangeable; the
// result cache in internal/completion relies on that.
type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response represents the result of a blocking completion call.
type Response struct {
	// Raw is the provider's raw textual payload, exactly as received.
	// The invoker decodes it into structured data; providers never do.
	Raw string

	// Content is the generated text extracted from Raw.
	Content string

	Model        string
	FinishReason string
	Duration     time.Duration
}

// Chunk is one unit of incrementally produced text. A Chunk with Err set is
// terminal: no further chunks follow it on the channel.
type Chunk struct {
	Text string
	Err  error
}

// sendChunk delivers c unless ctx is cancelled first. Producer goroutines
// send through it so a consumer that stops pulling cannot pin them forever.
func sendChunk(ctx context.Context, out chan<- Chunk, c Chunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// Provider is the interface all completion backends implement.
//
// CompleteStream follows the split error contract: errors before the stream
// is established are returned directly, errors mid-stream are delivered
// in-band as a terminal Chunk.
type Provider interface {
	// Complete performs one blocking completion round-trip.
	Complete(ctx context.Context, req Request) (*Response, error)

	// CompleteStream performs one streaming completion call. The returned
	// channel is closed after the terminal chunk (error or not).
	CompleteStream(ctx context.Context, req Request) (<-chan Chunk, error)

	// Name returns the provider identifier (e.g. "cortex", "anthropic").
	Name() string

	// Models returns the enumerated model identifiers this provider exposes
	// to the UI. The remote side remains the authority on what it accepts.
	Models() []string
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // For custom endpoints
	Models  []string
	Timeout time.Duration
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: 120 * time.Second,
	}
}
