package llm

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var defaultAnthropicModels = []string{
	"claude-3-5-sonnet-20241022",
	"claude-3-5-haiku-20241022",
	"claude-3-opus-20240229",
}

// AnthropicProvider wraps the Anthropic SDK.
type AnthropicProvider struct {
	client anthropic.Client
	models []string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg ProviderConfig) (*AnthropicProvider, error) {
	opts := []option.RequestOption{}

	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	models := cfg.Models
	if len(models) == 0 {
		models = defaultAnthropicModels
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		models: models,
	}, nil
}

func anthropicParams(req Request) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	return anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
}

// Complete sends one blocking completion request to Anthropic.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := p.client.Messages.New(ctx, anthropicParams(req))
	if err != nil {
		return nil, &InvocationError{Provider: p.Name(), Model: req.Model, Cause: err}
	}

	var content string
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			content = b.Text
		}
	}

	return &Response{
		Raw:          resp.RawJSON(),
		Content:      content,
		Model:        string(resp.Model),
		FinishReason: string(resp.StopReason),
		Duration:     time.Since(start),
	}, nil
}

// CompleteStream sends one streaming completion request to Anthropic and
// re-emits text deltas as Chunks.
func (p *AnthropicProvider) CompleteStream(ctx context.Context, req Request) (<-chan Chunk, error) {
	stream := p.client.Messages.NewStreaming(ctx, anthropicParams(req))
	if err := stream.Err(); err != nil {
		return nil, &InvocationError{Provider: p.Name(), Model: req.Model, Cause: err}
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer func() { _ = stream.Close() }()

		for stream.Next() {
			event := stream.Current()
			ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
			if !ok || delta.Text == "" {
				continue
			}
			if !sendChunk(ctx, out, Chunk{Text: delta.Text}) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			sendChunk(ctx, out, Chunk{Err: &InvocationError{Provider: p.Name(), Model: req.Model, Cause: err}})
		}
	}()

	return out, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Models returns the enumerated model identifiers.
func (p *AnthropicProvider) Models() []string {
	return p.models
}

var _ Provider = (*AnthropicProvider)(nil)
