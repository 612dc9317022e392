package llm

import (
	"context"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var defaultOpenAIModels = []string{
	"gpt-4o",
	"gpt-4o-mini",
}

// OpenAIProvider wraps the OpenAI SDK.
type OpenAIProvider struct {
	client openai.Client
	models []string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	opts := []option.RequestOption{}

	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	models := cfg.Models
	if len(models) == 0 {
		models = defaultOpenAIModels
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		models: models,
	}, nil
}

func openaiParams(req Request) openai.ChatCompletionNewParams {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(req.Temperature),
	}
}

// Complete sends one blocking completion request to OpenAI.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := p.client.Chat.Completions.New(ctx, openaiParams(req))
	if err != nil {
		return nil, &InvocationError{Provider: p.Name(), Model: req.Model, Cause: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &InvocationError{Provider: p.Name(), Model: req.Model, Message: "no choices in response"}
	}

	return &Response{
		Raw:          resp.RawJSON(),
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Duration:     time.Since(start),
	}, nil
}

// CompleteStream sends one streaming completion request to OpenAI and
// re-emits text deltas as Chunks.
func (p *OpenAIProvider) CompleteStream(ctx context.Context, req Request) (<-chan Chunk, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, openaiParams(req))
	if err := stream.Err(); err != nil {
		return nil, &InvocationError{Provider: p.Name(), Model: req.Model, Cause: err}
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer func() { _ = stream.Close() }()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !sendChunk(ctx, out, Chunk{Text: chunk.Choices[0].Delta.Content}) {
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
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Models returns the enumerated model identifiers.
func (p *OpenAIProvider) Models() []string {
	return p.models
}

var _ Provider = (*OpenAIProvider)(nil)
