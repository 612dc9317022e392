package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmylchreest/promptdeck/internal/session"
)

// defaultCortexModels is the enumerated list shown to the user when the
// config does not override it. The warehouse endpoint is the authority on
// what it actually accepts.
var defaultCortexModels = []string{
	"claude-3-5-sonnet",
	"mistral-large2",
	"llama3.1-70b",
	"mixtral-8x7b",
}

// CortexProvider calls the managed warehouse's completion REST endpoint,
// authorized by the handle obtained from internal/session.
type CortexProvider struct {
	sess   *session.Session
	models []string
	client *http.Client
}

// NewCortexProvider creates a provider bound to an acquired session.
func NewCortexProvider(cfg ProviderConfig, sess *session.Session) (*CortexProvider, error) {
	if sess == nil {
		return nil, fmt.Errorf("cortex provider requires an acquired session")
	}

	models := cfg.Models
	if len(models) == 0 {
		models = defaultCortexModels
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &CortexProvider{
		sess:   sess,
		models: models,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type cortexRequest struct {
	Model       string          `json:"model"`
	Messages    []cortexMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	Stream      bool            `json:"stream"`
}

type cortexMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type cortexResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type cortexChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Complete performs one blocking round-trip against the warehouse endpoint.
// Response.Raw carries the body verbatim; the invoker owns decoding it.
func (p *CortexProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	body, err := p.do(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &InvocationError{Provider: p.Name(), Model: req.Model, Cause: err}
	}

	resp := &Response{
		Raw:      string(raw),
		Model:    req.Model,
		Duration: time.Since(start),
	}

	// Best-effort content extraction; a malformed payload is the invoker's
	// problem, not ours.
	var decoded cortexResponse
	if err := json.Unmarshal(raw, &decoded); err == nil && len(decoded.Choices) > 0 {
		resp.Content = decoded.Choices[0].Message.Content
		resp.FinishReason = decoded.Choices[0].FinishReason
		if decoded.Model != "" {
			resp.Model = decoded.Model
		}
	}

	return resp, nil
}

// CompleteStream performs one streaming call. The warehouse answers with
// server-sent events; each event's delta becomes one Chunk.
func (p *CortexProvider) CompleteStream(ctx context.Context, req Request) (<-chan Chunk, error) {
	body, err := p.do(ctx, req, true)
	if err != nil {
		return nil, err
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer func() { _ = body.Close() }()

		dec := newSSEDecoder(body)
		for {
			data, err := dec.Next()
			if err != nil {
				if err != io.EOF {
					sendChunk(ctx, out, Chunk{Err: &InvocationError{Provider: p.Name(), Model: req.Model, Cause: err}})
				}
				return
			}
			if bytes.Equal(data, []byte("[DONE]")) {
				return
			}

			var chunk cortexChunk
			if err := json.Unmarshal(data, &chunk); err != nil {
				sendChunk(ctx, out, Chunk{Err: &DecodeError{Provider: p.Name(), Payload: string(data), Cause: err}})
				return
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !sendChunk(ctx, out, Chunk{Text: choice.Delta.Content}) {
					return
				}
			}
		}
	}()

	return out, nil
}

func (p *CortexProvider) do(ctx context.Context, req Request, stream bool) (io.ReadCloser, error) {
	payload := cortexRequest{
		Model:       req.Model,
		Messages:    []cortexMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.sess.Host+"/api/v2/inference:complete", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	p.sess.Authorize(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &InvocationError{Provider: p.Name(), Model: req.Model, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &InvocationError{
			Provider:   p.Name(),
			Model:      req.Model,
			HTTPStatus: resp.StatusCode,
			Message:    string(bytes.TrimSpace(msg)),
		}
	}

	return resp.Body, nil
}

// Name returns the provider identifier.
func (p *CortexProvider) Name() string {
	return "cortex"
}

// Models returns the enumerated model identifiers.
func (p *CortexProvider) Models() []string {
	return p.models
}

var _ Provider = (*CortexProvider)(nil)
