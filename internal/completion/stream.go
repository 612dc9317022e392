package completion

import (
	"context"
	"time"

	"github.com/jmylchreest/promptdeck/internal/llm"
)

// DefaultPacingDelay is the fixed delay the paced strategy inserts between
// fragment emissions to keep the rendered cadence smooth.
const DefaultPacingDelay = 20 * time.Millisecond

// Strategy selects how a streaming completion is consumed.
type Strategy string

const (
	// StrategyPassthrough hands the provider's live stream straight to the
	// consumer.
	StrategyPassthrough Strategy = "passthrough"

	// StrategyPaced invokes the provider without the streaming flag and
	// re-emits the materialized chunks with a fixed delay between them.
	// Exists for renderers that cannot consume the live stream shape.
	StrategyPaced Strategy = "paced"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyPassthrough || s == StrategyPaced
}

// Fragment is one unit of partial text, or the stream's terminal error.
// Fragments concatenate in arrival order; none is ever revised or retracted.
type Fragment struct {
	Text string
	Err  error
}

// Stream is a finite, non-restartable sequence of fragments. The consumer
// pulls at its own pace; each pull may block on network I/O. After a
// fragment with Err set, the channel is closed and no more arrive.
type Stream struct {
	ch <-chan Fragment
}

// Fragments returns the pull channel.
func (s *Stream) Fragments() <-chan Fragment {
	return s.ch
}

// Collect drains the stream, returning the concatenated text and the
// terminal error, if any. Text emitted before a mid-stream failure is
// preserved in the returned string.
func (s *Stream) Collect() (string, error) {
	var text string
	for frag := range s.ch {
		if frag.Err != nil {
			return text, frag.Err
		}
		text += frag.Text
	}
	return text, nil
}

// newPassthrough wraps a provider's live chunk channel. Cancelling ctx
// releases the relay even when the consumer has stopped pulling, so an
// abandoned stream does not pin the producer goroutine.
func newPassthrough(ctx context.Context, ch <-chan llm.Chunk) *Stream {
	out := make(chan Fragment)
	go func() {
		defer close(out)
		for {
			var frag Fragment
			select {
			case chunk, ok := <-ch:
				if !ok {
					return
				}
				frag = Fragment{Text: chunk.Text, Err: chunk.Err}
			case <-ctx.Done():
				emitTerminal(out, ctx.Err())
				return
			}

			select {
			case out <- frag:
			case <-ctx.Done():
				return
			}
			if frag.Err != nil {
				return
			}
		}
	}()
	return &Stream{ch: out}
}

// emitTerminal offers a terminal error fragment without blocking: if the
// consumer is gone, the fragment is dropped instead of pinning the producer.
func emitTerminal(out chan<- Fragment, err error) {
	select {
	case out <- Fragment{Err: err}:
	default:
	}
}

// newPaced re-emits already-materialized chunks with a fixed delay between
// emissions. The delay is pacing policy only; fragment content and order are
// identical to what a passthrough of the same chunks would emit.
func newPaced(ctx context.Context, chunks []string, delay time.Duration) *Stream {
	out := make(chan Fragment)
	go func() {
		defer close(out)
		for i, text := range chunks {
			if i > 0 && delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					emitTerminal(out, ctx.Err())
					return
				}
			}
			select {
			case out <- Fragment{Text: text}:
			case <-ctx.Done():
				emitTerminal(out, ctx.Err())
				return
			}
		}
	}()
	return &Stream{ch: out}
}

// pacedChunkSize is the rune count per re-emitted chunk when the paced
// strategy splits a materialized completion.
const pacedChunkSize = 24

// splitChunks cuts text into fixed-size rune runs, preserving all content.
func splitChunks(text string) []string {
	if text == "" {
		return nil
	}
	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		n := pacedChunkSize
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}

// CompleteStream performs one streaming completion using the given strategy.
//
// Passthrough failures before the first fragment are returned directly;
// mid-stream failures arrive as the terminal fragment, after whatever text
// was already emitted. The paced strategy materializes the completion first,
// so its only pre-stream failure mode is the blocking call itself.
func (inv *Invoker) CompleteStream(ctx context.Context, model, prompt string, strategy Strategy) (*Stream, error) {
	req := llm.Request{
		Model:       model,
		Prompt:      prompt,
		MaxTokens:   inv.MaxTokens,
		Temperature: inv.Temperature,
	}

	switch strategy {
	case StrategyPaced:
		resp, err := inv.provider.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		delay := inv.PacingDelay
		if delay == 0 {
			delay = DefaultPacingDelay
		}
		return newPaced(ctx, splitChunks(resp.Content), delay), nil
	default:
		ch, err := inv.provider.CompleteStream(ctx, req)
		if err != nil {
			return nil, err
		}
		return newPassthrough(ctx, ch), nil
	}
}
