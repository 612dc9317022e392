package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/jmylchreest/promptdeck/internal/completion"
	"github.com/jmylchreest/promptdeck/internal/llm"
	"github.com/jmylchreest/promptdeck/internal/logger"
	"github.com/jmylchreest/promptdeck/internal/session"
)

// Handler serves the prompt UI and the completion API.
type Handler struct {
	cache    *completion.CachedInvoker
	validate *validator.Validate
}

// NewHandler creates a handler around a cached invoker.
func NewHandler(cache *completion.CachedInvoker) *Handler {
	return &Handler{
		cache:    cache,
		validate: validator.New(),
	}
}

// Models handles GET /api/models.
func (h *Handler) Models(c *fiber.Ctx) error {
	provider := h.cache.Invoker().Provider()
	return c.JSON(ModelsResponse{
		Provider: provider.Name(),
		Models:   provider.Models(),
	})
}

func (h *Handler) parseRequest(c *fiber.Ctx) (*CompleteRequest, error) {
	var req CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fmt.Errorf("malformed request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Complete handles POST /api/complete: the blocking path, through the cache.
func (h *Handler) Complete(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Kind: "validation"})
	}

	log := logger.With("request_id", uuid.NewString(), "model", req.Model)

	start := time.Now()
	result, cached, err := h.cache.Complete(c.UserContext(), req.Model, req.Prompt)
	if err != nil {
		status, kind := classify(err)
		log.Error("completion failed", "kind", kind, "error", err)
		return c.Status(status).JSON(ErrorResponse{Error: err.Error(), Kind: kind})
	}

	elapsed := time.Since(start)
	log.Info("completion served", "cached", cached, "elapsed", elapsed)

	return c.JSON(CompleteResponse{
		Result:    result,
		ElapsedMS: elapsed.Milliseconds(),
		Cached:    cached,
	})
}

// CompleteStream handles POST /api/complete/stream: server-sent events of
// fragments. Failures before the first fragment map to an HTTP error;
// mid-stream failures arrive as a terminal `error` event after whatever
// fragments were already delivered.
func (h *Handler) CompleteStream(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Kind: "validation"})
	}

	strategy := completion.Strategy(c.Query("strategy", string(completion.StrategyPassthrough)))
	if !strategy.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: fmt.Sprintf("unknown strategy: %s", strategy),
			Kind:  "validation",
		})
	}

	log := logger.With("request_id", uuid.NewString(), "model", req.Model, "strategy", string(strategy))

	// The stream outlives this handler; it is pulled by the connection's
	// body writer below, not by the request context. The derived context is
	// cancelled when the writer returns so an abandoned stream releases its
	// producers and the upstream connection.
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := h.cache.Invoker().CompleteStream(ctx, req.Model, req.Prompt, strategy)
	if err != nil {
		cancel()
		status, kind := classify(err)
		log.Error("stream setup failed", "kind", kind, "error", err)
		return c.Status(status).JSON(ErrorResponse{Error: err.Error(), Kind: kind})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		fragments := 0
		for frag := range stream.Fragments() {
			if frag.Err != nil {
				_, kind := classify(frag.Err)
				log.Error("stream failed mid-flight", "fragments", fragments, "kind", kind, "error", frag.Err)
				_ = writeSSE(w, "error", streamEvent{Err: frag.Err.Error()})
				return
			}
			fragments++
			if err := writeSSE(w, "fragment", streamEvent{Text: frag.Text}); err != nil {
				// Consumer went away; stop pulling.
				log.Debug("stream consumer disconnected", "fragments", fragments)
				return
			}
		}
		log.Info("stream finished", "fragments", fragments)
		_ = writeSSE(w, "done", streamEvent{})
	}))

	return nil
}

// writeSSE emits one server-sent event and flushes it to the consumer.
func writeSSE(w *bufio.Writer, event string, data streamEvent) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}

// classify maps the error taxonomy to an HTTP status and a banner kind.
func classify(err error) (int, string) {
	var connErr *session.ConnectionError
	if errors.As(err, &connErr) {
		return fiber.StatusBadGateway, "connection"
	}
	if _, ok := llm.AsInvocationError(err); ok {
		return fiber.StatusBadGateway, "invocation"
	}
	if _, ok := llm.AsDecodeError(err); ok {
		return fiber.StatusBadGateway, "decode"
	}
	return fiber.StatusInternalServerError, "internal"
}
