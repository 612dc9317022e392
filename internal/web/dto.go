package web

import (
	"github.com/jmylchreest/promptdeck/internal/completion"
)

// CompleteRequest is the HTTP request DTO for both completion paths.
type CompleteRequest struct {
	Model  string `json:"model" validate:"required"`
	Prompt string `json:"prompt" validate:"required"`
}

// CompleteResponse is the blocking path's HTTP response DTO.
type CompleteResponse struct {
	Result    completion.Result `json:"result"`
	ElapsedMS int64             `json:"elapsed_ms"`
	Cached    bool              `json:"cached"`
}

// ModelsResponse enumerates the model identifiers offered to the user.
type ModelsResponse struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
}

// ErrorResponse is the error banner payload. Kind mirrors the error
// taxonomy so the UI can phrase the banner; the UI stays reusable after it.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// streamEvent is the SSE data payload for one fragment.
type streamEvent struct {
	Text string `json:"text,omitempty"`
	Err  string `json:"error,omitempty"`
}
