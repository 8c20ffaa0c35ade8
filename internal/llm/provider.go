package llm

import (
	"context"

	"streamchat/internal/domain"
)

// StreamRequest es lo que el proxy le pide al proveedor upstream.
type StreamRequest struct {
	Model        string
	SystemPrompt string
	Messages     []domain.ChatMessage
	MaxTokens    int
	Temperature  float64
}

// ChunkFunc recibe cada fragmento de texto en orden. Si devuelve error el
// stream se corta y StreamChat devuelve ese error.
type ChunkFunc func(text string) error

// LLMClient define la interfaz para generar respuestas en streaming con un LLM.
type LLMClient interface {
	StreamChat(ctx context.Context, req StreamRequest, onChunk ChunkFunc) error
}
