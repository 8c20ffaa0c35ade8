package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"streamchat/internal/domain"
	"streamchat/internal/llm"
)

var (
	ErrChatServiceNotConfigured = errors.New("chat service not configured")
	ErrChatInvalidRequest       = errors.New("chat invalid request")
)

// ChatSettings son los parametros fijos que el proxy agrega a cada request.
type ChatSettings struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// ChatService reenvia la conversacion al proveedor y devuelve su stream.
type ChatService struct {
	llmClient llm.LLMClient
	settings  ChatSettings
	logger    *zap.Logger
}

func NewChatService(llmClient llm.LLMClient, settings ChatSettings, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		llmClient: llmClient,
		settings:  settings,
		logger:    logger,
	}
}

// Stream valida el request, fija el modelo a la allow-list y emite cada
// fragmento del proveedor a onChunk.
func (s *ChatService) Stream(ctx context.Context, req domain.ChatRequest, onChunk llm.ChunkFunc) error {
	if s == nil || s.llmClient == nil {
		return ErrChatServiceNotConfigured
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrChatInvalidRequest, err)
	}

	model := domain.NormalizeModel(req.Model)
	if string(model) != req.Model {
		s.logger.Info("model not allowed, using default",
			zap.String("requested", req.Model),
			zap.String("model", string(model)),
		)
	}

	return s.llmClient.StreamChat(ctx, llm.StreamRequest{
		Model:        string(model),
		SystemPrompt: s.settings.SystemPrompt,
		Messages:     req.Messages,
		MaxTokens:    s.settings.MaxTokens,
		Temperature:  s.settings.Temperature,
	}, onChunk)
}
