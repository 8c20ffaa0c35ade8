package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"streamchat/internal/domain"
	"streamchat/internal/service"
)

// ChatHandler expone el endpoint proxy de chat en streaming.
type ChatHandler struct {
	logger   *zap.Logger
	chatServ *service.ChatService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, chatServ *service.ChatService) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		chatServ: chatServ,
	}
}

// StreamChat maneja POST /api/openai/chat. Devuelve el texto del proveedor
// tal cual, sin framing, flusheando en cada fragmento.
func (h *ChatHandler) StreamChat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		failRequest(c, err)
		return
	}

	started := false
	chunks := 0
	err := h.chatServ.Stream(c.Request.Context(), req, func(text string) error {
		if !started {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			started = true
		}
		if _, err := c.Writer.WriteString(text); err != nil {
			return err
		}
		c.Writer.Flush()
		chunks++
		return nil
	})

	if err != nil {
		if started {
			h.logger.Warn("chat stream interrupted", zap.Error(err), zap.Int("chunks", chunks))
			return
		}
		if errors.Is(err, service.ErrChatInvalidRequest) {
			h.logger.Warn("invalid chat request", zap.Error(err))
		} else {
			h.logger.Error("chat api error", zap.Error(err))
		}
		failRequest(c, err)
		return
	}

	if !started {
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Status(http.StatusOK)
	}
	h.logger.Debug("chat stream finished", zap.Int("chunks", chunks))
}

// failRequest responde cualquier fallo previo al primer byte con 500, sea
// body invalido o error del proveedor.
func failRequest(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, domain.APIError{
		Error:   "Failed to process chat request",
		Details: err.Error(),
	})
}

// Health maneja GET /healthz.
func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
