package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid indica si el rol es uno de los tres roles conocidos.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message es un turno de la conversacion. Solo Content cambia, y solo en el
// ultimo mensaje del asistente mientras hay un stream activo.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage crea un mensaje con id y timestamp nuevos.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// ChatMessage es la forma de un mensaje en el cable: solo rol y contenido.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest es el body JSON que el cliente envia al proxy.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Model    string        `json:"model,omitempty"`
}

// APIError es el body JSON de cualquier respuesta no-2xx del proxy.
type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ToChatMessages quita ids y timestamps de la historia.
func ToChatMessages(msgs []Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// Validate revisa que el request tenga al menos un mensaje con rol valido.
func (r ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return ErrEmptyConversation
	}
	for _, m := range r.Messages {
		if !m.Role.Valid() {
			return ErrInvalidRole
		}
		if strings.TrimSpace(m.Content) == "" && m.Role == RoleUser {
			return ErrEmptyMessage
		}
	}
	return nil
}
