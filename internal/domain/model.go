package domain

import "errors"

type ModelType string

const (
	ModelGPT4o      ModelType = "gpt-4o"
	ModelGPT35Turbo ModelType = "gpt-3.5-turbo"
	DefaultModel              = ModelGPT4o
)

// ModelInfo describe un modelo seleccionable en el cliente.
type ModelInfo struct {
	ID          ModelType
	Name        string
	Description string
	MaxTokens   int
}

// Models es el catalogo permitido, en el orden en que se muestra.
var Models = []ModelInfo{
	{
		ID:          ModelGPT4o,
		Name:        "GPT-4o",
		Description: "Most capable model, best for complex tasks",
		MaxTokens:   4096,
	},
	{
		ID:          ModelGPT35Turbo,
		Name:        "GPT-3.5 Turbo",
		Description: "Fast and efficient, good for most tasks",
		MaxTokens:   4096,
	},
}

var (
	ErrEmptyConversation = errors.New("conversation has no messages")
	ErrInvalidRole       = errors.New("message has invalid role")
	ErrEmptyMessage      = errors.New("user message is empty")
)

// LookupModel busca un modelo del catalogo por id.
func LookupModel(id string) (ModelInfo, bool) {
	for _, m := range Models {
		if string(m.ID) == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// NormalizeModel devuelve el modelo si esta permitido, o DefaultModel si no.
func NormalizeModel(id string) ModelType {
	if m, ok := LookupModel(id); ok {
		return m.ID
	}
	return DefaultModel
}
