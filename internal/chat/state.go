package chat

import "streamchat/internal/domain"

// State es un snapshot inmutable de la conversacion. Messages nunca se
// modifica en sitio: toda accion que cambia mensajes crea un slice nuevo.
type State struct {
	Messages  []domain.Message
	IsLoading bool
	Error     string
	Model     domain.ModelType
}

// InitialState es el estado al arrancar, antes de hidratar desde storage.
func InitialState() State {
	return State{
		Messages: []domain.Message{},
		Model:    domain.DefaultModel,
	}
}

// LastMessage devuelve el ultimo mensaje, si hay.
func (s State) LastMessage() (domain.Message, bool) {
	if len(s.Messages) == 0 {
		return domain.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// History devuelve la conversacion sin ids ni timestamps.
func (s State) History() []domain.ChatMessage {
	return domain.ToChatMessages(s.Messages)
}

// MessagesChanged compara dos snapshots por identidad del slice.
func MessagesChanged(prev, next State) bool {
	if len(prev.Messages) != len(next.Messages) {
		return true
	}
	if len(prev.Messages) == 0 {
		return false
	}
	return &prev.Messages[0] != &next.Messages[0]
}

// Action es una transicion del store. Todas son totales.
type Action interface {
	apply(State) State
}

// Apply devuelve el estado resultante de aplicar action sobre state.
func Apply(state State, action Action) State {
	if action == nil {
		return state
	}
	return action.apply(state)
}

type AppendMessage struct {
	Message domain.Message
}

func (a AppendMessage) apply(s State) State {
	msgs := make([]domain.Message, len(s.Messages), len(s.Messages)+1)
	copy(msgs, s.Messages)
	s.Messages = append(msgs, a.Message)
	s.Error = ""
	return s
}

// PatchLastMessageContent reemplaza el contenido completo del ultimo mensaje.
type PatchLastMessageContent struct {
	Content string
}

func (a PatchLastMessageContent) apply(s State) State {
	if len(s.Messages) == 0 {
		return s
	}
	msgs := make([]domain.Message, len(s.Messages))
	copy(msgs, s.Messages)
	msgs[len(msgs)-1].Content = a.Content
	s.Messages = msgs
	return s
}

type SetLoading struct {
	Loading bool
}

func (a SetLoading) apply(s State) State {
	s.IsLoading = a.Loading
	return s
}

// SetError fija (o limpia, con Message vacio) el error visible y siempre
// apaga IsLoading.
type SetError struct {
	Message string
}

func (a SetError) apply(s State) State {
	s.Error = a.Message
	s.IsLoading = false
	return s
}

type SetModel struct {
	Model domain.ModelType
}

func (a SetModel) apply(s State) State {
	s.Model = a.Model
	return s
}

type ClearAll struct{}

func (ClearAll) apply(s State) State {
	s.Messages = []domain.Message{}
	s.Error = ""
	return s
}

type ReplaceMessages struct {
	Messages []domain.Message
}

func (a ReplaceMessages) apply(s State) State {
	msgs := make([]domain.Message, len(a.Messages))
	copy(msgs, a.Messages)
	s.Messages = msgs
	return s
}
