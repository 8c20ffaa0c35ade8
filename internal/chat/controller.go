package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"streamchat/internal/domain"
)

const defaultReadSize = 4096

// Request es el handle de cancelacion de un envio. El Controller lo posee
// hasta que termina; Cancel equivale a Stop si sigue siendo el actual.
type Request struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel dispara la cancelacion cooperativa del request.
func (r *Request) Cancel() {
	r.cancel()
}

// Done se cierra cuando el request termino de escribir en el store.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Err devuelve el resultado final: nil, ErrAborted o un *RequestError.
// Solo es valido despues de que Done se cierra.
func (r *Request) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Controller maneja el ciclo de vida de a lo sumo un request de generacion
// a la vez y traduce el stream en acciones del Store.
type Controller struct {
	store     *Store
	transport Transport
	logger    *zap.Logger
	readSize  int

	mu      sync.Mutex
	current *Request
}

func NewController(store *Store, transport Transport, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:     store,
		transport: transport,
		logger:    logger,
		readSize:  defaultReadSize,
	}
}

// Send agrega el mensaje del usuario y un placeholder del asistente, cancela
// cualquier request previo y arranca el stream en background.
func (c *Controller) Send(text string) (*Request, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.logger.Debug("superseding in-flight request")
		c.current.cancel()
		c.current = nil
	}

	userMsg := domain.NewMessage(domain.RoleUser, content)
	placeholder := domain.NewMessage(domain.RoleAssistant, "")

	prev := c.store.State()
	history := append(prev.History(), domain.ChatMessage{Role: userMsg.Role, Content: userMsg.Content})
	payload := domain.ChatRequest{Messages: history, Model: string(prev.Model)}

	c.store.Dispatch(
		AppendMessage{Message: userMsg},
		AppendMessage{Message: placeholder},
		SetLoading{Loading: true},
	)

	ctx, cancel := context.WithCancel(context.Background())
	req := &Request{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.current = req

	c.logger.Info("chat request started",
		zap.String("model", payload.Model),
		zap.Int("history", len(payload.Messages)),
	)
	go c.run(req, payload)
	return req, nil
}

// Retry reenvia el ultimo mensaje del usuario.
func (c *Controller) Retry() (*Request, error) {
	msgs := c.store.State().Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			return c.Send(msgs[i].Content)
		}
	}
	return nil, ErrNothingToRetry
}

// Stop cancela el request en curso y apaga IsLoading en el acto. El
// contenido parcial queda como esta.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.cancel()
		c.current = nil
		c.logger.Info("chat request stopped by user")
	}
	if c.store.State().IsLoading {
		c.store.Dispatch(SetLoading{Loading: false})
	}
}

// Clear vacia la conversacion. Un stream en curso se cancela antes, asi no
// escribe sobre la lista recien vaciada.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	actions := []Action{ClearAll{}}
	if c.current != nil {
		c.current.cancel()
		c.current = nil
		actions = append(actions, SetLoading{Loading: false})
	}
	c.store.Dispatch(actions...)
}

// SetModel cambia el modelo de los proximos envios.
func (c *Controller) SetModel(model domain.ModelType) {
	c.store.Dispatch(SetModel{Model: domain.NormalizeModel(string(model))})
}

// InFlight reporta si hay un request sin terminar.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

func (c *Controller) run(req *Request, payload domain.ChatRequest) {
	err := c.stream(req, payload)

	switch {
	case err == nil:
		c.settle(req, SetLoading{Loading: false})
		c.logger.Info("chat request completed")
	case errors.Is(err, ErrAborted):
		c.settle(req, SetLoading{Loading: false})
		c.logger.Debug("chat request aborted")
	default:
		c.logger.Warn("chat request failed", zap.Error(err), zap.Stringer("kind", kindOf(err)))
		c.settle(req,
			SetError{Message: userMessage(err)},
			PatchLastMessageContent{Content: FallbackReply},
			SetLoading{Loading: false},
		)
	}

	req.cancel()
	req.err = err
	close(req.done)
}

func (c *Controller) stream(req *Request, payload domain.ChatRequest) error {
	body, err := c.transport.Stream(req.ctx, payload)
	if err != nil {
		if req.ctx.Err() != nil {
			return ErrAborted
		}
		return err
	}
	if body == nil {
		return &RequestError{Kind: KindMalformedStream, Message: "No response body"}
	}
	defer body.Close()

	var (
		dec  utf8Decoder
		acc  strings.Builder
		buf  = make([]byte, c.readSize)
		emit = func(text string) error {
			if text == "" {
				return nil
			}
			acc.WriteString(text)
			if !c.dispatchIfCurrent(req, PatchLastMessageContent{Content: acc.String()}) {
				return ErrAborted
			}
			return nil
		}
	)

	for {
		if req.ctx.Err() != nil {
			return ErrAborted
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if err := emit(dec.Decode(buf[:n])); err != nil {
				return err
			}
		}

		if readErr == io.EOF {
			if err := emit(dec.Flush()); err != nil {
				return err
			}
			// Un body que ignora ctx puede cerrar limpio despues de Stop.
			if req.ctx.Err() != nil {
				return ErrAborted
			}
			return nil
		}
		if readErr != nil {
			if req.ctx.Err() != nil {
				return ErrAborted
			}
			return &RequestError{Kind: KindMalformedStream, Message: "failed to read response", Err: readErr}
		}
	}
}

// dispatchIfCurrent escribe en el store solo si req sigue siendo el request
// actual. Un request reemplazado o detenido no vuelve a tocar el estado.
func (c *Controller) dispatchIfCurrent(req *Request, actions ...Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != req {
		return false
	}
	c.store.Dispatch(actions...)
	return true
}

func (c *Controller) settle(req *Request, actions ...Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != req {
		return
	}
	c.store.Dispatch(actions...)
	c.current = nil
}

func kindOf(err error) ErrorKind {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}
	return KindUnknown
}
