package ui

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"streamchat/internal/chat"
	"streamchat/internal/domain"
)

// Controller son las intenciones del usuario que la REPL reenvia.
type Controller interface {
	Send(text string) (*chat.Request, error)
	Retry() (*chat.Request, error)
	Stop()
	Clear()
	SetModel(model domain.ModelType)
	InFlight() bool
}

// StateReader da acceso al snapshot actual.
type StateReader interface {
	State() chat.State
}

// REPL lee lineas de la terminal y las traduce en acciones.
type REPL struct {
	ctrl    Controller
	state   StateReader
	console *Console

	last *chat.Request
}

func NewREPL(ctrl Controller, state StateReader, console *Console) *REPL {
	return &REPL{ctrl: ctrl, state: state, console: console}
}

const helpText = `commands:
  /stop           stop the current reply
  /clear          clear the conversation
  /retry          send the last message again
  /model [id]     show or change the model
  /history        print the conversation
  /help           show this help
  /quit           exit`

// Handle procesa una linea. Devuelve true si el usuario pidio salir.
func (r *REPL) Handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.send(line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "/quit", "/exit":
		r.ctrl.Stop()
		return true
	case "/stop":
		r.ctrl.Stop()
	case "/clear":
		r.ctrl.Clear()
		r.console.Info("conversation cleared")
	case "/retry":
		req, err := r.ctrl.Retry()
		if errors.Is(err, chat.ErrNothingToRetry) {
			r.console.Info("nothing to retry")
		}
		if req != nil {
			r.last = req
		}
	case "/model":
		if arg == "" {
			r.console.Models(r.state.State().Model)
			return false
		}
		if _, ok := domain.LookupModel(arg); !ok {
			r.console.Info("unknown model %q", arg)
			r.console.Models(r.state.State().Model)
			return false
		}
		if r.ctrl.InFlight() {
			r.console.Info("model change applies to the next message")
		}
		r.ctrl.SetModel(domain.ModelType(arg))
	case "/history":
		r.console.Transcript(r.state.State().Messages)
	case "/help":
		r.console.Info(helpText)
	default:
		r.console.Info("unknown command %s, try /help", cmd)
	}
	return false
}

func (r *REPL) send(text string) {
	req, err := r.ctrl.Send(text)
	if err != nil {
		if !errors.Is(err, chat.ErrEmptyInput) {
			r.console.Info("send failed: %v", err)
		}
		return
	}
	r.last = req
}

// Run lee de in hasta EOF, /quit o ctx cancelado. Una interrupcion detiene
// el stream en curso; si no hay stream, termina. Cuando una linea termina
// un stream (/stop, /clear) el prompt lo imprime la consola en la
// transicion de loading, no Run.
func (r *REPL) Run(ctx context.Context, in io.Reader, interrupts <-chan os.Signal) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	r.console.Prompt()
	for {
		select {
		case <-ctx.Done():
			r.ctrl.Stop()
			return ctx.Err()
		case <-interrupts:
			if r.ctrl.InFlight() {
				r.ctrl.Stop()
				continue
			}
			return nil
		case err := <-readErr:
			// Con la entrada cerrada, se deja terminar la ultima respuesta.
			if r.last != nil && r.ctrl.InFlight() {
				select {
				case <-r.last.Done():
				case <-ctx.Done():
				case <-interrupts:
				}
			}
			r.ctrl.Stop()
			return err
		case line := <-lines:
			wasLoading := r.state.State().IsLoading
			if r.Handle(line) {
				return nil
			}
			if !wasLoading && !r.ctrl.InFlight() {
				r.console.Prompt()
			}
		}
	}
}
