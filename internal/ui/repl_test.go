package ui

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"streamchat/internal/chat"
	"streamchat/internal/domain"
)

type fakeController struct {
	sent     []string
	retries  int
	stops    int
	clears   int
	models   []domain.ModelType
	inFlight bool
	retryErr error
}

func (f *fakeController) Send(text string) (*chat.Request, error) {
	if strings.TrimSpace(text) == "" {
		return nil, chat.ErrEmptyInput
	}
	f.sent = append(f.sent, text)
	return nil, nil
}

func (f *fakeController) Retry() (*chat.Request, error) {
	f.retries++
	return nil, f.retryErr
}

func (f *fakeController) Stop()  { f.stops++ }
func (f *fakeController) Clear() { f.clears++ }

func (f *fakeController) SetModel(model domain.ModelType) {
	f.models = append(f.models, model)
}

func (f *fakeController) InFlight() bool { return f.inFlight }

type stubTransport struct {
	reply string
}

func (s stubTransport) Stream(context.Context, domain.ChatRequest) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.reply)), nil
}

func newTestREPL(ctrl Controller) (*REPL, *bytes.Buffer) {
	var out bytes.Buffer
	store := chat.NewStore(chat.InitialState())
	return NewREPL(ctrl, store, NewConsole(&out, 80)), &out
}

func TestREPLHandleCommands(t *testing.T) {
	ctrl := &fakeController{}
	repl, out := newTestREPL(ctrl)

	if repl.Handle("   ") {
		t.Fatalf("blank line must not quit")
	}
	repl.Handle("hello there")
	repl.Handle("/stop")
	repl.Handle("/clear")
	repl.Handle("/model gpt-3.5-turbo")
	repl.Handle("/model gpt-99")
	repl.Handle("/bogus")

	if len(ctrl.sent) != 1 || ctrl.sent[0] != "hello there" {
		t.Fatalf("unexpected sends %v", ctrl.sent)
	}
	if ctrl.stops != 1 || ctrl.clears != 1 {
		t.Fatalf("expected one stop and one clear, got %d %d", ctrl.stops, ctrl.clears)
	}
	if len(ctrl.models) != 1 || ctrl.models[0] != domain.ModelGPT35Turbo {
		t.Fatalf("unexpected model changes %v", ctrl.models)
	}
	for _, want := range []string{"conversation cleared", `unknown model "gpt-99"`, "unknown command /bogus"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, out.String())
		}
	}
	if !repl.Handle("/QUIT") {
		t.Fatalf("expected /quit to exit")
	}
}

func TestREPLRetryWithoutHistory(t *testing.T) {
	ctrl := &fakeController{retryErr: chat.ErrNothingToRetry}
	repl, out := newTestREPL(ctrl)

	repl.Handle("/retry")
	if ctrl.retries != 1 || !strings.Contains(out.String(), "nothing to retry") {
		t.Fatalf("unexpected retry handling: %d %q", ctrl.retries, out.String())
	}
}

func TestREPLModelListMarksCurrent(t *testing.T) {
	repl, out := newTestREPL(&fakeController{})
	repl.Handle("/model")
	if !strings.Contains(out.String(), "* gpt-4o") {
		t.Fatalf("expected current model marked:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "GPT-3.5 Turbo") {
		t.Fatalf("expected catalog listing:\n%s", out.String())
	}
}

func TestREPLRunStreamsReplyBeforeEOF(t *testing.T) {
	var out bytes.Buffer
	store := chat.NewStore(chat.InitialState())
	console := NewConsole(&out, 80)
	store.Subscribe(console.OnChange)
	ctrl := chat.NewController(store, stubTransport{reply: "Hello!"}, zap.NewNop())

	repl := NewREPL(ctrl, store, console)
	done := make(chan error, 1)
	go func() {
		done <- repl.Run(context.Background(), strings.NewReader("Hi\n"), make(chan os.Signal))
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("repl did not finish")
	}

	if !strings.Contains(out.String(), "Hello!") {
		t.Fatalf("expected streamed reply in output:\n%s", out.String())
	}
	msgs := store.State().Messages
	if len(msgs) != 2 || msgs[1].Content != "Hello!" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}

func TestREPLRunInterruptWhileIdleExits(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repl, _ := newTestREPL(&fakeController{})
	interrupts := make(chan os.Signal, 1)
	interrupts <- os.Interrupt

	pr, pw := io.Pipe()
	defer pw.Close()

	if err := repl.Run(context.Background(), pr, interrupts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Una linea que llega despues de salir no debe dejar al lector colgado.
	if _, err := io.WriteString(pw, "late line\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// heldBody entrega "Hel" y espera la cancelacion.
type heldBody struct {
	ctx  context.Context
	sent bool
}

func (b *heldBody) Read(p []byte) (int, error) {
	if !b.sent {
		b.sent = true
		return copy(p, "Hel"), nil
	}
	<-b.ctx.Done()
	return 0, b.ctx.Err()
}

func (b *heldBody) Close() error { return nil }

type heldTransport struct{}

func (heldTransport) Stream(ctx context.Context, _ domain.ChatRequest) (io.ReadCloser, error) {
	return &heldBody{ctx: ctx}, nil
}

func TestREPLRunPrintsOnePromptAfterEndingStream(t *testing.T) {
	for _, cmd := range []string{"/stop", "/clear"} {
		t.Run(cmd, func(t *testing.T) {
			var out bytes.Buffer
			store := chat.NewStore(chat.InitialState())
			console := NewConsole(&out, 80)
			store.Subscribe(console.OnChange)
			ctrl := chat.NewController(store, heldTransport{}, zap.NewNop())
			repl := NewREPL(ctrl, store, console)

			pr, pw := io.Pipe()
			done := make(chan error, 1)
			go func() {
				done <- repl.Run(context.Background(), pr, make(chan os.Signal))
			}()

			if _, err := io.WriteString(pw, "Hi\n"); err != nil {
				t.Fatalf("write: %v", err)
			}
			deadline := time.Now().Add(2 * time.Second)
			for {
				if last, _ := store.State().LastMessage(); last.Content == "Hel" {
					break
				}
				if time.Now().After(deadline) {
					t.Fatalf("stream did not start")
				}
				time.Sleep(5 * time.Millisecond)
			}

			if _, err := io.WriteString(pw, cmd+"\n"); err != nil {
				t.Fatalf("write: %v", err)
			}
			pw.Close()

			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("repl did not finish")
			}

			// Uno al arrancar y uno al terminar el stream.
			if got := strings.Count(out.String(), "you"); got != 2 {
				t.Fatalf("expected 2 prompts, got %d:\n%q", got, out.String())
			}
			if store.State().IsLoading {
				t.Fatalf("expected loading off after %s", cmd)
			}
		})
	}
}

func TestREPLRunInterruptWhileStreamingStops(t *testing.T) {
	ctrl := &fakeController{inFlight: true}
	repl, _ := newTestREPL(ctrl)

	interrupts := make(chan os.Signal, 1)
	interrupts <- os.Interrupt
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	pr, pw := io.Pipe()
	defer pw.Close()

	_ = repl.Run(ctx, pr, interrupts)
	if ctrl.stops < 1 {
		t.Fatalf("expected interrupt to stop the stream")
	}
}
