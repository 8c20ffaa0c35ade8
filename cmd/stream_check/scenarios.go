package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"streamchat/internal/chat"
	"streamchat/internal/domain"
)

// Scenario es un envio contra el proxy y la verificacion de su resultado.
type Scenario struct {
	Name  string
	Input string
	Model domain.ModelType
	// StopAfter corta el stream cuando la respuesta llega a esa cantidad de
	// bytes. Cero deja terminar.
	StopAfter int
	Check     func(state chat.State, err error) error
}

// Result resume una corrida.
type Result struct {
	Scenario string
	State    chat.State
	Err      error
	Failure  error
	Elapsed  time.Duration
}

func (r Result) Passed() bool {
	return r.Failure == nil
}

func defaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:  "complete reply",
			Input: "Reply with one short greeting.",
			Check: expectCompleteReply,
		},
		{
			Name:  "fast model",
			Input: "Reply with the word ok.",
			Model: domain.ModelGPT35Turbo,
			Check: expectCompleteReply,
		},
		{
			Name:      "stop mid-stream",
			Input:     "Count slowly from one to fifty, one number per line.",
			StopAfter: 1,
			Check:     expectStopped,
		},
	}
}

func expectCompleteReply(state chat.State, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if state.Error != "" {
		return fmt.Errorf("error banner set: %s", state.Error)
	}
	if state.IsLoading {
		return errors.New("still loading after completion")
	}
	last, ok := state.LastMessage()
	if !ok || last.Role != domain.RoleAssistant {
		return errors.New("no assistant message")
	}
	if strings.TrimSpace(last.Content) == "" || last.Content == chat.FallbackReply {
		return fmt.Errorf("unexpected reply %q", last.Content)
	}
	return nil
}

func expectStopped(state chat.State, err error) error {
	if !errors.Is(err, chat.ErrAborted) {
		return fmt.Errorf("expected abort, got %v", err)
	}
	if state.Error != "" {
		return fmt.Errorf("stop must not set an error, got %q", state.Error)
	}
	if state.IsLoading {
		return errors.New("still loading after stop")
	}
	last, _ := state.LastMessage()
	if last.Content == chat.FallbackReply {
		return errors.New("partial reply replaced by fallback")
	}
	return nil
}

// runScenario arma un store y un controller nuevos por escenario, asi las
// corridas no comparten historial.
func runScenario(ctx context.Context, transport chat.Transport, sc Scenario, timeout time.Duration, logger *zap.Logger) Result {
	start := time.Now()
	res := Result{Scenario: sc.Name}

	store := chat.NewStore(chat.InitialState())
	ctrl := chat.NewController(store, transport, logger)
	if sc.Model != "" {
		ctrl.SetModel(sc.Model)
	}

	var stopOnce bool
	if sc.StopAfter > 0 {
		unsubscribe := store.Subscribe(func(_, next chat.State) {
			last, ok := next.LastMessage()
			if stopOnce || !ok || last.Role != domain.RoleAssistant || len(last.Content) < sc.StopAfter {
				return
			}
			stopOnce = true
			go ctrl.Stop()
		})
		defer unsubscribe()
	}

	req, err := ctrl.Send(sc.Input)
	if err != nil {
		res.Err = err
		res.Failure = sc.Check(store.State(), err)
		res.Elapsed = time.Since(start)
		return res
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-req.Done():
		res.Err = req.Err()
	case <-timer.C:
		ctrl.Stop()
		<-req.Done()
		res.Failure = fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		ctrl.Stop()
		<-req.Done()
		res.Failure = ctx.Err()
	}

	res.State = store.State()
	res.Elapsed = time.Since(start)
	if res.Failure == nil {
		res.Failure = sc.Check(res.State, res.Err)
	}
	return res
}
