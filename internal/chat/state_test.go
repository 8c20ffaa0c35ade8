package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamchat/internal/domain"
)

func TestApplyAppendPreservesOrderAndUniqueIDs(t *testing.T) {
	state := InitialState()
	var want []string
	for i := 0; i < 20; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		msg := domain.NewMessage(role, fmt.Sprintf("m%d", i))
		want = append(want, msg.ID)
		state = Apply(state, AppendMessage{Message: msg})
	}

	require.Len(t, state.Messages, 20)
	seen := map[string]bool{}
	for i, m := range state.Messages {
		assert.Equal(t, want[i], m.ID)
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Content)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
}

func TestApplyAppendClearsError(t *testing.T) {
	state := Apply(InitialState(), SetError{Message: "boom"})
	require.Equal(t, "boom", state.Error)

	state = Apply(state, AppendMessage{Message: domain.NewMessage(domain.RoleUser, "hi")})
	assert.Empty(t, state.Error)
}

func TestApplyPatchOnlyTouchesLastMessage(t *testing.T) {
	first := domain.NewMessage(domain.RoleUser, "hello")
	second := domain.NewMessage(domain.RoleAssistant, "")
	state := Apply(Apply(InitialState(), AppendMessage{Message: first}), AppendMessage{Message: second})

	state = Apply(state, PatchLastMessageContent{Content: "x"})
	state = Apply(state, PatchLastMessageContent{Content: "y"})

	require.Len(t, state.Messages, 2)
	assert.Equal(t, first, state.Messages[0])
	assert.Equal(t, "y", state.Messages[1].Content)
	assert.Equal(t, second.ID, state.Messages[1].ID)
	assert.Equal(t, second.Timestamp, state.Messages[1].Timestamp)
}

func TestApplyPatchOnEmptyIsNoop(t *testing.T) {
	state := InitialState()
	next := Apply(state, PatchLastMessageContent{Content: "x"})
	assert.Empty(t, next.Messages)
	assert.False(t, MessagesChanged(state, next))
}

func TestApplyDoesNotMutatePreviousSnapshot(t *testing.T) {
	msg := domain.NewMessage(domain.RoleAssistant, "before")
	prev := Apply(InitialState(), AppendMessage{Message: msg})

	next := Apply(prev, PatchLastMessageContent{Content: "after"})

	assert.Equal(t, "before", prev.Messages[0].Content)
	assert.Equal(t, "after", next.Messages[0].Content)
	assert.True(t, MessagesChanged(prev, next))
}

func TestApplySetErrorForcesLoadingOff(t *testing.T) {
	for _, loading := range []bool{true, false} {
		state := Apply(InitialState(), SetLoading{Loading: loading})
		state = Apply(state, SetError{Message: "bad"})
		assert.False(t, state.IsLoading)
		assert.Equal(t, "bad", state.Error)
	}

	cleared := Apply(Apply(InitialState(), SetLoading{Loading: true}), SetError{})
	assert.False(t, cleared.IsLoading)
	assert.Empty(t, cleared.Error)
}

func TestApplyClearAllKeepsLoadingAndModel(t *testing.T) {
	state := InitialState()
	state = Apply(state, AppendMessage{Message: domain.NewMessage(domain.RoleUser, "a")})
	state = Apply(state, SetModel{Model: domain.ModelGPT35Turbo})
	state = Apply(state, SetLoading{Loading: true})
	state.Error = "old"

	state = Apply(state, ClearAll{})

	assert.Empty(t, state.Messages)
	assert.NotNil(t, state.Messages)
	assert.Empty(t, state.Error)
	assert.True(t, state.IsLoading)
	assert.Equal(t, domain.ModelGPT35Turbo, state.Model)
}

func TestApplyReplaceMessagesCopiesInput(t *testing.T) {
	input := []domain.Message{domain.NewMessage(domain.RoleUser, "a")}
	state := Apply(InitialState(), ReplaceMessages{Messages: input})

	input[0].Content = "mutated"
	assert.Equal(t, "a", state.Messages[0].Content)
}

func TestApplyNilActionReturnsSameState(t *testing.T) {
	state := Apply(InitialState(), SetModel{Model: domain.ModelGPT35Turbo})
	assert.Equal(t, state, Apply(state, nil))
}

func TestMessagesChangedIgnoresNonMessageActions(t *testing.T) {
	prev := Apply(InitialState(), AppendMessage{Message: domain.NewMessage(domain.RoleUser, "a")})
	next := Apply(prev, SetLoading{Loading: true})
	next = Apply(next, SetModel{Model: domain.ModelGPT35Turbo})
	assert.False(t, MessagesChanged(prev, next))
}

func TestStateHistoryStripsIDsAndTimestamps(t *testing.T) {
	state := InitialState()
	state = Apply(state, AppendMessage{Message: domain.NewMessage(domain.RoleUser, "q")})
	state = Apply(state, AppendMessage{Message: domain.NewMessage(domain.RoleAssistant, "a")})

	assert.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "q"},
		{Role: domain.RoleAssistant, Content: "a"},
	}, state.History())

	last, ok := state.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "a", last.Content)
}
