package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"streamchat/internal/domain"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingKV) Set(context.Context, string, []byte) error { return errors.New("quota exceeded") }
func (failingKV) Delete(context.Context, string) error { return errors.New("disk gone") }

func TestConversationRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(NewMemoryKV(), zap.NewNop())

	ts := time.Date(2024, 3, 9, 15, 4, 5, 123456789, time.UTC)
	msgs := []domain.Message{
		{ID: "a", Role: domain.RoleUser, Content: "hola", Timestamp: ts},
		{ID: "b", Role: domain.RoleAssistant, Content: "¿qué tal? 🚀", Timestamp: ts.Add(time.Second)},
	}
	repo.SaveMessages(ctx, msgs)
	repo.SaveModel(ctx, domain.ModelGPT35Turbo)

	got := repo.LoadMessages(ctx)
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	for i := range msgs {
		if got[i].ID != msgs[i].ID || got[i].Role != msgs[i].Role || got[i].Content != msgs[i].Content {
			t.Fatalf("message %d mismatch: %+v vs %+v", i, got[i], msgs[i])
		}
		if !got[i].Timestamp.Equal(msgs[i].Timestamp) {
			t.Fatalf("timestamp %d mismatch: %v vs %v", i, got[i].Timestamp, msgs[i].Timestamp)
		}
	}
	if model := repo.LoadModel(ctx); model != domain.ModelGPT35Turbo {
		t.Fatalf("expected gpt-3.5-turbo, got %s", model)
	}
}

func TestConversationRepositoryDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		repo := NewConversationRepository(NewMemoryKV(), nil)
		msgs := repo.LoadMessages(ctx)
		if msgs == nil || len(msgs) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", msgs)
		}
		if model := repo.LoadModel(ctx); model != domain.DefaultModel {
			t.Fatalf("expected default model, got %s", model)
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		kv := NewMemoryKV()
		_ = kv.Set(ctx, MessagesKey, []byte(`{not json`))
		_ = kv.Set(ctx, ModelKey, []byte(`42`))
		repo := NewConversationRepository(kv, zap.NewNop())
		if msgs := repo.LoadMessages(ctx); len(msgs) != 0 {
			t.Fatalf("expected empty on corruption, got %d", len(msgs))
		}
		if model := repo.LoadModel(ctx); model != domain.DefaultModel {
			t.Fatalf("expected default model, got %s", model)
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		kv := NewMemoryKV()
		_ = kv.Set(ctx, ModelKey, []byte(`"gpt-99"`))
		repo := NewConversationRepository(kv, zap.NewNop())
		if model := repo.LoadModel(ctx); model != domain.DefaultModel {
			t.Fatalf("expected default model, got %s", model)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		repo := NewConversationRepository(failingKV{}, zap.NewNop())
		if msgs := repo.LoadMessages(ctx); len(msgs) != 0 {
			t.Fatalf("expected empty on read failure")
		}
		if model := repo.LoadModel(ctx); model != domain.DefaultModel {
			t.Fatalf("expected default model, got %s", model)
		}
	})
}

func TestConversationRepositoryDropsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	_ = kv.Set(ctx, MessagesKey, []byte(`[
		{"id":"1","role":"user","content":"ok","timestamp":"2024-01-01T00:00:00Z"},
		{"id":"2","role":"robot","content":"bad role","timestamp":"2024-01-01T00:00:00Z"},
		{"id":"","role":"assistant","content":"no id","timestamp":"2024-01-01T00:00:00Z"},
		{"id":"1","role":"assistant","content":"dup","timestamp":"2024-01-01T00:00:00Z"},
		{"id":"3","role":"assistant","content":"fine","timestamp":"2024-01-01T00:00:01Z"}
	]`))

	msgs := NewConversationRepository(kv, zap.NewNop()).LoadMessages(ctx)
	if len(msgs) != 2 || msgs[0].ID != "1" || msgs[1].ID != "3" {
		t.Fatalf("unexpected filtered messages: %+v", msgs)
	}
}

func TestConversationRepositorySwallowsWriteFailures(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(failingKV{}, zap.NewNop())

	repo.SaveMessages(ctx, []domain.Message{domain.NewMessage(domain.RoleUser, "x")})
	repo.SaveModel(ctx, domain.ModelGPT4o)
	repo.Reset(ctx)
}

func TestConversationRepositoryReset(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	repo := NewConversationRepository(kv, zap.NewNop())
	repo.SaveMessages(ctx, nil)
	repo.SaveModel(ctx, domain.ModelGPT35Turbo)

	raw, err := kv.Get(ctx, MessagesKey)
	if err != nil || string(raw) != `[]` {
		t.Fatalf("expected nil messages stored as [], got %q,%v", raw, err)
	}

	repo.Reset(ctx)
	for _, key := range []string{MessagesKey, ModelKey} {
		if _, err := kv.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %s removed, got %v", key, err)
		}
	}
}
