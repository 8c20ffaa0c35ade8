package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"streamchat/internal/domain"
)

const (
	MessagesKey = "chat-messages"
	ModelKey    = "chat-model"
)

// ConversationRepository persiste la conversacion local sobre un KVStore.
// Nunca devuelve error: ausencia o corrupcion caen a defaults y los fallos
// de escritura se loguean y se descartan.
type ConversationRepository struct {
	kv      KVStore
	logger  *zap.Logger
	timeout time.Duration
}

func NewConversationRepository(kv KVStore, logger *zap.Logger) *ConversationRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationRepository{
		kv:      kv,
		logger:  logger,
		timeout: 2 * time.Second,
	}
}

// LoadMessages devuelve los mensajes guardados, o una lista vacia.
// Entradas con rol invalido o id repetido se descartan.
func (r *ConversationRepository) LoadMessages(ctx context.Context) []domain.Message {
	var stored []domain.Message
	if !r.load(ctx, MessagesKey, &stored) {
		return []domain.Message{}
	}

	out := make([]domain.Message, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	for _, m := range stored {
		if m.ID == "" || !m.Role.Valid() {
			r.logger.Warn("dropping invalid stored message", zap.String("id", m.ID), zap.String("role", string(m.Role)))
			continue
		}
		if _, dup := seen[m.ID]; dup {
			r.logger.Warn("dropping duplicate stored message", zap.String("id", m.ID))
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// LoadModel devuelve el modelo guardado, o domain.DefaultModel.
func (r *ConversationRepository) LoadModel(ctx context.Context) domain.ModelType {
	var stored string
	if !r.load(ctx, ModelKey, &stored) {
		return domain.DefaultModel
	}
	if _, ok := domain.LookupModel(stored); !ok {
		r.logger.Warn("unknown stored model, using default", zap.String("model", stored))
		return domain.DefaultModel
	}
	return domain.ModelType(stored)
}

func (r *ConversationRepository) SaveMessages(ctx context.Context, msgs []domain.Message) {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	r.save(ctx, MessagesKey, msgs)
}

func (r *ConversationRepository) SaveModel(ctx context.Context, model domain.ModelType) {
	r.save(ctx, ModelKey, string(model))
}

// Reset borra ambas claves.
func (r *ConversationRepository) Reset(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	for _, key := range []string{MessagesKey, ModelKey} {
		if err := r.kv.Delete(ctx, key); err != nil {
			r.logger.Warn("persistence delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (r *ConversationRepository) load(ctx context.Context, key string, dst any) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		r.logger.Warn("persistence read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn("persistence entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *ConversationRepository) save(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("persistence encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.kv.Set(ctx, key, raw); err != nil {
		r.logger.Warn("persistence write failed", zap.String("key", key), zap.Error(err))
	}
}
