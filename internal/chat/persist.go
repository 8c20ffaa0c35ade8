package chat

import (
	"context"

	"streamchat/internal/domain"
)

// Persister guarda el estado durable. Las implementaciones nunca devuelven
// error: los fallos se loguean y se descartan.
type Persister interface {
	SaveMessages(ctx context.Context, msgs []domain.Message)
	SaveModel(ctx context.Context, model domain.ModelType)
}

// Loader hidrata el estado al arrancar, con defaults ante ausencia o corrupcion.
type Loader interface {
	LoadMessages(ctx context.Context) []domain.Message
	LoadModel(ctx context.Context) domain.ModelType
}

// Hydrate carga mensajes y modelo guardados en el store.
func Hydrate(ctx context.Context, store *Store, loader Loader) State {
	return store.Dispatch(
		ReplaceMessages{Messages: loader.LoadMessages(ctx)},
		SetModel{Model: loader.LoadModel(ctx)},
	)
}

// Mirror suscribe p al store y persiste cada cambio de mensajes o modelo.
func Mirror(store *Store, p Persister) func() {
	return store.Subscribe(func(prev, next State) {
		ctx := context.Background()
		if MessagesChanged(prev, next) {
			p.SaveMessages(ctx, next.Messages)
		}
		if prev.Model != next.Model {
			p.SaveModel(ctx, next.Model)
		}
	})
}
