package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Chunks []string
	// Err se devuelve despues de emitir ErrAfter chunks.
	Err      error
	ErrAfter int

	LastRequest StreamRequest
}

func (m *MockClient) StreamChat(ctx context.Context, req StreamRequest, onChunk ChunkFunc) error {
	m.LastRequest = req
	for i, chunk := range m.Chunks {
		if m.Err != nil && i == m.ErrAfter {
			return m.Err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
	}
	return m.Err
}
