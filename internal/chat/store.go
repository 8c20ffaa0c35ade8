package chat

import (
	"sync"

	"streamchat/internal/domain"
)

// Listener recibe el snapshot anterior y el nuevo despues de cada Dispatch.
type Listener func(prev, next State)

// Store guarda el snapshot actual y notifica a los listeners en orden.
// Los listeners corren sincronicamente dentro de Dispatch: pueden leer
// State() pero no deben llamar Dispatch.
type Store struct {
	dispatchMu sync.Mutex

	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	order     []int
	nextID    int
}

func NewStore(initial State) *Store {
	if initial.Messages == nil {
		initial.Messages = []domain.Message{}
	}
	return &Store{
		state:     initial,
		listeners: make(map[int]Listener),
	}
}

// State devuelve el snapshot actual.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch aplica las acciones en orden como un solo cambio y notifica una
// vez con el snapshot previo y el final.
func (s *Store) Dispatch(actions ...Action) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := prev
	for _, a := range actions {
		next = Apply(next, a)
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(prev, next)
	}
	return next
}

// Subscribe registra fn y devuelve la funcion para darlo de baja.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}
