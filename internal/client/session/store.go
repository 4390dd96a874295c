package session

import (
	"sync"

	"github.com/rs/zerolog"
)

// Listener is notified after every commit with the mutation and the state it
// produced.
type Listener func(Mutation, State)

// Store owns a State. Commit is the only way to change it.
type Store struct {
	mu        sync.Mutex
	state     State
	storage   TokenStorage
	log       zerolog.Logger
	listeners []Listener
}

// NewStore returns a store in the initial state. A nil storage keeps tokens
// in memory only.
func NewStore(storage TokenStorage, log zerolog.Logger) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &Store{
		state:   InitialState(),
		storage: storage,
		log:     log,
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Storage returns the durable token storage backing the store.
func (s *Store) Storage() TokenStorage {
	return s.storage
}

// Commit applies m and notifies listeners. Commits are serialised.
func (s *Store) Commit(m Mutation) State {
	s.mu.Lock()
	m.apply(&s.state, s.storage, s.log)
	snapshot := s.state
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.log.Debug().Str("mutation", m.Name()).Bool("authenticated", snapshot.IsAuthenticated).Msg("commit")
	for _, l := range listeners {
		l(m, snapshot)
	}
	return snapshot
}

// Subscribe registers l for every subsequent commit.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}
