package timer

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/models"
)

// StateStore holds the in-memory timer snapshot per room. It is a process-local
// cache of "what does the UI currently show", not the system of record; losing
// it loses only the live countdown display, which the controller rebuilds from
// the ledger on miss.
type StateStore interface {
	Get(roomID uuid.UUID) (models.TimerState, bool)
	Set(state models.TimerState)
	Remove(roomID uuid.UUID)
}

// MemoryStateStore is the default StateStore backed by a mutex-guarded map.
// Construct one per process and inject it into the controller; tests get
// isolated instances.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[uuid.UUID]models.TimerState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[uuid.UUID]models.TimerState),
	}
}

func (s *MemoryStateStore) Get(roomID uuid.UUID) (models.TimerState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[roomID]
	return state, ok
}

func (s *MemoryStateStore) Set(state models.TimerState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.RoomID] = state
}

func (s *MemoryStateStore) Remove(roomID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, roomID)
}
