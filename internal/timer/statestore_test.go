package timer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/models"
	"github.com/mcdev12/studyroom/internal/timer"
)

func TestMemoryStateStore(t *testing.T) {
	store := timer.NewMemoryStateStore()
	roomID := uuid.New()

	if _, ok := store.Get(roomID); ok {
		t.Fatal("Get on empty store reported a hit")
	}

	state := models.IdleTimerState(roomID, models.DefaultRoomSettings())
	store.Set(state)

	got, ok := store.Get(roomID)
	if !ok {
		t.Fatal("Get after Set reported a miss")
	}
	if diff := cmp.Diff(state, got); diff != "" {
		t.Errorf("stored state (-want +got):\n%s", diff)
	}

	// Set replaces wholesale.
	state.IsRunning = true
	state.Remaining = 42
	store.Set(state)
	got, _ = store.Get(roomID)
	if !got.IsRunning || got.Remaining != 42 {
		t.Errorf("replaced state running=%v remaining=%d, want true/42", got.IsRunning, got.Remaining)
	}

	store.Remove(roomID)
	if _, ok := store.Get(roomID); ok {
		t.Fatal("Get after Remove reported a hit")
	}
}
