package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feedcore/internal/model"
)

func TestStateSubscribeDeliversCurrent(t *testing.T) {
	state := NewState()
	state.SetSignedIn(model.Profile{ID: "u1", DisplayName: "A"})

	ch, cancel := state.Subscribe()
	defer cancel()

	snap := <-ch
	require.True(t, snap.SignedIn)
	require.Equal(t, "u1", snap.Profile.ID)
}

func TestStateFansOutChanges(t *testing.T) {
	state := NewState()
	ch1, cancel1 := state.Subscribe()
	ch2, cancel2 := state.Subscribe()
	defer cancel1()
	defer cancel2()
	<-ch1
	<-ch2

	state.SetSignedIn(model.Profile{ID: "u1", DisplayName: "Before"})
	require.Equal(t, "Before", (<-ch1).Profile.DisplayName)
	require.Equal(t, "Before", (<-ch2).Profile.DisplayName)

	state.Merge("u1", map[string]any{"displayName": "After", "bio": "new bio"})
	snap := <-ch1
	require.Equal(t, "After", snap.Profile.DisplayName)
	require.Equal(t, "new bio", snap.Profile.Bio)

	state.SetSignedOut()
	for {
		snap = <-ch2
		if !snap.SignedIn {
			break
		}
	}
	require.Empty(t, snap.Profile.ID)
}

func TestStateMergeIgnoresOtherUsers(t *testing.T) {
	state := NewState()
	state.SetSignedIn(model.Profile{ID: "u1", DisplayName: "Mine"})

	state.Merge("someone-else", map[string]any{"displayName": "Hijacked"})
	require.Equal(t, "Mine", state.Current().Profile.DisplayName)
}

func TestStateCoalescesSlowSubscribers(t *testing.T) {
	state := NewState()
	ch, cancel := state.Subscribe()
	defer cancel()

	// never read between updates: only the latest survives
	for i := 0; i < 10; i++ {
		state.SetSignedIn(model.Profile{ID: "u1", Bio: string(rune('a' + i))})
	}
	var snap Snapshot
	deadline := time.After(time.Second)
	select {
	case snap = <-ch:
	case <-deadline:
		t.Fatal("no snapshot delivered")
	}
	require.Equal(t, "j", snap.Profile.Bio)
}

func TestStateCancelStopsDelivery(t *testing.T) {
	state := NewState()
	ch, cancel := state.Subscribe()
	<-ch
	cancel()
	cancel() // idempotent

	_, ok := <-ch
	require.False(t, ok)

	// further updates must not panic with a cancelled subscriber around
	state.SetSignedIn(model.Profile{ID: "u1"})
}
