package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatusStoreUpdateAndCurrent(t *testing.T) {
	t.Parallel()

	s := NewStatusStore()
	require.Equal(t, PhaseIdle, s.Current().Phase)

	started := time.Now()
	s.Update(func(st *RunStatus) {
		st.Phase = PhaseRunning
		st.RunID = "run-1"
		st.StartedAt = &started
		st.TotalURLs = 10
		st.PendingURLs = 4
	})
	s.Update(func(st *RunStatus) {
		st.Processed++
		st.Succeeded++
	})

	cur := s.Current()
	require.Equal(t, PhaseRunning, cur.Phase)
	require.Equal(t, "run-1", cur.RunID)
	require.Equal(t, 10, cur.TotalURLs)
	require.Equal(t, 1, cur.Processed)
	require.Equal(t, 1, cur.Succeeded)
}

func TestStatusStoreConcurrentUpdates(t *testing.T) {
	t.Parallel()

	s := NewStatusStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Update(func(st *RunStatus) { st.Processed++ })
				_ = s.Current()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 800, s.Current().Processed)
}

func TestStatusStoreNilSafe(t *testing.T) {
	t.Parallel()

	var s *StatusStore
	s.Update(func(st *RunStatus) { st.Processed++ })
	require.Equal(t, PhaseIdle, s.Current().Phase)
}
