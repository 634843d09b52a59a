package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-linecount/crossing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	Logf = t.Logf
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEvents() []crossing.CrossingEvent {
	step := 33333 * time.Microsecond
	return []crossing.CrossingEvent{
		{TrackID: 1, Timestamp: crossing.DefaultStart.Add(step), Direction: crossing.Down},
		{TrackID: 2, Timestamp: crossing.DefaultStart.Add(5 * step), Direction: crossing.Right},
		{TrackID: 1, Timestamp: crossing.DefaultStart.Add(9 * step), Direction: crossing.Up},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := Run{
		Source:    "input.mp4",
		StartedAt: crossing.DefaultStart,
		Frames:    10,
		Counters:  map[string]int{"UP": 1, "DOWN": 1, "LEFT": 0, "RIGHT": 1},
	}
	id, err := s.SaveRun(ctx, run, sampleEvents())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	events, err := s.Events(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleEvents(), events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	got, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "input.mp4", got.Source)
	assert.Equal(t, 10, got.Frames)
	assert.True(t, crossing.DefaultStart.Equal(got.StartedAt))
	assert.Equal(t, run.Counters, got.Counters)
}

func TestStore_MultipleRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fixed := uuid.MustParse("6f1c0a57-3f7e-4b8e-9a43-0d7b2a3f5e11")
	id1, err := s.SaveRun(ctx, Run{ID: fixed, Source: "a", StartedAt: crossing.DefaultStart}, sampleEvents())
	require.NoError(t, err)
	assert.Equal(t, fixed, id1)

	id2, err := s.SaveRun(ctx, Run{Source: "b", StartedAt: crossing.DefaultStart.Add(time.Hour)}, nil)
	require.NoError(t, err)

	ids, err := s.RunIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id1, id2}, ids)

	events, err := s.Events(ctx, id2)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = s.SaveRun(ctx, Run{ID: fixed, Source: "dup"}, nil)
	assert.Error(t, err, "run ids are unique")

	_, err = s.GetRun(ctx, uuid.New())
	assert.Error(t, err)
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.MigrateUp())

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
