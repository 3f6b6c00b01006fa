package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portsim.ai/internal/sim/world"
)

func TestTickLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir, "r1")
	l.w.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	want := []world.TickLogEntry{
		{RunID: "r1", Tick: 0, Arrivals: []string{"Container001"}, Digest: "a"},
		{RunID: "r1", Tick: 1, Assignments: []world.Assignment{{Slot: 0, ContainerID: "Container001", AgentID: "PortAuthorityAgent01"}}, Digest: "b"},
		{RunID: "r1", Tick: 2, Punishments: []string{"Agent01"}, Digest: "c"},
	}
	for _, e := range want {
		require.NoError(t, l.WriteTick(e))
	}
	require.NoError(t, l.Close())

	files, err := ListEventFiles(EventsDir(dir))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "events-2026-03-04-05.jsonl.zst")

	var got []world.TickLogEntry
	require.NoError(t, ReadTicks(EventsDir(dir), func(e world.TickLogEntry) error {
		got = append(got, e)
		return nil
	}))
	assert.Equal(t, want, got)
}

func TestTickLogger_StampsRunAndRefusesGaps(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir, "r1")

	require.NoError(t, l.WriteTick(world.TickLogEntry{Tick: 0, Digest: "a"}))
	assert.ErrorContains(t, l.WriteTick(world.TickLogEntry{Tick: 2, Digest: "c"}), "expected tick 1, got 2")
	assert.ErrorContains(t, l.WriteTick(world.TickLogEntry{RunID: "r2", Tick: 1, Digest: "b"}), "belongs to run r2")
	require.NoError(t, l.WriteTick(world.TickLogEntry{Tick: 1, Digest: "b"}))
	require.NoError(t, l.Close())

	var got []world.TickLogEntry
	require.NoError(t, ReadTicks(EventsDir(dir), func(e world.TickLogEntry) error {
		got = append(got, e)
		return nil
	}))
	assert.Equal(t, []world.TickLogEntry{
		{RunID: "r1", Tick: 0, Digest: "a"},
		{RunID: "r1", Tick: 1, Digest: "b"},
	}, got)
}

func TestListEventFiles_SortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"events-2026-01-02-03.jsonl.zst", "events-2026-01-01-23.jsonl.zst", "audit-x.jsonl.zst", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "events-dir.jsonl.zst"), 0o755))

	files, err := ListEventFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "events-2026-01-01-23.jsonl.zst"),
		filepath.Join(dir, "events-2026-01-02-03.jsonl.zst"),
	}, files)
}

func TestManifest_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	m := Manifest{
		RunID:       "r1",
		Config:      world.WorldConfig{ID: "r1", Seed: 5, LazyAgents: 1, TickRateHz: 10, ArrivalEveryTicks: 10},
		FakeOracle:  true,
		ItemsDigest: "abc",
	}
	require.NoError(t, WriteManifest(dir, m))
	got, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = ReadManifest(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 59, 0, 0, time.UTC)
	w := NewJSONLZstdWriter(dir, "events")
	w.now = func() time.Time { return now }

	require.NoError(t, w.Write(world.TickLogEntry{Tick: 0}))
	now = now.Add(2 * time.Minute)
	require.NoError(t, w.Write(world.TickLogEntry{Tick: 1}))
	require.NoError(t, w.Close())

	files, err := ListEventFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	var ticks []uint64
	require.NoError(t, ReadTicks(dir, func(e world.TickLogEntry) error {
		ticks = append(ticks, e.Tick)
		return nil
	}))
	assert.Equal(t, []uint64{0, 1}, ticks)
}
