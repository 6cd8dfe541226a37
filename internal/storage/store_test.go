package storage

import (
	"testing"
	"time"
)

func sampleMeta(t time.Time) RunMetadata {
	return RunMetadata{
		Timestamp: t,
		Particles: 128,
		Chunks:    4,
		Dt:        3.68,
		BatchSize: 8,
		Order:     20,
		Seed:      42,
		Verified:  true,
		PerChunk: []ChunkStats{
			{Chunk: 0, Particles: 32, Nodes: 63, Leaves: 32},
			{Chunk: 1, Particles: 32, Nodes: 63, Leaves: 32},
		},
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	meta := sampleMeta(time.Unix(0, 1000))
	runID, err := s.Save(meta)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if runID == "" {
		t.Fatal("expected a non-empty run ID")
	}

	got, err := s.Load(runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID != runID {
		t.Errorf("ID = %q, want %q", got.ID, runID)
	}
	if got.Particles != meta.Particles || got.Chunks != meta.Chunks {
		t.Errorf("got %+v, want particles=%d chunks=%d", got, meta.Particles, meta.Chunks)
	}
	if len(got.PerChunk) != len(meta.PerChunk) {
		t.Fatalf("PerChunk len = %d, want %d", len(got.PerChunk), len(meta.PerChunk))
	}
	if got.PerChunk[0].Leaves != meta.PerChunk[0].Leaves {
		t.Errorf("PerChunk[0].Leaves = %d, want %d", got.PerChunk[0].Leaves, meta.PerChunk[0].Leaves)
	}
}

func TestStoreListRuns(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	id1, err := s.Save(sampleMeta(time.Unix(0, 1000)))
	if err != nil {
		t.Fatalf("Save 1: %v", err)
	}
	id2, err := s.Save(sampleMeta(time.Unix(0, 2000)))
	if err != nil {
		t.Fatalf("Save 2: %v", err)
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	seen := map[string]bool{}
	for _, r := range runs {
		seen[r] = true
	}
	if !seen[id1] || !seen[id2] {
		t.Errorf("ListRuns() = %v, want to contain %q and %q", runs, id1, id2)
	}
}

func TestStoreLoadMissingRun(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := s.Load("does-not-exist"); err == nil {
		t.Fatal("expected an error loading a missing run")
	}
}

func TestStoreListRunsEmpty(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs, want 0", len(runs))
	}
}
