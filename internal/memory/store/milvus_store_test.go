package store

import (
	"testing"
	"time"

	"Mnemo/internal/models"
)

func TestSortChunksScoreThenRecency(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	chunks := []models.MemoryChunk{
		{ID: "old-low", Score: 0.2, CreatedAt: t1},
		{ID: "new-high", Score: 0.9, CreatedAt: t2},
		{ID: "old-high", Score: 0.9, CreatedAt: t1},
		{ID: "new-low", Score: 0.2, CreatedAt: t2},
	}

	SortChunks(chunks)

	want := []string{"new-high", "old-high", "new-low", "old-low"}
	for i, id := range want {
		if chunks[i].ID != id {
			t.Fatalf("position %d = %s, want %s (full: %+v)", i, chunks[i].ID, id, chunks)
		}
	}
}

func TestSortChunksFullTieBreaksOnID(t *testing.T) {
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	chunks := []models.MemoryChunk{
		{ID: "b", Score: 0.5, CreatedAt: ts},
		{ID: "a", Score: 0.5, CreatedAt: ts},
	}

	SortChunks(chunks)
	if chunks[0].ID != "a" || chunks[1].ID != "b" {
		t.Errorf("order = [%s %s], want [a b]", chunks[0].ID, chunks[1].ID)
	}
}

func TestEscapeExpr(t *testing.T) {
	cases := map[string]string{
		`plain`:      `plain`,
		`with"quote`: `with\"quote`,
		`back\slash`: `back\\slash`,
	}
	for in, want := range cases {
		if got := escapeExpr(in); got != want {
			t.Errorf("escapeExpr(%q) = %q, want %q", in, got, want)
		}
	}
}
