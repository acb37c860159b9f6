package archive

import (
	"path/filepath"
	"testing"
	"time"

	"camwatch/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSaveBatchAndCount(t *testing.T) {
	store := openTestStore(t)

	batch := []models.Detection{
		{Label: "person", Confidence: 0.91, Frame: 12, Session: "s1", Timestamp: time.Now()},
		{Label: "dog", Confidence: 0.72, Frame: 12, Session: "s1", Timestamp: time.Now()},
	}

	if err := store.SaveBatch(batch); err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}

	count, err := store.CountBySession("s1")
	if err != nil {
		t.Fatalf("CountBySession failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 archived detections, got %d", count)
	}

	count, err = store.CountBySession("other")
	if err != nil {
		t.Fatalf("CountBySession failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 detections for unknown session, got %d", count)
	}
}

func TestSaveBatch_EmptyIsNoop(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveBatch(nil); err != nil {
		t.Fatalf("Empty batch should not error: %v", err)
	}
}

func TestRecentLabels(t *testing.T) {
	store := openTestStore(t)

	batches := [][]models.Detection{
		{{Label: "car", Frame: 12, Session: "s1", Timestamp: time.Now()}},
		{{Label: "person", Frame: 24, Session: "s1", Timestamp: time.Now()}},
		{{Label: "person", Frame: 36, Session: "s1", Timestamp: time.Now()}},
	}
	for _, b := range batches {
		if err := store.SaveBatch(b); err != nil {
			t.Fatalf("SaveBatch failed: %v", err)
		}
	}

	labels, err := store.RecentLabels(10)
	if err != nil {
		t.Fatalf("RecentLabels failed: %v", err)
	}

	if len(labels) != 2 {
		t.Fatalf("Expected 2 distinct labels, got %v", labels)
	}
	if labels[0] != "person" || labels[1] != "car" {
		t.Errorf("Expected newest-first [person car], got %v", labels)
	}
}
