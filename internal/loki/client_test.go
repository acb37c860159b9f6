package loki

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"camwatch/internal/models"
)

func batch(n int) []models.Detection {
	dets := make([]models.Detection, n)
	for i := range dets {
		dets[i] = models.Detection{
			Label:      "person",
			Confidence: 0.87,
			Frame:      12,
			Session:    "test-session",
		}
	}
	return dets
}

func TestShipBatch_SingleRequestWithDistinctTimestamps(t *testing.T) {
	var got payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("Invalid payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, "yolo11_inference", "test-session")

	if err := client.ShipBatch(batch(5)); err != nil {
		t.Fatalf("ShipBatch failed: %v", err)
	}

	if len(got.Streams) != 5 {
		t.Fatalf("Expected 5 streams, got %d", len(got.Streams))
	}

	seen := make(map[string]bool)
	for _, s := range got.Streams {
		if len(s.Values) != 1 {
			t.Fatalf("Expected one value per stream, got %d", len(s.Values))
		}
		ts := s.Values[0][0]
		if seen[ts] {
			t.Errorf("Duplicate timestamp %s in one batch", ts)
		}
		seen[ts] = true

		if s.Stream["session"] != "test-session" {
			t.Errorf("Missing session label, got %v", s.Stream)
		}
		if s.Stream["object"] != "person" {
			t.Errorf("Missing object label, got %v", s.Stream)
		}
	}
}

func TestShipBatch_ServerErrorReturnsShipError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ingester unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "yolo11_inference", "test-session")

	err := client.ShipBatch(batch(1))
	if err == nil {
		t.Fatal("Expected error on HTTP 500")
	}

	var shipErr *ShipError
	if !errors.As(err, &shipErr) {
		t.Fatalf("Expected *ShipError, got %T", err)
	}
	if shipErr.Status != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", shipErr.Status)
	}
}

func TestShipBatch_ConnectionRefusedReturnsShipError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := New(server.URL, "yolo11_inference", "test-session")

	err := client.ShipBatch(batch(1))
	var shipErr *ShipError
	if !errors.As(err, &shipErr) {
		t.Fatalf("Expected *ShipError on refused connection, got %T", err)
	}
}

func TestShipBatch_EmptyBatchIsNoop(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := New(server.URL, "yolo11_inference", "test-session")

	if err := client.ShipBatch(nil); err != nil {
		t.Fatalf("Empty batch should not error: %v", err)
	}
	if called {
		t.Error("Empty batch should not hit the endpoint")
	}
}

func TestNextTimestamp_StrictlyIncreasing(t *testing.T) {
	client := New("http://localhost:3100", "yolo11_inference", "test-session")

	prev := int64(0)
	for i := 0; i < 1000; i++ {
		ts := client.nextTimestamp()
		if ts <= prev {
			t.Fatalf("Timestamp %d not greater than previous %d", ts, prev)
		}
		prev = ts
	}
}

func TestPushLine_ConcurrentPushersGetUniqueTimestamps(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p payload
		if err := json.Unmarshal(body, &p); err != nil {
			t.Errorf("Invalid payload: %v", err)
		}
		mu.Lock()
		for _, s := range p.Streams {
			for _, v := range s.Values {
				seen[v[0]]++
			}
		}
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, "pi_camera_monitor", "test-session")

	// The monitor's health, maintenance and journal loops all push
	// through one shared client.
	const pushers = 3
	const lines = 50

	var wg sync.WaitGroup
	for g := 0; g < pushers; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < lines; i++ {
				if err := client.PushLine("Service check.", map[string]string{"level": "info"}); err != nil {
					t.Errorf("PushLine failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if len(seen) != pushers*lines {
		t.Errorf("Expected %d unique timestamps, got %d", pushers*lines, len(seen))
	}
	for ts, count := range seen {
		if count > 1 {
			t.Errorf("Timestamp %s emitted %d times", ts, count)
		}
	}
}

func TestPushLine_MergesLabels(t *testing.T) {
	var got payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, "pi_camera_monitor", "test-session")

	err := client.PushLine("Service mediamtx restarted successfully.", map[string]string{
		"level":  "info",
		"action": "restart",
	})
	if err != nil {
		t.Fatalf("PushLine failed: %v", err)
	}

	if len(got.Streams) != 1 {
		t.Fatalf("Expected one stream, got %d", len(got.Streams))
	}
	labels := got.Streams[0].Stream
	if labels["job"] != "pi_camera_monitor" || labels["level"] != "info" || labels["action"] != "restart" {
		t.Errorf("Unexpected labels: %v", labels)
	}
}
