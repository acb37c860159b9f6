package loki

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"camwatch/internal/models"
)

const pushPath = "/loki/api/v1/push"

// ShipError reports a failed push. One batch is lost; the caller logs
// the error and continues. There is no retry queue.
type ShipError struct {
	Status int
	Err    error
}

func (e *ShipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loki push failed: %v", e.Err)
	}
	return fmt.Sprintf("loki push failed: status %d", e.Status)
}

func (e *ShipError) Unwrap() error {
	return e.Err
}

// stream is one labeled Loki stream with its [timestamp, line] values.
type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type payload struct {
	Streams []stream `json:"streams"`
}

// Client pushes detection batches and plain log lines to a Loki
// endpoint. The HTTP connection is reused for the process lifetime.
// A Client is safe for use from multiple goroutines.
type Client struct {
	url      string
	http     *http.Client
	hostname string
	session  string
	job      string

	mu     sync.Mutex // guards lastTS
	lastTS int64
}

// New builds a Client for the given base URL. The job becomes the `job`
// label on every pushed stream; the session id is attached as a label
// too, so restarted pipelines do not collide at the sink.
func New(baseURL, job, session string) *Client {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &Client{
		url:      strings.TrimRight(baseURL, "/") + pushPath,
		http:     &http.Client{Timeout: 3 * time.Second},
		hostname: hostname,
		session:  session,
		job:      job,
	}
}

// nextTimestamp returns a strictly increasing nanosecond timestamp.
// Detections sharing a wall-clock instant get bumped by one nanosecond
// each so Loki never sees a collision within a session. The monitor
// pushes from several goroutines through one Client, so lastTS is
// updated under the lock.
func (c *Client) nextTimestamp() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Now().UnixNano()
	if ts <= c.lastTS {
		ts = c.lastTS + 1
	}
	c.lastTS = ts
	return ts
}

// ShipBatch pushes one frame's detections as a single request, one
// labeled stream per detection, each with its own unique timestamp.
// On failure the batch is dropped and a *ShipError returned.
func (c *Client) ShipBatch(detections []models.Detection) error {
	if len(detections) == 0 {
		return nil
	}

	streams := make([]stream, 0, len(detections))
	for _, det := range detections {
		ts := strconv.FormatInt(c.nextTimestamp(), 10)
		line := fmt.Sprintf("YOLO11 Detection: %s (conf: %.2f)", det.Label, det.Confidence)

		streams = append(streams, stream{
			Stream: map[string]string{
				"job":     c.job,
				"host":    c.hostname,
				"object":  det.Label,
				"session": c.session,
			},
			Values: [][2]string{{ts, line}},
		})
	}

	return c.push(payload{Streams: streams})
}

// PushLine pushes a single log line with the default labels merged with
// extraLabels. Used by the monitor to report service events.
func (c *Client) PushLine(message string, extraLabels map[string]string) error {
	labels := map[string]string{
		"job":     c.job,
		"host":    c.hostname,
		"session": c.session,
	}
	for k, v := range extraLabels {
		labels[k] = v
	}

	return c.push(payload{Streams: []stream{{
		Stream: labels,
		Values: [][2]string{{strconv.FormatInt(c.nextTimestamp(), 10), message}},
	}}})
}

func (c *Client) push(p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return &ShipError{Err: err}
	}

	resp, err := c.http.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return &ShipError{Err: err}
	}
	defer resp.Body.Close()

	// Loki answers 204 on success; accept any 2xx.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ShipError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
		}
	}

	return nil
}
