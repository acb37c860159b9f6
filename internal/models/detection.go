package models

import "time"

// Detection represents a single detected object on a processed frame.
// A Detection is immutable once created; it is either shipped to the log
// sink or suppressed by the deduplicator and discarded.
type Detection struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Frame      uint64    `json:"frame"`
	Session    string    `json:"session"`
	Timestamp  time.Time `json:"timestamp"`
}
