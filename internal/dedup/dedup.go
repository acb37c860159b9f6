package dedup

import (
	"image"

	"camwatch/internal/models"
)

// Deduplicator suppresses repeated detections of the same physical
// object across consecutive sampled frames. Two detections count as the
// same object when they share a label and their boxes overlap with an
// IoU of at least minIoU. The first occurrence wins; later sightings
// inside the window are suppressed but still refresh the entry, so an
// object that stays in view keeps being suppressed until it leaves.
type Deduplicator struct {
	window  int
	minIoU  float64
	entries []entry
	calls   uint64 // sampled-frame ordinal, incremented per Filter call
}

type entry struct {
	label    string
	rect     image.Rectangle
	lastSeen uint64
}

// New creates a Deduplicator. A window below 1 disables suppression.
func New(window int, minIoU float64) *Deduplicator {
	return &Deduplicator{
		window: window,
		minIoU: minIoU,
	}
}

// Filter returns the detections from one sampled frame that were not
// seen within the last `window` sampled frames at approximately the same
// position. Expired entries are purged on each call; there is no timer.
func (d *Deduplicator) Filter(detections []models.Detection) []models.Detection {
	d.calls++

	if d.window < 1 {
		return detections
	}

	d.purge()

	var fresh []models.Detection
	for _, det := range detections {
		rect := image.Rect(det.X, det.Y, det.X+det.Width, det.Y+det.Height)

		if i := d.match(det.Label, rect); i >= 0 {
			d.entries[i].rect = rect
			d.entries[i].lastSeen = d.calls
			continue
		}

		d.entries = append(d.entries, entry{
			label:    det.Label,
			rect:     rect,
			lastSeen: d.calls,
		})
		fresh = append(fresh, det)
	}

	return fresh
}

// purge drops entries older than the window.
func (d *Deduplicator) purge() {
	kept := d.entries[:0]
	for _, e := range d.entries {
		if d.calls-e.lastSeen <= uint64(d.window) {
			kept = append(kept, e)
		}
	}
	d.entries = kept
}

// match returns the index of a live entry for the same label at
// approximately the same position, or -1.
func (d *Deduplicator) match(label string, rect image.Rectangle) int {
	for i, e := range d.entries {
		if e.label != label {
			continue
		}
		if iou(e.rect, rect) >= d.minIoU {
			return i
		}
	}
	return -1
}

// iou computes intersection over union of two rectangles.
func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}

	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()) + float64(b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
