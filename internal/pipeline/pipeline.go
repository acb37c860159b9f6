package pipeline

import (
	"camwatch/internal/dedup"
	"camwatch/internal/logger"
	"camwatch/internal/models"
	"camwatch/internal/stream"
)

// Source yields frames in capture order.
type Source interface {
	Next() (stream.Frame, error)
}

// Detector turns one frame into raw detections above the confidence
// threshold.
type Detector interface {
	Detect(frame stream.Frame) ([]models.Detection, error)
}

// Shipper pushes one frame's deduplicated detections to the log sink.
type Shipper interface {
	ShipBatch(detections []models.Detection) error
}

// Archiver persists shipped detections locally.
type Archiver interface {
	SaveBatch(detections []models.Detection) error
}

// Broadcaster forwards shipped detections to live viewers.
type Broadcaster interface {
	BroadcastBatch(detections []models.Detection)
}

// Pipeline is the per-frame detection loop: read, sample, detect,
// dedup, ship. Processing is synchronous and single-threaded; one frame
// is fully handled before the next is read.
type Pipeline struct {
	source      Source
	sampler     *stream.Sampler
	detector    Detector
	dedup       *dedup.Deduplicator
	shipper     Shipper
	archiver    Archiver    // optional
	broadcaster Broadcaster // optional
	logger      *logger.Logger
}

func New(source Source, sampler *stream.Sampler, detector Detector,
	dedup *dedup.Deduplicator, shipper Shipper, logger *logger.Logger) *Pipeline {
	return &Pipeline{
		source:   source,
		sampler:  sampler,
		detector: detector,
		dedup:    dedup,
		shipper:  shipper,
		logger:   logger,
	}
}

// WithArchiver attaches the optional local detection archive.
func (p *Pipeline) WithArchiver(a Archiver) *Pipeline {
	p.archiver = a
	return p
}

// WithBroadcaster attaches the optional live view feed.
func (p *Pipeline) WithBroadcaster(b Broadcaster) *Pipeline {
	p.broadcaster = b
	return p
}

// Run processes frames until the stream fails. A detection error skips
// the frame; a ship error drops the batch; both are logged and the loop
// continues. Only a stream failure terminates the run, and that error
// is returned for the supervisor to act on.
func (p *Pipeline) Run() error {
	for {
		frame, err := p.source.Next()
		if err != nil {
			return err
		}

		if !p.sampler.Keep(frame.Seq) {
			continue
		}

		detections, err := p.detector.Detect(frame)
		if err != nil {
			p.logger.Error("Detection failed on frame %d: %v", frame.Seq, err)
			continue
		}

		fresh := p.dedup.Filter(detections)
		if len(fresh) == 0 {
			continue
		}

		if err := p.shipper.ShipBatch(fresh); err != nil {
			p.logger.Error("Batch of %d dropped: %v", len(fresh), err)
			continue
		}

		p.logger.Info("Shipped %d objects from frame %d", len(fresh), frame.Seq)

		if p.archiver != nil {
			if err := p.archiver.SaveBatch(fresh); err != nil {
				p.logger.Warning("Archive write failed: %v", err)
			}
		}
		if p.broadcaster != nil {
			p.broadcaster.BroadcastBatch(fresh)
		}
	}
}
