package app

import (
	"fmt"

	"github.com/google/uuid"

	"camwatch/internal/archive"
	"camwatch/internal/config"
	"camwatch/internal/dedup"
	"camwatch/internal/detect"
	"camwatch/internal/live"
	"camwatch/internal/logger"
	"camwatch/internal/loki"
	"camwatch/internal/pipeline"
	"camwatch/internal/stream"
)

// App assembles the detection pipeline from configuration and owns the
// resources that must be released on exit.
type App struct {
	config   *config.Config
	logger   *logger.Logger
	source   *stream.Source
	detector *detect.Detector
	store    *archive.Store
	pipeline *pipeline.Pipeline
}

// New loads configuration and connects every component. The session id
// is generated here, once per process, and handed to the components
// that tag emitted data with it.
func New() (*App, error) {
	cfg := config.Load()
	log := logger.New(cfg.LogDirectory)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	session := uuid.NewString()
	log.Info("Session %s", session)

	log.Info("Connecting to: %s", cfg.StreamURL)
	source, err := stream.Open(cfg.StreamURL)
	if err != nil {
		return nil, err
	}

	detector, err := detect.New(cfg.ModelName, cfg.ConfThreshold, cfg.InputSize, session, log)
	if err != nil {
		source.Close()
		return nil, err
	}

	shipper := loki.New(cfg.LokiURL, "yolo11_inference", session)
	deduper := dedup.New(cfg.DedupWindow, cfg.DedupMinIoU)
	sampler := stream.NewSampler(cfg.FrameStride)

	p := pipeline.New(source, sampler, detector, deduper, shipper, log)

	app := &App{
		config:   cfg,
		logger:   log,
		source:   source,
		detector: detector,
		pipeline: p,
	}

	if cfg.ArchiveDB != "" {
		store, err := archive.Open(cfg.ArchiveDB)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.store = store
		p.WithArchiver(store)
		log.Info("Archiving detections to %s", cfg.ArchiveDB)
	}

	if cfg.LiveAddr != "" {
		server := live.NewServer(live.NewHub(log), log)
		server.Start(cfg.LiveAddr)
		p.WithBroadcaster(server)
	}

	return app, nil
}

// Run processes the stream until it fails. The returned error is the
// fatal stream error; batch-level failures never surface here.
func (a *App) Run() error {
	a.logger.Info("Pipeline started - stride %d, threshold %.2f, model %s",
		a.config.FrameStride, a.config.ConfThreshold, a.config.ModelName)

	return a.pipeline.Run()
}

// Logger exposes the application logger for the main package.
func (a *App) Logger() *logger.Logger {
	return a.logger
}

// Close releases the stream, the model and the archive.
func (a *App) Close() {
	if a.source != nil {
		a.source.Close()
	}
	if a.detector != nil {
		a.detector.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
