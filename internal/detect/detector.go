package detect

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"camwatch/internal/logger"
	"camwatch/internal/models"
	"camwatch/internal/stream"
)

// nmsThreshold is the overlap above which NMS collapses raw boxes of the
// same object into one.
const nmsThreshold = 0.45

// Detector runs a pretrained YOLO model on single frames through the
// OpenCV DNN backend. A detection failure on one frame is reported to
// the caller and never terminates the process.
type Detector struct {
	net       gocv.Net
	threshold float32
	inputSize int
	session   string
	logger    *logger.Logger
}

// New loads the ONNX model and prepares the network for CPU inference.
func New(modelPath string, threshold float64, inputSize int, session string, logger *logger.Logger) (*Detector, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	logger.Info("Detection network initialized from %s", modelPath)

	return &Detector{
		net:       net,
		threshold: float32(threshold),
		inputSize: inputSize,
		session:   session,
		logger:    logger,
	}, nil
}

// Detect runs inference on one frame and returns detections at or above
// the confidence threshold, after non-maximum suppression.
func (d *Detector) Detect(frame stream.Frame) ([]models.Detection, error) {
	if frame.Image.Empty() {
		return nil, fmt.Errorf("frame %d is empty", frame.Seq)
	}

	blob := gocv.BlobFromImage(frame.Image, 1.0/255.0,
		image.Pt(d.inputSize, d.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	numClasses := dims[1] - 4
	cells := dims[2]

	raw, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read output tensor: %w", err)
	}

	sx := float32(frame.Image.Cols()) / float32(d.inputSize)
	sy := float32(frame.Image.Rows()) / float32(d.inputSize)

	candidates := decodeOutput(raw, numClasses, cells, sx, sy, d.threshold)
	if len(candidates) == 0 {
		return nil, nil
	}

	rects := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		rects[i] = c.rect
		scores[i] = c.score
	}

	indices := gocv.NMSBoxes(rects, scores, d.threshold, nmsThreshold)

	detections := make([]models.Detection, 0, len(indices))
	for _, idx := range indices {
		c := candidates[idx]
		detections = append(detections, models.Detection{
			Label:      classLabel(c.class),
			Confidence: float64(c.score),
			X:          c.rect.Min.X,
			Y:          c.rect.Min.Y,
			Width:      c.rect.Dx(),
			Height:     c.rect.Dy(),
			Frame:      frame.Seq,
			Session:    d.session,
			Timestamp:  frame.Time,
		})
	}

	return detections, nil
}

// Close releases the network.
func (d *Detector) Close() {
	d.net.Close()
}
