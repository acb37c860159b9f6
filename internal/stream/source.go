package stream

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// ErrStreamUnavailable signals that the video stream cannot be read.
// It is fatal: the process exits and the supervisor restarts it; there
// is no in-process reconnect.
var ErrStreamUnavailable = errors.New("video stream unavailable")

// Frame is one decoded video frame. Seq starts at 1 and increases by one
// per frame read from the source. The Image Mat is owned by the Source
// and reused between reads; it is only valid until the next call to Next.
type Frame struct {
	Seq   uint64
	Time  time.Time
	Image gocv.Mat
}

// Source reads frames from an RTSP (or any OpenCV-supported) stream.
type Source struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	seq     uint64
}

// Open connects to the stream URL. The connection is opened once and
// reused for the process lifetime.
func Open(url string) (*Source, error) {
	capture, err := gocv.OpenVideoCapture(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamUnavailable, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: could not open %s", ErrStreamUnavailable, url)
	}

	return &Source{
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

// Next blocks until the next frame is decoded and returns it. A read
// failure or an empty frame means the stream dropped; that is reported
// as ErrStreamUnavailable.
func (s *Source) Next() (Frame, error) {
	if ok := s.capture.Read(&s.mat); !ok {
		return Frame{}, fmt.Errorf("%w: read failed at frame %d", ErrStreamUnavailable, s.seq)
	}
	if s.mat.Empty() {
		return Frame{}, fmt.Errorf("%w: empty frame at %d", ErrStreamUnavailable, s.seq)
	}

	s.seq++
	return Frame{
		Seq:   s.seq,
		Time:  time.Now(),
		Image: s.mat,
	}, nil
}

// Close releases the capture handle and the frame buffer.
func (s *Source) Close() error {
	s.mat.Close()
	return s.capture.Close()
}
