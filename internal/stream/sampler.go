package stream

// Sampler selects every Nth frame of a stream for processing. Frames it
// rejects are dropped immediately, without buffering.
type Sampler struct {
	stride uint64
}

// NewSampler creates a Sampler with the given stride. A stride below 1
// is treated as 1 (process every frame).
func NewSampler(stride int) *Sampler {
	if stride < 1 {
		stride = 1
	}
	return &Sampler{stride: uint64(stride)}
}

// Keep reports whether the frame with the given sequence number should
// be processed. With stride 12, frames 12, 24, 36... are kept.
func (s *Sampler) Keep(seq uint64) bool {
	return seq%s.stride == 0
}
