package stream

import "testing"

func TestSampler_KeepsOnlyStrideMultiples(t *testing.T) {
	sampler := NewSampler(12)

	for seq := uint64(1); seq <= 120; seq++ {
		kept := sampler.Keep(seq)
		if seq%12 == 0 && !kept {
			t.Errorf("Frame %d should be kept", seq)
		}
		if seq%12 != 0 && kept {
			t.Errorf("Frame %d should be dropped", seq)
		}
	}
}

func TestSampler_CountOverWindow(t *testing.T) {
	sampler := NewSampler(12)

	kept := 0
	for seq := uint64(1); seq <= 36; seq++ {
		if sampler.Keep(seq) {
			kept++
		}
	}

	if kept != 3 {
		t.Errorf("Expected 3 frames kept out of 36 with stride 12, got %d", kept)
	}
}

func TestSampler_StrideOneKeepsAll(t *testing.T) {
	sampler := NewSampler(1)

	for seq := uint64(1); seq <= 10; seq++ {
		if !sampler.Keep(seq) {
			t.Errorf("Stride 1 should keep frame %d", seq)
		}
	}
}

func TestSampler_ClampsInvalidStride(t *testing.T) {
	sampler := NewSampler(0)

	if !sampler.Keep(1) || !sampler.Keep(2) {
		t.Error("Stride 0 should be clamped to 1 and keep every frame")
	}
}
