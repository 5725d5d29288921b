package postfx

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestDefaultSettingsMask(t *testing.T) {
	mask := DefaultSettings().Mask()
	if mask&FXBloom == 0 {
		t.Error("bloom should be on by default")
	}
	if mask&FXToneMap == 0 {
		t.Error("tone mapping should be on by default")
	}
	for _, off := range []int{FXVignette, FXGrain, FXChromAB, FXGrade} {
		if mask&off != 0 {
			t.Errorf("effect bit %d should be off by default", off)
		}
	}
}

func TestMaskTracksSettings(t *testing.T) {
	s := DefaultSettings()
	s.BloomIntensity = 0
	s.ToneMap = "off"
	s.VignetteIntensity = 0.5
	s.GrainIntensity = 0.1
	s.ChromaticAberration = 0.01
	s.Saturation = 1.2

	mask := s.Mask()
	if mask&FXBloom != 0 || mask&FXToneMap != 0 {
		t.Errorf("disabled effects still set: %b", mask)
	}
	for _, on := range []int{FXVignette, FXGrain, FXChromAB, FXGrade} {
		if mask&on == 0 {
			t.Errorf("effect bit %d should be set, mask %b", on, mask)
		}
	}
}

func TestBrightPass(t *testing.T) {
	// Below threshold: fully suppressed.
	r, g, b := BrightPass(0.5, 0.5, 0.5, 1)
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("below-threshold color leaked: %v %v %v", r, g, b)
	}

	// Far above threshold: approaches the input color.
	r, _, _ = BrightPass(10, 10, 10, 1)
	if r < 8.5 || r > 10 {
		t.Errorf("bright color %v, want close to 10", r)
	}

	// Black input must not divide by zero.
	r, g, b = BrightPass(0, 0, 0, 0)
	if math32.IsNaN(r) || math32.IsNaN(g) || math32.IsNaN(b) {
		t.Error("NaN on black input")
	}
}

func TestACESFilmShape(t *testing.T) {
	if v := ACESFilm(0); v != 0 {
		t.Errorf("ACES(0) = %v", v)
	}
	if v := ACESFilm(100); v < 0.99 || v > 1 {
		t.Errorf("ACES(100) = %v, want near 1", v)
	}
	// Monotonic on a coarse sweep.
	prev := float32(-1)
	for x := float32(0); x <= 4; x += 0.25 {
		v := ACESFilm(x)
		if v < prev {
			t.Fatalf("not monotonic at %v: %v < %v", x, v, prev)
		}
		prev = v
	}
}

func TestGaussianWeightsNormalized(t *testing.T) {
	sum := GaussianWeights[0]
	for _, w := range GaussianWeights[1:] {
		sum += 2 * w
	}
	if math32.Abs(sum-1) > 0.01 {
		t.Errorf("weights sum to %v", sum)
	}
}

func TestLuma(t *testing.T) {
	if l := Luma(1, 1, 1); math32.Abs(l-1) > 1e-4 {
		t.Errorf("white luma %v", l)
	}
	if Luma(0, 1, 0) <= Luma(1, 0, 0) {
		t.Error("green should outweigh red")
	}
}
