// Package postfx composites the HDR scene into the back buffer through
// a bloom extract/blur chain and a final grading, tone-map and grain
// pass.
package postfx

import "github.com/chewxy/math32"

// Effect mask bits, mirrored by the composite shader.
const (
	FXBloom    = 1 << 0
	FXToneMap  = 1 << 1
	FXVignette = 1 << 2
	FXGrain    = 1 << 3
	FXChromAB  = 1 << 4
	FXGrade    = 1 << 5
)

// Settings selects and parameterizes the post effects. Zero-value
// fields disable their effect in Mask.
type Settings struct {
	BloomThreshold float32
	BloomIntensity float32

	Exposure float32
	Gamma    float32
	ToneMap  string // "aces" or "off"

	Saturation float32
	Contrast   float32
	Brightness float32
	Lift       [3]float32
	GammaMid   [3]float32
	Gain       [3]float32

	VignetteIntensity float32
	VignetteRadius    float32

	GrainIntensity float32
	GrainSize      float32

	ChromaticAberration float32
}

// DefaultSettings returns a neutral chain: tone-mapped, gamma-encoded,
// bloom on, everything else off.
func DefaultSettings() Settings {
	return Settings{
		BloomThreshold: 1,
		BloomIntensity: 0.6,
		Exposure:       1,
		Gamma:          2.2,
		ToneMap:        "aces",
		Saturation:     1,
		Contrast:       1,
		Lift:           [3]float32{0, 0, 0},
		GammaMid:       [3]float32{1, 1, 1},
		Gain:           [3]float32{1, 1, 1},
		VignetteRadius: 0.75,
		GrainSize:      1,
	}
}

// Mask derives the effect bits from the settings.
func (s Settings) Mask() int {
	mask := 0
	if s.BloomIntensity > 0 {
		mask |= FXBloom
	}
	if s.ToneMap == "aces" {
		mask |= FXToneMap
	}
	if s.VignetteIntensity > 0 {
		mask |= FXVignette
	}
	if s.GrainIntensity > 0 {
		mask |= FXGrain
	}
	if s.ChromaticAberration > 0 {
		mask |= FXChromAB
	}
	if s.graded() {
		mask |= FXGrade
	}
	return mask
}

func (s Settings) graded() bool {
	neutral := s.Saturation == 1 && s.Contrast == 1 && s.Brightness == 0 &&
		s.Lift == [3]float32{} &&
		s.GammaMid == [3]float32{1, 1, 1} &&
		s.Gain == [3]float32{1, 1, 1}
	return !neutral
}

// Luma returns Rec. 709 relative luminance.
func Luma(r, g, b float32) float32 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// BrightPass scales a color by its luminance excess over the
// threshold, the same soft knee the bloom extract shader applies.
func BrightPass(r, g, b, threshold float32) (float32, float32, float32) {
	l := Luma(r, g, b)
	knee := math32.Max(l-threshold, 0)
	scale := knee / math32.Max(l, 1e-4)
	return r * scale, g * scale, b * scale
}

// ACESFilm is the Narkowicz rational fit of the ACES filmic curve,
// applied per channel.
func ACESFilm(x float32) float32 {
	const a, b, c, d, e = 2.51, 0.03, 2.43, 0.59, 0.14
	v := (x * (a*x + b)) / (x*(c*x+d) + e)
	return math32.Max(0, math32.Min(v, 1))
}

// GaussianWeights are the symmetric separable blur taps shared with
// the blur shaders: center plus four offsets each side, summing to 1.
var GaussianWeights = [5]float32{0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216}
