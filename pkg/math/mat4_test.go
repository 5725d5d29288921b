package math

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)

	// Translation lives in the fourth column (indices 12, 13, 14)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformPoint(Vec3{1, 2, 3})

	expected := Vec3{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestLookAtCenterMapsToNegZ(t *testing.T) {
	eye := Vec3{0, 0, 2}
	view := LookAt(eye, Vec3{}, Vec3{Y: 1})

	// The look-at target must land on the -Z axis in view space.
	p := view.TransformPoint(Vec3{})
	if math32.Abs(p.X) > 1e-5 || math32.Abs(p.Y) > 1e-5 {
		t.Errorf("target not centered: %v", p)
	}
	if p.Z > -1.9 || p.Z < -2.1 {
		t.Errorf("target depth: got %f, want -2", p.Z)
	}
}

func TestOrthoMapsExtentsToNDC(t *testing.T) {
	proj := Ortho(-2, 2, -2, 2, 0.1, 10)

	p := proj.TransformPoint(Vec3{2, 2, -10})
	if math32.Abs(p.X-1) > 1e-5 || math32.Abs(p.Y-1) > 1e-5 {
		t.Errorf("far corner: got %v, want x=y=1", p)
	}
	if math32.Abs(p.Z-1) > 1e-5 {
		t.Errorf("far plane should map to z=1, got %f", p.Z)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Translate(3, -1, 7).Mul(RotateY(0.7)).Mul(Scale(2, 2, 2))
	r := m.Mul(m.Inverse())

	id := Identity()
	for i := 0; i < 16; i++ {
		if math32.Abs(r[i]-id[i]) > 1e-4 {
			t.Errorf("M * M^-1 element %d: got %f, want %f", i, r[i], id[i])
		}
	}
}

func TestTransposeInvolution(t *testing.T) {
	m := Translate(1, 2, 3).Mul(RotateX(0.3))
	r := m.Transpose().Transpose()
	if r != m {
		t.Error("double transpose should return the original matrix")
	}
}
