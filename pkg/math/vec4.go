package math

// Vec4 is a 4-component vector, used for GPU constant packing.
type Vec4 struct {
	X, Y, Z, W float32
}

// NewVec4 builds a Vec4 from a Vec3 and a w component.
func NewVec4(v Vec3, w float32) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

// Vec3 returns the XYZ components.
func (v Vec4) Vec3() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// Dot returns the 4D dot product.
func (v Vec4) Dot(other Vec4) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z + v.W*other.W
}
