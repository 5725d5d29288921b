package registry

import "testing"

func TestConstantsPacking(t *testing.T) {
	// 3 matrices + 5 vec4s, tightly packed
	want := 3*64 + 5*16
	if ConstantsSize != want {
		t.Errorf("ConstantsSize: got %d, want %d", ConstantsSize, want)
	}
	if AlignedConstantsSize%ConstantAlign != 0 {
		t.Errorf("aligned size %d not a multiple of %d", AlignedConstantsSize, ConstantAlign)
	}
	if AlignedConstantsSize < ConstantsSize {
		t.Error("aligned size smaller than struct")
	}

	c := DrawConstants{}
	if len(c.Bytes()) != ConstantsSize {
		t.Errorf("Bytes length %d, want %d", len(c.Bytes()), ConstantsSize)
	}
}

func TestRingOffsetsUniqueAndAligned(t *testing.T) {
	ring := NewRing(8)
	ring.Reset(0)

	seen := map[int]bool{}
	for i := 0; i < 8; i++ {
		off, ok := ring.Alloc()
		if !ok {
			t.Fatalf("alloc %d failed within budget", i)
		}
		if off%ConstantAlign != 0 {
			t.Errorf("offset %d not %d-byte aligned", off, ConstantAlign)
		}
		if seen[off] {
			t.Errorf("offset %d handed out twice", off)
		}
		seen[off] = true
	}

	if ring.Used() != 8 {
		t.Errorf("used: got %d, want 8", ring.Used())
	}
	if _, ok := ring.Alloc(); ok {
		t.Error("alloc beyond budget should fail")
	}
}

func TestRingHalvesDoNotOverlap(t *testing.T) {
	ring := NewRing(4)

	ring.Reset(0)
	frame0 := map[int]bool{}
	for {
		off, ok := ring.Alloc()
		if !ok {
			break
		}
		frame0[off] = true
	}

	ring.Reset(1)
	for {
		off, ok := ring.Alloc()
		if !ok {
			break
		}
		if frame0[off] {
			t.Errorf("frame 1 reused frame 0 offset %d", off)
		}
		if off >= ring.TotalSize() {
			t.Errorf("offset %d beyond buffer size %d", off, ring.TotalSize())
		}
	}
}

func TestRingResetRestartsOffsets(t *testing.T) {
	ring := NewRing(4)
	ring.Reset(0)
	first, _ := ring.Alloc()
	ring.Alloc()

	ring.Reset(0)
	again, _ := ring.Alloc()
	if again != first {
		t.Errorf("reset should restart offsets: got %d, want %d", again, first)
	}
	if ring.Used() != 1 {
		t.Errorf("used after reset+alloc: got %d, want 1", ring.Used())
	}
}

func TestMeshDataValidate(t *testing.T) {
	vertex := make([]float32, FloatsPerVertex)

	good := &MeshData{
		Vertices: append(append(append([]float32{}, vertex...), vertex...), vertex...),
		Indices:  []uint32{0, 1, 2},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("valid mesh rejected: %v", err)
	}

	badCount := &MeshData{Vertices: good.Vertices, Indices: []uint32{0, 1}}
	if err := badCount.Validate(); err == nil {
		t.Error("non-multiple-of-3 index count accepted")
	}

	badRange := &MeshData{Vertices: good.Vertices, Indices: []uint32{0, 1, 3}}
	if err := badRange.Validate(); err == nil {
		t.Error("out-of-range index accepted")
	}

	badVerts := &MeshData{Vertices: make([]float32, FloatsPerVertex+1), Indices: []uint32{0, 0, 0}}
	if err := badVerts.Validate(); err == nil {
		t.Error("ragged vertex array accepted")
	}
}

func TestSlotTableReservedAndMonotonic(t *testing.T) {
	s := newSlotTable()

	first, err := s.alloc()
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if first <= SlotDefaultWhite {
		t.Errorf("first dynamic slot %d collides with reserved slots", first)
	}

	second, _ := s.alloc()
	if second != first+1 {
		t.Errorf("slots not monotonic: %d then %d", first, second)
	}

	s.set(first, 42)
	if s.get(first) != 42 {
		t.Error("slot lookup failed")
	}
	s.set(first, 99)
	if s.get(first) != 99 {
		t.Error("slot rewrite failed")
	}
}

func TestCubemapValidate(t *testing.T) {
	face := make([]float32, 2*2*3)
	mip := make([]float32, 1*1*3)

	good := &CubemapData{
		Size:  2,
		Faces: [][6][]float32{{face, face, face, face, face, face}, {mip, mip, mip, mip, mip, mip}},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("valid cubemap rejected: %v", err)
	}

	bad := &CubemapData{
		Size:  2,
		Faces: [][6][]float32{{face, face, face, mip, face, face}},
	}
	if err := bad.Validate(); err == nil {
		t.Error("short face accepted")
	}
}
