package meshprep

import "testing"

func TestGenerateShadowIndicesCollapsesSeams(t *testing.T) {
	// Two quads sharing an attribute seam: vertices 2,3 and 4,5 sit at
	// identical positions but would differ in normals or UVs.
	pos := Positions{
		{0, 0, 0}, {0, 1, 0},
		{1, 0, 0}, {1, 1, 0},
		{1, 0, 0}, {1, 1, 0},
		{2, 0, 0}, {2, 1, 0},
	}
	indices := []uint32{0, 2, 1, 1, 2, 3, 4, 6, 5, 5, 6, 7}

	shadow := GenerateShadowIndices(indices, pos)
	if len(shadow) != len(indices) {
		t.Fatalf("shadow stream length %d, want %d", len(shadow), len(indices))
	}

	// Seam vertices collapse to their first-referenced representative.
	want := []uint32{0, 2, 1, 1, 2, 3, 2, 6, 3, 3, 6, 7}
	for i := range want {
		if shadow[i] != want[i] {
			t.Fatalf("shadow = %v, want %v", shadow, want)
		}
	}

	// The original indices are untouched.
	if indices[6] != 4 {
		t.Fatal("input index stream was modified")
	}
}

func TestGenerateShadowIndicesBitExact(t *testing.T) {
	// Positions differing only in float representation (0 vs -0) must NOT
	// collapse; comparison is bit-exact.
	pos := Positions{
		{0, 0, 0},
		{negZero(), 0, 0},
		{1, 0, 0},
	}
	indices := []uint32{0, 1, 2}

	shadow := GenerateShadowIndices(indices, pos)
	if shadow[0] == shadow[1] {
		t.Fatal("0 and -0 positions collapsed; comparison must be bit-exact")
	}
}

func negZero() float32 {
	z := float32(0)
	return -z
}

func TestGenerateShadowIndicesMulti(t *testing.T) {
	// Stream A: 4-byte records, vertices 0 and 2 identical.
	// Stream B: 2-byte records, all identical.
	a := []byte{1, 1, 1, 1, 2, 2, 2, 2, 1, 1, 1, 1}
	b := []byte{9, 9, 9, 9, 9, 9}
	indices := []uint32{0, 1, 2}

	shadow := GenerateShadowIndicesMulti(indices, 3, []VertexStream{
		{Data: a, Offset: 0, Size: 4, Stride: 4},
		{Data: b, Offset: 0, Size: 2, Stride: 2},
	})

	want := []uint32{0, 1, 0}
	for i := range want {
		if shadow[i] != want[i] {
			t.Fatalf("shadow = %v, want %v", shadow, want)
		}
	}
}

func TestGenerateShadowIndicesMultiOffset(t *testing.T) {
	// Only the selected byte range participates in equality: the records
	// differ outside [1, 3) and match inside.
	data := []byte{
		0xAA, 1, 2, 0xBB,
		0xCC, 1, 2, 0xDD,
	}
	indices := []uint32{0, 1, 0}

	shadow := GenerateShadowIndicesMulti(indices, 2, []VertexStream{
		{Data: data, Offset: 1, Size: 2, Stride: 4},
	})

	if shadow[1] != shadow[0] {
		t.Fatalf("shadow = %v, records match on the selected range", shadow)
	}
}

func TestGenerateShadowIndicesMultiPanics(t *testing.T) {
	indices := []uint32{0, 1, 2}
	mustPanic(t, func() {
		GenerateShadowIndicesMulti(indices, 3, nil)
	})
	mustPanic(t, func() {
		GenerateShadowIndicesMulti(indices, 3, []VertexStream{
			{Data: make([]byte, 12), Offset: 2, Size: 4, Stride: 4},
		})
	})
	mustPanic(t, func() {
		GenerateShadowIndicesMulti(indices, 3, []VertexStream{
			{Data: make([]byte, 8), Offset: 0, Size: 4, Stride: 4},
		})
	})
}

func TestGenerateShadowIndicesTriangleCount(t *testing.T) {
	m := makeSphereLike()
	shadow := GenerateShadowIndices(m.indices, m.pos)
	if len(shadow) != len(m.indices) {
		t.Fatalf("triangle count changed: %d != %d", len(shadow)/3, len(m.indices)/3)
	}
	// Every shadow index must reference a position bit-identical to the
	// one the original index referenced.
	for i := range shadow {
		if m.pos[shadow[i]] != m.pos[m.indices[i]] {
			t.Fatalf("corner %d remapped across different positions", i)
		}
	}
}

type seamMesh struct {
	pos     Positions
	indices []uint32
}

// makeSphereLike builds a small mesh with a duplicated seam column, the
// shape a UV-sphere or unwrapped cylinder has.
func makeSphereLike() seamMesh {
	var m seamMesh
	const rows = 4
	for r := 0; r <= rows; r++ {
		for c := 0; c <= 4; c++ {
			// Column 4 duplicates column 0's position.
			x := float32(c % 4)
			m.pos = append(m.pos, [3]float32{x, float32(r), x * x})
		}
	}
	pitch := uint32(5)
	for r := uint32(0); r < rows; r++ {
		for c := uint32(0); c < 4; c++ {
			v00 := r*pitch + c
			m.indices = append(m.indices, v00, v00+pitch, v00+1)
			m.indices = append(m.indices, v00+1, v00+pitch, v00+pitch+1)
		}
	}
	return m
}
