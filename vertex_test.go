package meshprep

import (
	"math"
	"testing"
)

func TestVertexBytesRoundTrip(t *testing.T) {
	vertices := []Vertex{
		{P: [3]float32{1, 2, 3}, N: [3]float32{0, 1, 0}, T: [2]float32{0.25, 0.75}},
		{P: [3]float32{-4, 5.5, 0}, N: [3]float32{0.577, 0.577, 0.577}, T: [2]float32{1, 0}},
	}

	buf := VertexBytes(vertices)
	if len(buf) != len(vertices)*VertexSize {
		t.Fatalf("serialized %d bytes, want %d", len(buf), len(vertices)*VertexSize)
	}
	for i, want := range vertices {
		if got := VertexFromBytes(buf[i*VertexSize:]); got != want {
			t.Fatalf("vertex %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestPackVertexSizes(t *testing.T) {
	v := Vertex{P: [3]float32{1, 2, 3}, N: [3]float32{0, 0, 1}, T: [2]float32{0.5, 0.5}}

	packed := AppendPackedVertex(nil, PackVertex(v))
	if len(packed) != PackedVertexSize {
		t.Fatalf("PackedVertex serializes to %d bytes, want %d", len(packed), PackedVertexSize)
	}

	oct := AppendPackedVertexOct(nil, PackVertexOct(v))
	if len(oct) != PackedVertexOctSize {
		t.Fatalf("PackedVertexOct serializes to %d bytes, want %d", len(oct), PackedVertexOctSize)
	}
}

func TestPackVertexQuantization(t *testing.T) {
	v := Vertex{P: [3]float32{1, -2, 0.5}, N: [3]float32{0, 0, 1}, T: [2]float32{0.25, 1}}
	p := PackVertex(v)

	if p.P[0] != QuantizeHalf(1) || p.P[1] != QuantizeHalf(-2) || p.P[2] != QuantizeHalf(0.5) {
		t.Fatalf("packed positions %v", p.P)
	}
	if p.P[3] != 0 {
		t.Fatalf("position pad = %d, want 0", p.P[3])
	}
	if p.N != [4]int8{0, 0, 127, 0} {
		t.Fatalf("packed normal = %v, want [0 0 127 0]", p.N)
	}
	if p.T[0] != QuantizeHalf(0.25) || p.T[1] != QuantizeHalf(1) {
		t.Fatalf("packed UVs %v", p.T)
	}
}

func TestPackVertexOctNormals(t *testing.T) {
	tests := []struct {
		name string
		n    [3]float32
	}{
		{"posZ", [3]float32{0, 0, 1}},
		{"negZ", [3]float32{0, 0, -1}},
		{"posX", [3]float32{1, 0, 0}},
		{"diag", [3]float32{0.577, 0.577, 0.577}},
		{"lowerDiag", [3]float32{0.577, -0.577, -0.577}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PackVertexOct(Vertex{N: tt.n})
			got := decodeOctNormal(p.N)

			dot := float64(got[0]*tt.n[0] + got[1]*tt.n[1] + got[2]*tt.n[2])
			if dot < 0.99 {
				t.Fatalf("decoded normal %v too far from %v (dot %v)", got, tt.n, dot)
			}
		})
	}
}

// decodeOctNormal reverses the octahedron mapping of PackVertexOct.
func decodeOctNormal(enc [2]uint8) [3]float32 {
	u := float32(int8(enc[0])) / 127
	v := float32(int8(enc[1])) / 127

	z := 1 - absf(u) - absf(v)
	x, y := u, v
	if z < 0 {
		x = (1 - absf(v)) * signf(u)
		y = (1 - absf(u)) * signf(v)
	}

	l := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	return [3]float32{x / l, y / l, z / l}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func signf(v float32) float32 {
	if v >= 0 {
		return 1
	}
	return -1
}

func TestCalcPosOffsetAndScale(t *testing.T) {
	pos := Positions{
		{-1, 2, 0},
		{3, 2, 0},
		{0, 8, -2},
	}

	offset, scale := CalcPosOffsetAndScale(pos)
	if offset != [3]float32{-1, 2, -2} {
		t.Fatalf("offset = %v, want [-1 2 -2]", offset)
	}
	if scale != 6 {
		t.Fatalf("scale = %v, want 6 (largest extent)", scale)
	}

	_, inv := CalcPosOffsetAndScaleInverse(pos)
	if inv != 1.0/6 {
		t.Fatalf("inverse scale = %v, want 1/6", inv)
	}
}

func TestCalcPosOffsetAndScaleDegenerate(t *testing.T) {
	offset, scale := CalcPosOffsetAndScale(Positions{})
	if offset != [3]float32{} || scale != 0 {
		t.Fatalf("empty mesh: offset %v scale %v", offset, scale)
	}

	_, inv := CalcPosOffsetAndScaleInverse(Positions{{1, 1, 1}})
	if inv != 0 {
		t.Fatalf("single point inverse scale = %v, want 0", inv)
	}
}

func TestConvertIndices(t *testing.T) {
	narrow, err := ConvertIndices32To16([]uint32{0, 65535, 42})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if narrow[1] != 65535 || narrow[2] != 42 {
		t.Fatalf("converted = %v", narrow)
	}

	if _, err := ConvertIndices32To16([]uint32{0, 65536, 1}); err == nil {
		t.Fatal("expected error for index 65536")
	}

	wide := ConvertIndices16To32(narrow)
	for i := range narrow {
		if wide[i] != uint32(narrow[i]) {
			t.Fatalf("widened = %v", wide)
		}
	}
}
