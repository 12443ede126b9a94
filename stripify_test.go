package meshprep

import "testing"

func TestStripifyRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
	}{
		{"twoTriangles", []uint32{0, 1, 2, 2, 1, 3}},
		{"fan", []uint32{0, 1, 2, 0, 2, 3, 0, 3, 4}},
		{"disconnected", []uint32{0, 1, 2, 10, 11, 12, 5, 6, 7}},
		{"withDegenerates", []uint32{0, 1, 2, 3, 3, 3, 2, 1, 4}},
	}

	for _, restart := range []uint32{0, ^uint32(0)} {
		for _, tt := range tests {
			name := tt.name + "/stitch"
			if restart != 0 {
				name = tt.name + "/restart"
			}
			t.Run(name, func(t *testing.T) {
				strip := Stripify(tt.indices, restart)
				back := Unstripify(strip, restart)

				// Degenerate input triangles have no strip form; drop
				// them from the expectation too.
				var want []uint32
				for i := 0; i+2 < len(tt.indices); i += 3 {
					a, b, c := tt.indices[i], tt.indices[i+1], tt.indices[i+2]
					if isDegenerate(a, b, c) {
						continue
					}
					want = append(want, a, b, c)
				}
				sameTriangles(t, back, want)
			})
		}
	}
}

func TestStripifyGridCompression(t *testing.T) {
	indices, vertexCount := makeGrid(30)
	opt := make([]uint32, len(indices))
	OptimizeVertexCache(opt, indices, vertexCount)

	for _, restart := range []uint32{0, ^uint32(0)} {
		strip := Stripify(opt, restart)
		if len(strip) >= len(opt) {
			t.Fatalf("restart %d: strip length %d not below list length %d",
				restart, len(strip), len(opt))
		}
		back := Unstripify(strip, restart)
		sameTriangles(t, back, opt)
	}
}

func TestStripifyPreservesWinding(t *testing.T) {
	indices, vertexCount := makeGrid(6)
	opt := make([]uint32, len(indices))
	OptimizeVertexCache(opt, indices, vertexCount)

	// canonicalTriangles keys are rotation-invariant but not
	// mirror-invariant; sameTriangles inside the round trip would catch a
	// flipped triangle.
	strip := Stripify(opt, 0)
	back := Unstripify(strip, 0)
	sameTriangles(t, back, opt)
	_ = vertexCount
}

func TestStripifyEmpty(t *testing.T) {
	if got := Stripify(nil, 0); got != nil {
		t.Fatalf("Stripify(nil) = %v, want nil", got)
	}
	if got := Unstripify(nil, 0); got != nil {
		t.Fatalf("Unstripify(nil) = %v, want nil", got)
	}
}

func TestStripifyRestartCollision(t *testing.T) {
	mustPanic(t, func() {
		Stripify([]uint32{0, 7, 2}, 7)
	})
}
