package meshprep

// Stripify converts a triangle list into a single triangle strip. Greedy
// extension follows shared edges, so cache-optimized lists produce long runs
// with few joins.
//
// When restartIndex is nonzero, strips are joined with that marker and the
// index stream must not use it as a vertex. When restartIndex is zero,
// strips are stitched with degenerate triangles instead, padding one extra
// index whenever the joined strip would continue on the wrong parity and
// mirror the next triangle.
//
// Winding survives the round trip through Unstripify; triangle rotation may
// change. Degenerate input triangles have no strip representation and are
// dropped.
func Stripify(indices []uint32, restartIndex uint32) []uint32 {
	if len(indices)%3 != 0 {
		panic("meshprep: index count must be a multiple of 3")
	}
	if len(indices) == 0 {
		return nil
	}

	vertexCount := 0
	for _, index := range indices {
		if restartIndex != 0 && index == restartIndex {
			panic("meshprep: restart index collides with a vertex index")
		}
		if int(index) >= vertexCount {
			vertexCount = int(index) + 1
		}
	}

	adj := buildTriangleAdjacency(indices, vertexCount)

	triCount := len(indices) / 3
	emitted := make([]bool, triCount)
	strip := make([]uint32, 0, len(indices)*2)

	remaining := 0
	for t := 0; t < triCount; t++ {
		if isDegenerate(indices[t*3], indices[t*3+1], indices[t*3+2]) {
			emitted[t] = true
		} else {
			remaining++
		}
	}

	cursor := 0
	for remaining > 0 {
		for emitted[cursor] {
			cursor++
		}
		a, b, c := indices[cursor*3], indices[cursor*3+1], indices[cursor*3+2]
		emitted[cursor] = true
		remaining--

		switch {
		case len(strip) == 0:
			strip = append(strip, a, b, c)
		case restartIndex != 0:
			strip = append(strip, restartIndex, a, b, c)
		default:
			// Stitch: repeat the trailing vertex and the new leading
			// vertex. The extra repeat keeps the new triangle on even
			// parity so it renders unmirrored.
			last := strip[len(strip)-1]
			if len(strip)%2 == 0 {
				strip = append(strip, last, a)
			} else {
				strip = append(strip, last, a, a)
			}
			strip = append(strip, a, b, c)
		}

		// Extend while an unemitted triangle continues the trailing edge.
		for {
			n := len(strip)
			u, v := strip[n-2], strip[n-1]
			if (n-2)%2 != 0 {
				u, v = v, u
			}
			t, w := findStripNext(indices, adj, emitted, u, v)
			if t < 0 {
				break
			}
			emitted[t] = true
			remaining--
			strip = append(strip, w)
		}
	}
	return strip
}

// findStripNext looks for an unemitted triangle containing the directed edge
// (eu, ev) and returns its id plus the vertex completing it.
func findStripNext(indices []uint32, adj triangleAdjacency, emitted []bool, eu, ev uint32) (int, uint32) {
	if int(eu) >= len(adj.counts) {
		return -1, 0
	}
	start := adj.offsets[eu]
	for _, t := range adj.data[start : start+adj.counts[eu]] {
		if emitted[t] {
			continue
		}
		a, b, c := indices[t*3], indices[t*3+1], indices[t*3+2]
		switch {
		case a == eu && b == ev:
			return int(t), c
		case b == eu && c == ev:
			return int(t), a
		case c == eu && a == ev:
			return int(t), b
		}
	}
	return -1, 0
}

// Unstripify expands a triangle strip back into a triangle list, reversing
// Stripify for the same restartIndex. Odd strip positions unswap the leading
// vertex pair so winding comes out uniform, and degenerate triangles,
// including stitching padding, are dropped.
func Unstripify(strip []uint32, restartIndex uint32) []uint32 {
	var out []uint32

	segStart := 0
	for i := 0; i <= len(strip); i++ {
		if i < len(strip) && (restartIndex == 0 || strip[i] != restartIndex) {
			continue
		}
		seg := strip[segStart:i]
		for t := 0; t+2 < len(seg); t++ {
			a, b, c := seg[t], seg[t+1], seg[t+2]
			if t%2 != 0 {
				a, b = b, a
			}
			if isDegenerate(a, b, c) {
				continue
			}
			out = append(out, a, b, c)
		}
		segStart = i + 1
	}
	return out
}
