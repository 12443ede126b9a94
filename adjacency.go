package meshprep

import "fmt"

func validateIndexStream(indices []uint32, vertexCount int) {
	if len(indices)%3 != 0 {
		panic("meshprep: index count must be a multiple of 3")
	}
	for _, idx := range indices {
		if int(idx) >= vertexCount {
			panic(fmt.Sprintf("meshprep: index %d out of range for %d vertices", idx, vertexCount))
		}
	}
}

func isDegenerate(a, b, c uint32) bool {
	return a == b || b == c || a == c
}

// triangleAdjacency maps vertices to the triangles referencing them, in
// CSR form. Degenerate triangles are left out so they never influence
// valence or fanning decisions.
type triangleAdjacency struct {
	counts  []uint32
	offsets []uint32
	data    []uint32
}

func buildTriangleAdjacency(indices []uint32, vertexCount int) triangleAdjacency {
	adj := triangleAdjacency{
		counts:  make([]uint32, vertexCount),
		offsets: make([]uint32, vertexCount),
	}

	faceCount := len(indices) / 3
	total := 0
	for t := 0; t < faceCount; t++ {
		a, b, c := indices[t*3], indices[t*3+1], indices[t*3+2]
		if isDegenerate(a, b, c) {
			continue
		}
		adj.counts[a]++
		adj.counts[b]++
		adj.counts[c]++
		total += 3
	}

	offset := uint32(0)
	for v := range adj.offsets {
		adj.offsets[v] = offset
		offset += adj.counts[v]
	}

	adj.data = make([]uint32, total)
	fill := make([]uint32, vertexCount)
	copy(fill, adj.offsets)
	for t := 0; t < faceCount; t++ {
		a, b, c := indices[t*3], indices[t*3+1], indices[t*3+2]
		if isDegenerate(a, b, c) {
			continue
		}
		adj.data[fill[a]] = uint32(t)
		fill[a]++
		adj.data[fill[b]] = uint32(t)
		fill[b]++
		adj.data[fill[c]] = uint32(t)
		fill[c]++
	}
	return adj
}
