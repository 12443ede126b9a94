package meshprep

import "fmt"

// OptimizeVertexFetch reorders vertex records so that the index stream
// references them in near-sequential order, improving vertex fetch cache
// behavior. indices is rewritten in place; the reordered records are
// written to dst, which must hold len(vertices) bytes and may alias
// vertices. Returns the number of vertices referenced by the index stream;
// unreferenced records are dropped, so only that many records of dst are
// meaningful. Run this after all triangle reordering: the result depends
// on the final index order.
func OptimizeVertexFetch(dst []byte, indices []uint32, vertices []byte, stride int) int {
	if stride <= 0 {
		panic("meshprep: vertex stride must be positive")
	}
	if len(vertices)%stride != 0 {
		panic("meshprep: vertex data length must be a multiple of stride")
	}
	if len(dst) < len(vertices) {
		panic(fmt.Sprintf("meshprep: destination holds %d bytes, need %d", len(dst), len(vertices)))
	}
	vertexCount := len(vertices) / stride
	validateIndexStream(indices, vertexCount)

	src := vertices
	if len(vertices) > 0 && len(dst) > 0 && &dst[0] == &vertices[0] {
		src = append([]byte(nil), vertices...)
	}

	remap := make([]uint32, vertexCount)
	for v := range remap {
		remap[v] = UnusedIndex
	}

	next := uint32(0)
	for i, idx := range indices {
		r := remap[idx]
		if r == UnusedIndex {
			r = next
			remap[idx] = r
			copy(dst[int(r)*stride:], src[int(idx)*stride:int(idx+1)*stride])
			next++
		}
		indices[i] = r
	}
	return int(next)
}

// OptimizeVertexFetchRemap is the decoupled form of OptimizeVertexFetch
// for meshes with several attribute streams sharing one topology: it
// returns the first-touch remap table (UnusedIndex for unreferenced
// vertices) and the referenced vertex count, to be applied with
// RemapIndexBuffer and RemapVertexBuffer per stream.
func OptimizeVertexFetchRemap(indices []uint32, vertexCount int) ([]uint32, int) {
	validateIndexStream(indices, vertexCount)

	remap := make([]uint32, vertexCount)
	for v := range remap {
		remap[v] = UnusedIndex
	}

	next := uint32(0)
	for _, idx := range indices {
		if remap[idx] == UnusedIndex {
			remap[idx] = next
			next++
		}
	}
	return remap, int(next)
}
