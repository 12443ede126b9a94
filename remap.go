package meshprep

import "fmt"

// UnusedIndex marks a source vertex that no triangle references in a
// remap table.
const UnusedIndex = ^uint32(0)

// GenerateVertexRemap builds a remap table that collapses byte-identical
// vertex records to a single vertex, assigning new indices in order of
// first reference. A nil index slice means the vertices form an unindexed
// triangle soup. Returns the remap table and the unique vertex count.
func GenerateVertexRemap(vertices []byte, stride int, indices []uint32) ([]uint32, int) {
	if stride <= 0 {
		panic("meshprep: vertex stride must be positive")
	}
	if len(vertices)%stride != 0 {
		panic("meshprep: vertex data length must be a multiple of stride")
	}
	vertexCount := len(vertices) / stride
	if indices != nil {
		validateIndexStream(indices, vertexCount)
	}

	remap := make([]uint32, vertexCount)
	for v := range remap {
		remap[v] = UnusedIndex
	}

	seen := make(map[string]uint32, vertexCount)
	next := uint32(0)
	touch := func(idx uint32) {
		if remap[idx] != UnusedIndex {
			return
		}
		key := string(vertices[int(idx)*stride : (int(idx)+1)*stride])
		if id, ok := seen[key]; ok {
			remap[idx] = id
			return
		}
		seen[key] = next
		remap[idx] = next
		next++
	}

	if indices == nil {
		for v := 0; v < vertexCount; v++ {
			touch(uint32(v))
		}
	} else {
		for _, idx := range indices {
			touch(idx)
		}
	}
	return remap, int(next)
}

// RemapIndexBuffer rewrites indices through a remap table. dst must have
// the same length as indices and may alias it. Every referenced vertex
// must have a mapping; hitting UnusedIndex is a caller bug.
func RemapIndexBuffer(dst, indices []uint32, remap []uint32) {
	if len(dst) != len(indices) {
		panic("meshprep: destination length must match index count")
	}
	validateIndexStream(indices, len(remap))

	for i, idx := range indices {
		r := remap[idx]
		if r == UnusedIndex {
			panic(fmt.Sprintf("meshprep: index %d references a vertex marked unused", idx))
		}
		dst[i] = r
	}
}

// RemapVertexBuffer writes each used source record to its remapped slot
// in dst. dst must hold uniqueCount records as returned alongside the
// remap table.
func RemapVertexBuffer(dst, vertices []byte, stride int, remap []uint32) {
	if stride <= 0 {
		panic("meshprep: vertex stride must be positive")
	}
	if len(vertices)%stride != 0 {
		panic("meshprep: vertex data length must be a multiple of stride")
	}
	if len(vertices)/stride != len(remap) {
		panic("meshprep: remap length must match vertex count")
	}

	for v, r := range remap {
		if r == UnusedIndex {
			continue
		}
		off := int(r) * stride
		if off+stride > len(dst) {
			panic(fmt.Sprintf("meshprep: destination holds %d bytes, remap writes at %d", len(dst), off+stride))
		}
		copy(dst[off:off+stride], vertices[v*stride:(v+1)*stride])
	}
}
