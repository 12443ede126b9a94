package meshprep

import "math"

// VertexStream describes one attribute range inside a strided vertex
// buffer: Size bytes at Offset within every Stride-byte record of Data.
type VertexStream struct {
	Data   []byte
	Offset int
	Size   int
	Stride int
}

// GenerateShadowIndices builds an index stream for depth-only rendering.
// Vertices with bit-identical positions collapse to the first referenced
// one, so seams introduced by differing normals or texture coordinates do
// not split shadow geometry. The vertex buffer itself is left untouched and
// stays valid for both index streams.
func GenerateShadowIndices(indices []uint32, src PositionSource) []uint32 {
	vertexCount := src.Count()
	validateIndexStream(indices, vertexCount)

	remap := make([]uint32, vertexCount)
	for i := range remap {
		remap[i] = UnusedIndex
	}
	canon := make(map[[3]uint32]uint32, vertexCount)

	shadow := make([]uint32, len(indices))
	for i, index := range indices {
		if remap[index] == UnusedIndex {
			p := src.Position(int(index))
			key := [3]uint32{
				math.Float32bits(p[0]),
				math.Float32bits(p[1]),
				math.Float32bits(p[2]),
			}
			if first, ok := canon[key]; ok {
				remap[index] = first
			} else {
				canon[key] = index
				remap[index] = index
			}
		}
		shadow[i] = remap[index]
	}
	return shadow
}

// GenerateShadowIndicesMulti generalizes GenerateShadowIndices to vertices
// compared over arbitrary attribute ranges: two vertices collapse when the
// selected bytes of every stream match exactly.
func GenerateShadowIndicesMulti(indices []uint32, vertexCount int, streams []VertexStream) []uint32 {
	validateIndexStream(indices, vertexCount)
	if len(streams) == 0 {
		panic("meshprep: at least one vertex stream is required")
	}
	keySize := 0
	for _, s := range streams {
		if s.Stride <= 0 || s.Size <= 0 || s.Offset < 0 || s.Offset+s.Size > s.Stride {
			panic("meshprep: vertex stream bounds are inconsistent")
		}
		if len(s.Data) < vertexCount*s.Stride {
			panic("meshprep: vertex stream shorter than vertex count")
		}
		keySize += s.Size
	}

	remap := make([]uint32, vertexCount)
	for i := range remap {
		remap[i] = UnusedIndex
	}
	canon := make(map[string]uint32, vertexCount)
	key := make([]byte, 0, keySize)

	shadow := make([]uint32, len(indices))
	for i, index := range indices {
		if remap[index] == UnusedIndex {
			key = key[:0]
			for _, s := range streams {
				base := int(index)*s.Stride + s.Offset
				key = append(key, s.Data[base:base+s.Size]...)
			}
			if first, ok := canon[string(key)]; ok {
				remap[index] = first
			} else {
				canon[string(key)] = index
				remap[index] = index
			}
		}
		shadow[i] = remap[index]
	}
	return shadow
}
