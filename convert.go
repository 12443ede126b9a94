package meshprep

import "fmt"

// ConvertIndices32To16 narrows an index buffer to 16 bits, for meshes with
// at most 65536 vertices.
func ConvertIndices32To16(indices []uint32) ([]uint16, error) {
	out := make([]uint16, len(indices))
	for i, idx := range indices {
		if idx > 0xffff {
			return nil, fmt.Errorf("meshprep: index %d at position %d does not fit in 16 bits", idx, i)
		}
		out[i] = uint16(idx)
	}
	return out, nil
}

// ConvertIndices16To32 widens a 16-bit index buffer.
func ConvertIndices16To32(indices []uint16) []uint32 {
	out := make([]uint32, len(indices))
	for i, idx := range indices {
		out[i] = uint32(idx)
	}
	return out
}
