package meshprep

import (
	"encoding/binary"
	"math"
)

// Record sizes in bytes for the canonical vertex layouts.
const (
	VertexSize          = 32
	PackedVertexSize    = 16
	PackedVertexOctSize = 12
)

// Vertex is the canonical interleaved vertex used by the tools and tests.
// Library operations do not require it; any fixed-stride layout works
// through VertexView.
type Vertex struct {
	P [3]float32
	N [3]float32
	T [2]float32
}

// PackedVertex stores half-precision positions and UVs and 8-bit snorm
// normals. The fourth position and normal components pad the record to a
// GPU-friendly 16 bytes.
type PackedVertex struct {
	P [4]uint16
	N [4]int8
	T [2]uint16
}

// PackedVertexOct stores the normal octahedron-encoded in 2 bytes,
// shrinking the record to 12 bytes.
type PackedVertexOct struct {
	P [3]uint16
	N [2]uint8
	T [2]uint16
}

func PackVertex(v Vertex) PackedVertex {
	var p PackedVertex
	p.P[0] = QuantizeHalf(v.P[0])
	p.P[1] = QuantizeHalf(v.P[1])
	p.P[2] = QuantizeHalf(v.P[2])
	p.P[3] = 0

	p.N[0] = int8(QuantizeSnorm(v.N[0], 8))
	p.N[1] = int8(QuantizeSnorm(v.N[1], 8))
	p.N[2] = int8(QuantizeSnorm(v.N[2], 8))
	p.N[3] = 0

	p.T[0] = QuantizeHalf(v.T[0])
	p.T[1] = QuantizeHalf(v.T[1])
	return p
}

func PackVertexOct(v Vertex) PackedVertexOct {
	var p PackedVertexOct
	p.P[0] = QuantizeHalf(v.P[0])
	p.P[1] = QuantizeHalf(v.P[1])
	p.P[2] = QuantizeHalf(v.P[2])

	nsum := abs32(v.N[0]) + abs32(v.N[1]) + abs32(v.N[2])
	nx := v.N[0] / nsum
	ny := v.N[1] / nsum
	nz := v.N[2]

	// fold the lower hemisphere onto the octahedron's upper half
	nu := nx
	nv := ny
	if nz < 0 {
		nu = (1 - abs32(ny)) * sign32(nx)
		nv = (1 - abs32(nx)) * sign32(ny)
	}

	p.N[0] = uint8(QuantizeSnorm(nu, 8))
	p.N[1] = uint8(QuantizeSnorm(nv, 8))

	p.T[0] = QuantizeHalf(v.T[0])
	p.T[1] = QuantizeHalf(v.T[1])
	return p
}

func abs32(v float32) float32 {
	return math.Float32frombits(math.Float32bits(v) &^ (1 << 31))
}

func sign32(v float32) float32 {
	if v >= 0 {
		return 1
	}
	return -1
}

// AppendVertex appends the little-endian encoding of v to dst.
func AppendVertex(dst []byte, v Vertex) []byte {
	for _, f := range [...]float32{v.P[0], v.P[1], v.P[2], v.N[0], v.N[1], v.N[2], v.T[0], v.T[1]} {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

func AppendPackedVertex(dst []byte, v PackedVertex) []byte {
	for _, h := range v.P {
		dst = binary.LittleEndian.AppendUint16(dst, h)
	}
	for _, n := range v.N {
		dst = append(dst, byte(n))
	}
	for _, h := range v.T {
		dst = binary.LittleEndian.AppendUint16(dst, h)
	}
	return dst
}

func AppendPackedVertexOct(dst []byte, v PackedVertexOct) []byte {
	for _, h := range v.P {
		dst = binary.LittleEndian.AppendUint16(dst, h)
	}
	dst = append(dst, v.N[0], v.N[1])
	for _, h := range v.T {
		dst = binary.LittleEndian.AppendUint16(dst, h)
	}
	return dst
}

// VertexBytes serializes vertices into VertexSize-stride records.
func VertexBytes(vertices []Vertex) []byte {
	out := make([]byte, 0, len(vertices)*VertexSize)
	for _, v := range vertices {
		out = AppendVertex(out, v)
	}
	return out
}

// VertexFromBytes decodes one VertexSize record.
func VertexFromBytes(b []byte) Vertex {
	var v Vertex
	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	v.P = [3]float32{f(0), f(1), f(2)}
	v.N = [3]float32{f(3), f(4), f(5)}
	v.T = [2]float32{f(6), f(7)}
	return v
}

// PackVertices quantizes vertices to PackedVertex records and returns the
// serialized bytes, ready for EncodeVertexBuffer.
func PackVertices(vertices []Vertex) []byte {
	out := make([]byte, 0, len(vertices)*PackedVertexSize)
	for _, v := range vertices {
		out = AppendPackedVertex(out, PackVertex(v))
	}
	return out
}

// PackVerticesOct is PackVertices with octahedron-encoded normals.
func PackVerticesOct(vertices []Vertex) []byte {
	out := make([]byte, 0, len(vertices)*PackedVertexOctSize)
	for _, v := range vertices {
		out = AppendPackedVertexOct(out, PackVertexOct(v))
	}
	return out
}

// CalcPosOffsetAndScale returns the minimum corner of the position bounds
// and the largest axis extent, the transform needed to reconstruct
// positions quantized into a unit cube.
func CalcPosOffsetAndScale(src PositionSource) ([3]float32, float32) {
	n := src.Count()
	if n == 0 {
		return [3]float32{}, 0
	}

	min := src.Position(0)
	max := min
	for i := 1; i < n; i++ {
		p := src.Position(i)
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}

	scale := max[0] - min[0]
	if e := max[1] - min[1]; e > scale {
		scale = e
	}
	if e := max[2] - min[2]; e > scale {
		scale = e
	}
	return min, scale
}

// CalcPosOffsetAndScaleInverse returns the offset with the reciprocal
// scale, or zero when the mesh is degenerate.
func CalcPosOffsetAndScaleInverse(src PositionSource) ([3]float32, float32) {
	offset, scale := CalcPosOffsetAndScale(src)
	if scale == 0 {
		return offset, 0
	}
	return offset, 1 / scale
}
