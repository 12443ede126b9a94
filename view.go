package meshprep

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PositionSource yields vertex positions for the components that need
// spatial information (overdraw optimization and analysis, shadow index
// generation, quantization transforms).
type PositionSource interface {
	Count() int
	Position(i int) [3]float32
}

// Positions adapts a plain position slice to PositionSource.
type Positions [][3]float32

func (p Positions) Count() int                { return len(p) }
func (p Positions) Position(i int) [3]float32 { return p[i] }

// VertexSlice adapts a Vertex slice to PositionSource.
type VertexSlice []Vertex

func (s VertexSlice) Count() int                { return len(s) }
func (s VertexSlice) Position(i int) [3]float32 { return s[i].P }

// VertexView is a read-only strided view over fixed-size opaque vertex
// records that exposes the 3xfloat32 position stored at a fixed byte
// offset inside each record. The record bytes are never written.
type VertexView struct {
	data   []byte
	stride int
	offset int
	count  int
}

// NewVertexView validates the record layout and returns a view over data.
// The data length must be a whole number of records and the position must
// fit inside the record.
func NewVertexView(data []byte, stride, posOffset int) (*VertexView, error) {
	if stride <= 0 {
		return nil, fmt.Errorf("meshprep: vertex stride %d must be positive", stride)
	}
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("meshprep: vertex data length %d is not a multiple of stride %d", len(data), stride)
	}
	if posOffset < 0 || posOffset+12 > stride {
		return nil, fmt.Errorf("meshprep: position offset %d does not fit 12 bytes in stride %d", posOffset, stride)
	}
	return &VertexView{data: data, stride: stride, offset: posOffset, count: len(data) / stride}, nil
}

func (v *VertexView) Count() int { return v.count }

// Stride returns the record size in bytes.
func (v *VertexView) Stride() int { return v.stride }

func (v *VertexView) Position(i int) [3]float32 {
	base := i*v.stride + v.offset
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(v.data[base:])),
		math.Float32frombits(binary.LittleEndian.Uint32(v.data[base+4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(v.data[base+8:])),
	}
}
