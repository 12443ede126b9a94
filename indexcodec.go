package meshprep

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// The index stream format is one tag byte followed by one codeword group per
// triangle. Each group starts with a control byte: the high nibble selects a
// recently seen edge (0 means none), the low nibble is the vertex code of the
// first transmitted vertex. A triangle that reuses an edge transmits only its
// third vertex; otherwise two more vertex bytes follow, each carrying a code
// in the low nibble with the high nibble reserved as zero.
//
// Vertex codes:
//
//	0x0       next-sequence predictor; advances only when used
//	0x1..0xD  reference into a 13 entry vertex fifo, most recent first
//	0xE       explicit zigzag varint delta from the last explicit value
//	0xF       reserved, rejected
//
// After every triangle both sides push the reversed directed edges of the
// emitted rotation into a 15 entry edge fifo and the vertices that were not
// resolved through the vertex fifo into the vertex fifo. Encoder and decoder
// must mutate this state identically or fifo references diverge.
const (
	indexCodeNext     = 0x0
	indexCodeExplicit = 0xE

	indexEdgeFifoSize   = 15
	indexVertexFifoSize = 13
)

type indexCodecState struct {
	edges     [indexEdgeFifoSize][2]uint32
	edgeCount int
	verts     [indexVertexFifoSize]uint32
	vertCount int
	next      uint32
	last      uint32
}

func (s *indexCodecState) pushEdge(a, b uint32) {
	if s.edgeCount < indexEdgeFifoSize {
		s.edgeCount++
	}
	copy(s.edges[1:s.edgeCount], s.edges[:s.edgeCount-1])
	s.edges[0] = [2]uint32{a, b}
}

func (s *indexCodecState) pushVertex(v uint32) {
	if s.vertCount < indexVertexFifoSize {
		s.vertCount++
	}
	copy(s.verts[1:s.vertCount], s.verts[:s.vertCount-1])
	s.verts[0] = v
}

// pushCoded records a vertex that was transmitted as a predictor hit or an
// explicit value. Fifo referenced vertices stay where they are.
func (s *indexCodecState) pushCoded(code byte, v uint32) {
	if code == indexCodeNext || code == indexCodeExplicit {
		s.pushVertex(v)
	}
}

// findEdge looks for a directed edge of triangle (a, b, c) in the edge fifo.
// It returns the slot and the rotation that moves the matched edge to the
// triangle front, or -1 when no edge matches.
func (s *indexCodecState) findEdge(a, b, c uint32) (int, int) {
	for slot := 0; slot < s.edgeCount; slot++ {
		x, y := s.edges[slot][0], s.edges[slot][1]
		switch {
		case x == a && y == b:
			return slot, 0
		case x == b && y == c:
			return slot, 1
		case x == c && y == a:
			return slot, 2
		}
	}
	return -1, 0
}

func (s *indexCodecState) findVertex(v uint32) int {
	for slot := 0; slot < s.vertCount; slot++ {
		if s.verts[slot] == v {
			return slot
		}
	}
	return -1
}

// vertexCode classifies v against the predictor state. For explicit vertices
// the zigzag coded delta payload is returned alongside the code.
func (s *indexCodecState) vertexCode(v uint32) (byte, uint32) {
	if v == s.next {
		s.next++
		return indexCodeNext, 0
	}
	if slot := s.findVertex(v); slot >= 0 {
		return byte(1 + slot), 0
	}
	delta := zigzagEncode(int32(v - s.last))
	s.last = v
	return indexCodeExplicit, delta
}

// decodeVertex resolves one vertex code, consuming payload bytes as needed.
func (s *indexCodecState) decodeVertex(r *streamReader, code byte) uint32 {
	switch {
	case code == indexCodeNext:
		v := s.next
		s.next++
		return v
	case code < indexCodeExplicit:
		slot := int(code) - 1
		if slot >= s.vertCount {
			r.fail(fmt.Errorf("meshprep: vertex fifo slot %d referenced with %d entries: %w", slot, s.vertCount, ErrMalformed))
			return 0
		}
		return s.verts[slot]
	case code == indexCodeExplicit:
		v := s.last + uint32(zigzagDecode(r.readUvarint()))
		s.last = v
		return v
	default:
		r.fail(fmt.Errorf("meshprep: reserved vertex code 0x%X: %w", code, ErrMalformed))
		return 0
	}
}

// EncodeIndexBufferBound returns a destination size guaranteed to fit the
// encoded form of any valid index stream with the given dimensions.
func EncodeIndexBufferBound(indexCount, vertexCount int) int {
	if indexCount < 0 || indexCount%3 != 0 {
		panic("meshprep: index count must be a non-negative multiple of 3")
	}
	if vertexCount < 0 {
		panic("meshprep: vertex count must not be negative")
	}

	// An explicit vertex costs its code byte plus a zigzag varint whose
	// magnitude is bounded by the vertex count.
	deltaBits := bits.Len32(uint32(vertexCount)) + 1
	varintMax := (deltaBits + 6) / 7
	return 1 + (indexCount/3)*(3+3*varintMax)
}

// EncodeIndexBuffer encodes a triangle list into a compact byte stream that
// DecodeIndexBuffer reverses. Triangles survive the round trip exactly up to
// cyclic rotation; winding is never mirrored. Streams that have been through
// OptimizeVertexCache encode substantially smaller because consecutive
// triangles share fifo resident edges and vertices.
//
// If dst is nil a buffer of EncodeIndexBufferBound bytes is allocated.
// Otherwise dst must be at least that large or EncodeIndexBuffer panics.
// The encoded prefix of dst is returned.
func EncodeIndexBuffer(dst []byte, indices []uint32, vertexCount int) []byte {
	validateIndexStream(indices, vertexCount)

	bound := EncodeIndexBufferBound(len(indices), vertexCount)
	if dst == nil {
		dst = make([]byte, 0, bound)
	} else {
		if len(dst) < bound {
			panic("meshprep: destination smaller than EncodeIndexBufferBound")
		}
		dst = dst[:0]
	}

	dst = append(dst, indexCodecTag)

	var state indexCodecState
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]

		if slot, rot := state.findEdge(a, b, c); slot >= 0 {
			switch rot {
			case 1:
				a, b, c = b, c, a
			case 2:
				a, b, c = c, a, b
			}
			code, delta := state.vertexCode(c)
			dst = append(dst, byte(slot+1)<<4|code)
			if code == indexCodeExplicit {
				dst = appendUvarint(dst, delta)
			}
			state.pushCoded(code, c)
		} else {
			codeA, deltaA := state.vertexCode(a)
			dst = append(dst, codeA)
			if codeA == indexCodeExplicit {
				dst = appendUvarint(dst, deltaA)
			}
			codeB, deltaB := state.vertexCode(b)
			dst = append(dst, codeB)
			if codeB == indexCodeExplicit {
				dst = appendUvarint(dst, deltaB)
			}
			codeC, deltaC := state.vertexCode(c)
			dst = append(dst, codeC)
			if codeC == indexCodeExplicit {
				dst = appendUvarint(dst, deltaC)
			}
			state.pushCoded(codeA, a)
			state.pushCoded(codeB, b)
			state.pushCoded(codeC, c)
		}

		state.pushEdge(b, a)
		state.pushEdge(c, b)
		state.pushEdge(a, c)
	}
	return dst
}

// decodeIndexStream parses an encoded stream of indexCount indices and hands
// each decoded index to emit in order. The stream must consume len(data)
// bytes exactly.
func decodeIndexStream(indexCount int, data []byte, emit func(v uint32) error) error {
	r := &streamReader{data: data}
	if tag := r.readByte(); r.err == nil && tag != indexCodecTag {
		return fmt.Errorf("meshprep: unrecognized index stream tag 0x%02X: %w", tag, ErrFormat)
	}

	var state indexCodecState
	for t := 0; t < indexCount/3 && r.err == nil; t++ {
		ctrl := r.readByte()
		if r.err != nil {
			break
		}

		var a, b, c uint32
		if edge := int(ctrl >> 4); edge != 0 {
			slot := edge - 1
			if slot >= state.edgeCount {
				r.fail(fmt.Errorf("meshprep: edge fifo slot %d referenced with %d entries: %w", slot, state.edgeCount, ErrMalformed))
				break
			}
			a, b = state.edges[slot][0], state.edges[slot][1]

			codeC := ctrl & 0x0F
			c = state.decodeVertex(r, codeC)
			state.pushCoded(codeC, c)
		} else {
			codeA := ctrl & 0x0F
			a = state.decodeVertex(r, codeA)

			byteB := r.readByte()
			if r.err == nil && byteB&0xF0 != 0 {
				r.fail(fmt.Errorf("meshprep: reserved bits set in vertex byte 0x%02X: %w", byteB, ErrMalformed))
			}
			b = state.decodeVertex(r, byteB&0x0F)

			byteC := r.readByte()
			if r.err == nil && byteC&0xF0 != 0 {
				r.fail(fmt.Errorf("meshprep: reserved bits set in vertex byte 0x%02X: %w", byteC, ErrMalformed))
			}
			c = state.decodeVertex(r, byteC&0x0F)

			state.pushCoded(codeA, a)
			state.pushCoded(byteB&0x0F, b)
			state.pushCoded(byteC&0x0F, c)
		}
		if r.err != nil {
			break
		}

		state.pushEdge(b, a)
		state.pushEdge(c, b)
		state.pushEdge(a, c)

		if err := emit(a); err != nil {
			return err
		}
		if err := emit(b); err != nil {
			return err
		}
		if err := emit(c); err != nil {
			return err
		}
	}
	return r.finish()
}

// DecodeIndexBuffer decodes an encoded index stream into dst, writing
// indexCount little-endian indices of indexSize bytes each. indexSize must
// be 2 or 4.
//
// The count is carried out of band: the encoded stream must describe exactly
// indexCount indices in exactly len(data) bytes. Shorter inputs fail with an
// error wrapping ErrTruncated, extra bytes with ErrTrailingBytes, a foreign
// first byte with ErrFormat and corrupt codewords with ErrMalformed. Decode
// performs no out-of-bounds access and does not panic on arbitrary input
// bytes.
func DecodeIndexBuffer(dst []byte, indexCount, indexSize int, data []byte) error {
	if indexSize != 2 && indexSize != 4 {
		return fmt.Errorf("meshprep: index size %d: %w", indexSize, ErrInvalidWidth)
	}
	if indexCount < 0 || indexCount%3 != 0 {
		panic("meshprep: index count must be a non-negative multiple of 3")
	}
	if len(dst) < indexCount*indexSize {
		panic("meshprep: destination too small for decoded indices")
	}

	n := 0
	return decodeIndexStream(indexCount, data, func(v uint32) error {
		if indexSize == 2 {
			if v > 0xFFFF {
				return fmt.Errorf("meshprep: index %d does not fit 16 bits: %w", v, ErrMalformed)
			}
			binary.LittleEndian.PutUint16(dst[n*2:], uint16(v))
		} else {
			binary.LittleEndian.PutUint32(dst[n*4:], v)
		}
		n++
		return nil
	})
}

// DecodeIndexBuffer32 decodes an encoded index stream into a freshly
// allocated 32-bit index slice.
func DecodeIndexBuffer32(indexCount int, data []byte) ([]uint32, error) {
	if indexCount < 0 || indexCount%3 != 0 {
		panic("meshprep: index count must be a non-negative multiple of 3")
	}
	out := make([]uint32, 0, indexCount)
	err := decodeIndexStream(indexCount, data, func(v uint32) error {
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeIndexBuffer16 decodes an encoded index stream into a freshly
// allocated 16-bit index slice. The mesh must have at most 65536 vertices;
// indices beyond that range fail with ErrMalformed.
func DecodeIndexBuffer16(indexCount int, data []byte) ([]uint16, error) {
	if indexCount < 0 || indexCount%3 != 0 {
		panic("meshprep: index count must be a non-negative multiple of 3")
	}
	out := make([]uint16, 0, indexCount)
	err := decodeIndexStream(indexCount, data, func(v uint32) error {
		if v > 0xFFFF {
			return fmt.Errorf("meshprep: index %d does not fit 16 bits: %w", v, ErrMalformed)
		}
		out = append(out, uint16(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
