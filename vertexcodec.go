package meshprep

import "fmt"

// The vertex stream format is one tag byte followed by one block per byte
// lane of the record array. Lane k holds byte k of every record; each lane
// stores the records' bytes as wrapping deltas from the previous record,
// with the first record delta taken from zero. Attribute bytes change slowly
// across fetch-optimized vertex buffers, so the delta streams are dominated
// by zeros and compress well under run grouping:
//
//	0x00..0x7F  a run of control+1 zero deltas
//	0x80..0xFF  control-0x7F literal delta bytes follow
//
// Records are otherwise opaque; no field of the vertex layout is
// interpreted.

// EncodeVertexBufferBound returns a destination size guaranteed to fit the
// encoded form of any vertex buffer with the given dimensions. stride must
// be in [1, 256].
func EncodeVertexBufferBound(count, stride int) int {
	if count < 0 {
		panic("meshprep: vertex count must not be negative")
	}
	validateVertexStride(stride)

	// Per lane: every delta appears at most once as a literal, plus run
	// control bytes. Grouping overhead stays below one control byte per
	// 128 deltas plus a small constant for runs cut short at lane ends.
	perLane := count + count/128 + 6
	return 1 + stride*perLane
}

// EncodeVertexBuffer encodes an array of fixed-stride vertex records into a
// compact byte stream that DecodeVertexBuffer reverses bit for bit.
// len(vertices) must be a multiple of stride.
//
// If dst is nil a buffer of EncodeVertexBufferBound bytes is allocated.
// Otherwise dst must be at least that large or EncodeVertexBuffer panics.
// The encoded prefix of dst is returned.
func EncodeVertexBuffer(dst []byte, vertices []byte, stride int) []byte {
	validateVertexStride(stride)
	if len(vertices)%stride != 0 {
		panic("meshprep: vertex data length must be a multiple of stride")
	}
	count := len(vertices) / stride

	bound := EncodeVertexBufferBound(count, stride)
	if dst == nil {
		dst = make([]byte, 0, bound)
	} else {
		if len(dst) < bound {
			panic("meshprep: destination smaller than EncodeVertexBufferBound")
		}
		dst = dst[:0]
	}

	dst = append(dst, vertexCodecTag)
	if count == 0 {
		return dst
	}

	deltas := make([]byte, count)
	for k := 0; k < stride; k++ {
		prev := byte(0)
		for r := 0; r < count; r++ {
			v := vertices[r*stride+k]
			deltas[r] = v - prev
			prev = v
		}
		dst = appendDeltaRuns(dst, deltas)
	}
	return dst
}

// appendDeltaRuns groups one lane's delta stream into zero runs and literal
// runs. A literal run absorbs isolated zeros; only two consecutive zeros or
// the lane end terminate it, which keeps control overhead low on noisy
// lanes.
func appendDeltaRuns(dst []byte, deltas []byte) []byte {
	for i := 0; i < len(deltas); {
		if deltas[i] == 0 {
			n := 1
			for i+n < len(deltas) && n < 128 && deltas[i+n] == 0 {
				n++
			}
			dst = append(dst, byte(n-1))
			i += n
		} else {
			n := 1
			for i+n < len(deltas) && n < 128 {
				if deltas[i+n] == 0 && (i+n+1 == len(deltas) || deltas[i+n+1] == 0) {
					break
				}
				n++
			}
			dst = append(dst, byte(0x7F+n))
			dst = append(dst, deltas[i:i+n]...)
			i += n
		}
	}
	return dst
}

// DecodeVertexBuffer decodes an encoded vertex stream into dst, writing
// count records of stride bytes each. The decoded bytes are identical to
// the bytes given to EncodeVertexBuffer.
//
// Dimensions are carried out of band: the stream must describe exactly
// count records in exactly len(data) bytes. Shorter inputs fail with an
// error wrapping ErrTruncated, extra bytes with ErrTrailingBytes, a foreign
// first byte with ErrFormat and runs that overflow a lane with ErrMalformed.
// Decode performs no out-of-bounds access and does not panic on arbitrary
// input bytes.
func DecodeVertexBuffer(dst []byte, count, stride int, data []byte) error {
	validateVertexStride(stride)
	if count < 0 {
		panic("meshprep: vertex count must not be negative")
	}
	if len(dst) < count*stride {
		panic("meshprep: destination too small for decoded vertices")
	}

	r := &streamReader{data: data}
	if tag := r.readByte(); r.err == nil && tag != vertexCodecTag {
		return fmt.Errorf("meshprep: unrecognized vertex stream tag 0x%02X: %w", tag, ErrFormat)
	}

	for k := 0; k < stride && r.err == nil; k++ {
		acc := byte(0)
		row := 0
		for row < count && r.err == nil {
			ctrl := r.readByte()
			if r.err != nil {
				break
			}
			if ctrl < 0x80 {
				n := int(ctrl) + 1
				if n > count-row {
					r.fail(fmt.Errorf("meshprep: zero run of %d exceeds %d remaining records: %w", n, count-row, ErrMalformed))
					break
				}
				for j := 0; j < n; j++ {
					dst[row*stride+k] = acc
					row++
				}
			} else {
				n := int(ctrl) - 0x7F
				if n > count-row {
					r.fail(fmt.Errorf("meshprep: literal run of %d exceeds %d remaining records: %w", n, count-row, ErrMalformed))
					break
				}
				lits := r.readBytes(n)
				if r.err != nil {
					break
				}
				for _, d := range lits {
					acc += d
					dst[row*stride+k] = acc
					row++
				}
			}
		}
	}
	return r.finish()
}

// DecodeVertexBufferAlloc decodes an encoded vertex stream into a freshly
// allocated buffer of count*stride bytes.
func DecodeVertexBufferAlloc(count, stride int, data []byte) ([]byte, error) {
	validateVertexStride(stride)
	if count < 0 {
		panic("meshprep: vertex count must not be negative")
	}
	dst := make([]byte, count*stride)
	if err := DecodeVertexBuffer(dst, count, stride, data); err != nil {
		return nil, err
	}
	return dst, nil
}

func validateVertexStride(stride int) {
	if stride < 1 || stride > 256 {
		panic("meshprep: vertex stride must be in [1..256]")
	}
}
