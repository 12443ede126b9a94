package meshprep

import "fmt"

// Format tags occupy byte 0 of every encoded stream. A stream that does not
// begin with the tag of the codec asked to decode it is rejected up front.
const (
	indexCodecTag  = 0xC1
	vertexCodecTag = 0xA1
)

// streamReader is a bounds checked cursor over an encoded stream. The first
// failure sticks; later reads return zero values, so decode loops only need
// to check the error once per iteration.
type streamReader struct {
	data []byte
	off  int
	err  error
}

func (r *streamReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *streamReader) readByte() byte {
	if r.err != nil {
		return 0
	}
	if r.off >= len(r.data) {
		r.fail(fmt.Errorf("meshprep: unexpected end of stream at offset %d: %w", r.off, ErrTruncated))
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *streamReader) readBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > len(r.data)-r.off {
		r.fail(fmt.Errorf("meshprep: unexpected end of stream at offset %d: %w", r.off, ErrTruncated))
		return nil
	}
	s := r.data[r.off : r.off+n]
	r.off += n
	return s
}

// readUvarint reads a little-endian base-128 varint. Values must fit in 32
// bits, which caps the encoding at 5 bytes.
func (r *streamReader) readUvarint() uint32 {
	var v uint32
	for shift := uint(0); ; shift += 7 {
		b := r.readByte()
		if r.err != nil {
			return 0
		}
		if shift == 28 && b > 0x0F {
			r.fail(fmt.Errorf("meshprep: varint overflows 32 bits at offset %d: %w", r.off-1, ErrMalformed))
			return 0
		}
		v |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return v
		}
	}
}

// finish verifies the stream was consumed exactly and returns the verdict
// for the whole decode.
func (r *streamReader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.data) {
		return fmt.Errorf("meshprep: %d trailing bytes after encoded stream: %w", len(r.data)-r.off, ErrTrailingBytes)
	}
	return nil
}

func appendUvarint(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// zigzag maps small signed deltas to small unsigned codes so the varint
// length tracks magnitude rather than sign.
func zigzagEncode(v int32) uint32 { return uint32((v << 1) ^ (v >> 31)) }

func zigzagDecode(u uint32) int32 { return int32(u>>1) ^ -int32(u&1) }
