package meshprep

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func roundTripVertices(t *testing.T, vertices []byte, stride int) []byte {
	t.Helper()
	encoded := EncodeVertexBuffer(nil, vertices, stride)
	decoded, err := DecodeVertexBufferAlloc(len(vertices)/stride, stride, encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded, vertices) {
		t.Fatal("decoded bytes differ from input")
	}
	return encoded
}

func TestEncodeVertexBufferRoundTripPackedCorpus(t *testing.T) {
	vertices := []Vertex{
		{P: [3]float32{0, 0, 0}, N: [3]float32{0, 0, 1}, T: [2]float32{0, 0}},
		{P: [3]float32{300, 0, 0}, N: [3]float32{0, 0, 1}, T: [2]float32{500, 0}},
		{P: [3]float32{0, 300, 0}, N: [3]float32{0, 0, 1}, T: [2]float32{0, 500}},
		{P: [3]float32{300, 300, 0}, N: [3]float32{0, 0, 1}, T: [2]float32{500, 500}},
	}

	oct := PackVerticesOct(vertices)
	roundTripVertices(t, oct, PackedVertexOctSize)

	packed := PackVertices(vertices)
	roundTripVertices(t, packed, PackedVertexSize)
}

func TestEncodeVertexBufferRoundTripStrides(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for _, stride := range []int{1, 3, 4, 12, 16, 32, 255, 256} {
		for _, count := range []int{0, 1, 2, 17, 300} {
			buf := make([]byte, count*stride)
			rng.Read(buf)
			roundTripVertices(t, buf, stride)
		}
	}
}

func TestEncodeVertexBufferCompressesSmoothData(t *testing.T) {
	// Fetch-optimized records change slowly, so the delta lanes should
	// beat raw storage comfortably.
	const stride = 16
	const count = 1024
	buf := make([]byte, count*stride)
	for v := 0; v < count; v++ {
		rec := buf[v*stride:]
		for k := 0; k < stride; k++ {
			rec[k] = byte(v >> (k % 4 * 2))
		}
	}
	encoded := roundTripVertices(t, buf, stride)
	if len(encoded) >= len(buf)/2 {
		t.Fatalf("smooth data encoded to %d bytes of %d raw", len(encoded), len(buf))
	}
}

func TestDecodeVertexBufferTruncation(t *testing.T) {
	vertices := tagRecords(25, 12)
	encoded := EncodeVertexBuffer(nil, vertices, 12)

	for n := 0; n < len(encoded); n++ {
		if _, err := DecodeVertexBufferAlloc(25, 12, encoded[:n]); err == nil {
			t.Fatalf("decode succeeded on %d of %d bytes", n, len(encoded))
		}
	}
	if _, err := DecodeVertexBufferAlloc(25, 12, encoded); err != nil {
		t.Fatalf("decode failed on the full stream: %v", err)
	}
}

func TestDecodeVertexBufferTrailingBytes(t *testing.T) {
	vertices := tagRecords(8, 8)
	encoded := EncodeVertexBuffer(nil, vertices, 8)

	_, err := DecodeVertexBufferAlloc(8, 8, append(encoded[:len(encoded):len(encoded)], 0))
	if !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("got %v, want ErrTrailingBytes", err)
	}
}

func TestDecodeVertexBufferBadTag(t *testing.T) {
	vertices := tagRecords(4, 4)
	encoded := EncodeVertexBuffer(nil, vertices, 4)
	encoded[0] ^= 0xFF

	if _, err := DecodeVertexBufferAlloc(4, 4, encoded); !errors.Is(err, ErrFormat) {
		t.Fatalf("got %v, want ErrFormat", err)
	}
}

func TestDecodeVertexBufferOverlongRun(t *testing.T) {
	// A zero run claiming more records than the lane holds must be
	// rejected, not clipped.
	data := []byte{vertexCodecTag, 0x7F}
	if _, err := DecodeVertexBufferAlloc(4, 1, data); !errors.Is(err, ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
}

func TestDecodeVertexBufferEmpty(t *testing.T) {
	encoded := EncodeVertexBuffer(nil, nil, 16)
	if len(encoded) != 1 {
		t.Fatalf("empty buffer encoded to %d bytes, want tag only", len(encoded))
	}
	decoded, err := DecodeVertexBufferAlloc(0, 16, encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("decoded %d bytes from empty stream", len(decoded))
	}
}

func TestEncodeVertexBufferBound(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	buf := make([]byte, 999*7)
	rng.Read(buf)

	bound := EncodeVertexBufferBound(999, 7)
	encoded := EncodeVertexBuffer(make([]byte, bound), buf, 7)
	if len(encoded) > bound {
		t.Fatalf("encoded %d bytes, bound promised %d", len(encoded), bound)
	}

	mustPanic(t, func() {
		EncodeVertexBuffer(make([]byte, bound-1), buf, 7)
	})
	mustPanic(t, func() {
		EncodeVertexBuffer(nil, buf, 0)
	})
	mustPanic(t, func() {
		EncodeVertexBuffer(nil, buf[:10], 7)
	})
}

func BenchmarkEncodeVertexBuffer(b *testing.B) {
	vertices := tagRecords(10000, PackedVertexSize)
	dst := make([]byte, EncodeVertexBufferBound(10000, PackedVertexSize))

	b.ReportAllocs()
	b.SetBytes(int64(len(vertices)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EncodeVertexBuffer(dst, vertices, PackedVertexSize)
	}
}

func BenchmarkDecodeVertexBuffer(b *testing.B) {
	vertices := tagRecords(10000, PackedVertexSize)
	encoded := EncodeVertexBuffer(nil, vertices, PackedVertexSize)
	dst := make([]byte, len(vertices))

	b.ReportAllocs()
	b.SetBytes(int64(len(vertices)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := DecodeVertexBuffer(dst, 10000, PackedVertexSize, encoded); err != nil {
			b.Fatal(err)
		}
	}
}
