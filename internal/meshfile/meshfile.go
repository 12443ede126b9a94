// Package meshfile reads and writes the .mpk container: a small header
// carrying the out-of-band metadata the meshprep codecs need (counts,
// stride, quantization transform) followed by the encoded index and vertex
// streams. The streams themselves are opaque to this package.
package meshfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"os"
)

const (
	// Magic identifies .mpk files (ASCII "MPK1", little-endian).
	Magic = 0x314B504D

	// Version is the current container version.
	Version = 1
)

// headerSize is the fixed byte size of the on-disk header.
const headerSize = 4 + 4 + 4 + 4 + 4 + 4 + 12 + 4 + 4 + 4 + 4

// Vertex layout flags.
const (
	// FlagQuantized marks vertex records quantized relative to the
	// header's position offset and scale.
	FlagQuantized = 1 << 0

	// FlagOctNormals marks quantized records with octahedron-encoded
	// normals.
	FlagOctNormals = 1 << 1
)

var (
	ErrMagic    = errors.New("meshfile: invalid magic number")
	ErrVersion  = errors.New("meshfile: unsupported version")
	ErrChecksum = errors.New("meshfile: stream checksum mismatch")
	ErrTruncated = errors.New("meshfile: truncated file")
	ErrTrailing  = errors.New("meshfile: trailing bytes after streams")
)

// Header carries the metadata needed to decode the contained streams.
type Header struct {
	VertexCount uint32
	IndexCount  uint32
	Stride      uint32
	Flags       uint32

	// PosOffset and PosScale reconstruct quantized positions:
	// position = quantized*PosScale + PosOffset. Zero scale means the
	// records are stored unquantized.
	PosOffset [3]float32
	PosScale  float32
}

// File is one parsed .mpk container. IndexData and VertexData hold the
// encoded streams exactly as produced by the meshprep codecs.
type File struct {
	Header
	IndexData  []byte
	VertexData []byte
}

// Marshal serializes the container to bytes.
func (f *File) Marshal() []byte {
	out := make([]byte, headerSize, headerSize+len(f.IndexData)+len(f.VertexData))

	binary.LittleEndian.PutUint32(out[0:], Magic)
	binary.LittleEndian.PutUint32(out[4:], Version)
	binary.LittleEndian.PutUint32(out[8:], f.VertexCount)
	binary.LittleEndian.PutUint32(out[12:], f.IndexCount)
	binary.LittleEndian.PutUint32(out[16:], f.Stride)
	binary.LittleEndian.PutUint32(out[20:], f.Flags)
	binary.LittleEndian.PutUint32(out[24:], math.Float32bits(f.PosOffset[0]))
	binary.LittleEndian.PutUint32(out[28:], math.Float32bits(f.PosOffset[1]))
	binary.LittleEndian.PutUint32(out[32:], math.Float32bits(f.PosOffset[2]))
	binary.LittleEndian.PutUint32(out[36:], math.Float32bits(f.PosScale))
	binary.LittleEndian.PutUint32(out[40:], uint32(len(f.IndexData)))
	binary.LittleEndian.PutUint32(out[44:], uint32(len(f.VertexData)))

	crc := crc32.ChecksumIEEE(f.IndexData)
	crc = crc32.Update(crc, crc32.IEEETable, f.VertexData)
	binary.LittleEndian.PutUint32(out[48:], crc)

	out = append(out, f.IndexData...)
	out = append(out, f.VertexData...)
	return out
}

// Unmarshal parses a container from bytes. The input must contain exactly
// one container; both streams are copied out of data.
func Unmarshal(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("meshfile: %d byte header, need %d: %w", len(data), headerSize, ErrTruncated)
	}
	if m := binary.LittleEndian.Uint32(data[0:]); m != Magic {
		return nil, fmt.Errorf("meshfile: magic 0x%08X: %w", m, ErrMagic)
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != Version {
		return nil, fmt.Errorf("meshfile: version %d: %w", v, ErrVersion)
	}

	var f File
	f.VertexCount = binary.LittleEndian.Uint32(data[8:])
	f.IndexCount = binary.LittleEndian.Uint32(data[12:])
	f.Stride = binary.LittleEndian.Uint32(data[16:])
	f.Flags = binary.LittleEndian.Uint32(data[20:])
	f.PosOffset[0] = math.Float32frombits(binary.LittleEndian.Uint32(data[24:]))
	f.PosOffset[1] = math.Float32frombits(binary.LittleEndian.Uint32(data[28:]))
	f.PosOffset[2] = math.Float32frombits(binary.LittleEndian.Uint32(data[32:]))
	f.PosScale = math.Float32frombits(binary.LittleEndian.Uint32(data[36:]))
	indexSize := binary.LittleEndian.Uint32(data[40:])
	vertexSize := binary.LittleEndian.Uint32(data[44:])
	wantCRC := binary.LittleEndian.Uint32(data[48:])

	body := data[headerSize:]
	need := uint64(indexSize) + uint64(vertexSize)
	if uint64(len(body)) < need {
		return nil, fmt.Errorf("meshfile: %d stream bytes, header declares %d: %w", len(body), need, ErrTruncated)
	}
	if uint64(len(body)) > need {
		return nil, fmt.Errorf("meshfile: %d bytes after streams: %w", uint64(len(body))-need, ErrTrailing)
	}

	crc := crc32.ChecksumIEEE(body[:indexSize])
	crc = crc32.Update(crc, crc32.IEEETable, body[indexSize:])
	if crc != wantCRC {
		return nil, fmt.Errorf("meshfile: crc 0x%08X, header declares 0x%08X: %w", crc, wantCRC, ErrChecksum)
	}

	f.IndexData = append([]byte(nil), body[:indexSize]...)
	f.VertexData = append([]byte(nil), body[indexSize:]...)
	return &f, nil
}

// WriteFile writes the container to path.
func WriteFile(path string, f *File) error {
	if err := os.WriteFile(path, f.Marshal(), 0644); err != nil {
		return fmt.Errorf("meshfile: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and parses the container at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("meshfile: read %s: %w", path, err)
	}
	f, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return f, nil
}
