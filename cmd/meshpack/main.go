// meshpack optimizes a mesh (vertex cache, overdraw, vertex fetch), encodes
// both streams and writes a .mpk container. With -verify the written file is
// read back, decoded and compared against the packed data.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"meshprep"
	"meshprep/internal/logger"
	"meshprep/internal/meshfile"
	"meshprep/internal/meshgen"

	"go.uber.org/zap"
)

func main() {
	gen := flag.String("gen", "", "Mesh to pack: grid:N or sphere:N")
	in := flag.String("in", "", "Input .mpk to repack (alternative to -gen)")
	out := flag.String("out", "mesh.mpk", "Output .mpk path")
	format := flag.String("format", "float", "Vertex format: float, half or oct")
	threshold := flag.Float64("threshold", 1.05, "Overdraw ACMR degradation budget")
	verify := flag.Bool("verify", false, "Decode the written file and compare")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFile := flag.String("log-file", "", "Optional rotating log file")
	flag.Parse()

	if err := logger.Init(*logLevel, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*gen, *in, *out, *format, float32(*threshold), *verify); err != nil {
		logger.Error("meshpack failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(gen, in, out, format string, threshold float32, verify bool) error {
	vertices, indices, err := loadMesh(gen, in)
	if err != nil {
		return err
	}

	logger.Info("mesh loaded",
		zap.Int("vertices", len(vertices)),
		zap.Int("triangles", len(indices)/3))

	meshprep.OptimizeVertexCache(indices, indices, len(vertices))
	meshprep.OptimizeOverdraw(indices, indices, meshprep.VertexSlice(vertices), threshold)

	buf := meshprep.VertexBytes(vertices)
	unique := meshprep.OptimizeVertexFetch(buf, indices, buf, meshprep.VertexSize)
	vertices = vertices[:0]
	for i := 0; i < unique; i++ {
		vertices = append(vertices, meshprep.VertexFromBytes(buf[i*meshprep.VertexSize:]))
	}

	var records []byte
	var stride int
	var flags uint32
	switch format {
	case "float":
		records = buf[:unique*meshprep.VertexSize]
		stride = meshprep.VertexSize
	case "half":
		records = meshprep.PackVertices(vertices)
		stride = meshprep.PackedVertexSize
		flags = meshfile.FlagQuantized
	case "oct":
		records = meshprep.PackVerticesOct(vertices)
		stride = meshprep.PackedVertexOctSize
		flags = meshfile.FlagQuantized | meshfile.FlagOctNormals
	default:
		return fmt.Errorf("bad -format %q, want float, half or oct", format)
	}

	offset, scale := meshprep.CalcPosOffsetAndScale(meshprep.VertexSlice(vertices))

	mf := &meshfile.File{
		Header: meshfile.Header{
			VertexCount: uint32(unique),
			IndexCount:  uint32(len(indices)),
			Stride:      uint32(stride),
			Flags:       flags,
			PosOffset:   offset,
			PosScale:    scale,
		},
		IndexData:  meshprep.EncodeIndexBuffer(nil, indices, unique),
		VertexData: meshprep.EncodeVertexBuffer(nil, records, stride),
	}

	if err := meshfile.WriteFile(out, mf); err != nil {
		return err
	}

	rawSize := len(indices)*4 + len(records)
	packSize := len(mf.IndexData) + len(mf.VertexData)
	logger.Info("packed",
		zap.String("path", out),
		zap.String("format", format),
		zap.Int("raw_bytes", rawSize),
		zap.Int("packed_bytes", packSize),
		zap.Float64("ratio", float64(packSize)/float64(rawSize)))

	if !verify {
		return nil
	}

	rt, err := meshfile.ReadFile(out)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	gotIdx, err := meshprep.DecodeIndexBuffer32(int(rt.IndexCount), rt.IndexData)
	if err != nil {
		return fmt.Errorf("verify: index stream: %w", err)
	}
	gotVtx, err := meshprep.DecodeVertexBufferAlloc(int(rt.VertexCount), int(rt.Stride), rt.VertexData)
	if err != nil {
		return fmt.Errorf("verify: vertex stream: %w", err)
	}
	if !bytes.Equal(gotVtx, records) {
		return fmt.Errorf("verify: decoded vertex bytes differ")
	}
	if !sameTriangles(gotIdx, indices) {
		return fmt.Errorf("verify: decoded triangles differ")
	}
	logger.Info("verify passed",
		zap.Int("triangles", len(gotIdx)/3),
		zap.Int("vertices", int(rt.VertexCount)))
	return nil
}

// sameTriangles compares triangle streams up to cyclic rotation within each
// triangle.
func sameTriangles(got, want []uint32) bool {
	if len(got) != len(want) {
		return false
	}
	for i := 0; i+2 < len(got); i += 3 {
		a, b, c := got[i], got[i+1], got[i+2]
		x, y, z := want[i], want[i+1], want[i+2]
		if (a == x && b == y && c == z) ||
			(a == y && b == z && c == x) ||
			(a == z && b == x && c == y) {
			continue
		}
		return false
	}
	return true
}

func loadMesh(gen, in string) ([]meshprep.Vertex, []uint32, error) {
	switch {
	case gen != "" && in != "":
		return nil, nil, fmt.Errorf("use either -gen or -in, not both")
	case gen != "":
		kind, num, ok := strings.Cut(gen, ":")
		n, err := strconv.Atoi(num)
		if !ok || err != nil || n <= 0 {
			return nil, nil, fmt.Errorf("bad -gen %q, want grid:N or sphere:N", gen)
		}
		var m *meshgen.Mesh
		switch kind {
		case "grid":
			m = meshgen.Plane(n)
		case "sphere":
			m = meshgen.Sphere(n, n*2)
		default:
			return nil, nil, fmt.Errorf("bad -gen %q, want grid:N or sphere:N", gen)
		}
		return m.Vertices, m.Indices, nil
	case in != "":
		mf, err := meshfile.ReadFile(in)
		if err != nil {
			return nil, nil, err
		}
		if mf.Flags&meshfile.FlagQuantized != 0 {
			return nil, nil, fmt.Errorf("%s holds quantized records; repacking needs float vertices", in)
		}
		if int(mf.Stride) != meshprep.VertexSize {
			return nil, nil, fmt.Errorf("%s has stride %d, want %d", in, mf.Stride, meshprep.VertexSize)
		}
		indices, err := meshprep.DecodeIndexBuffer32(int(mf.IndexCount), mf.IndexData)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: index stream: %w", in, err)
		}
		raw, err := meshprep.DecodeVertexBufferAlloc(int(mf.VertexCount), int(mf.Stride), mf.VertexData)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: vertex stream: %w", in, err)
		}
		vertices := make([]meshprep.Vertex, mf.VertexCount)
		for i := range vertices {
			vertices[i] = meshprep.VertexFromBytes(raw[i*meshprep.VertexSize:])
		}
		for _, idx := range indices {
			if int(idx) >= len(vertices) {
				return nil, nil, fmt.Errorf("%s: index %d out of range for %d vertices", in, idx, len(vertices))
			}
		}
		return vertices, indices, nil
	default:
		return nil, nil, fmt.Errorf("one of -gen or -in is required")
	}
}
