// meshstat prints a per-strategy optimization comparison table for a mesh:
// cache statistics across hardware profiles, fetch overfetch, overdraw and
// codec bit rates.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"meshprep"
	"meshprep/internal/meshfile"
	"meshprep/internal/meshgen"
)

// cacheProfiles are the hardware models used for the ATVR columns.
var cacheProfiles = []struct {
	name                           string
	cacheSize, warpSize, primgroup int
}{
	{"NV", 32, 32, 32},
	{"AMD", 14, 64, 128},
	{"Intel", 128, 0, 0},
}

const statCacheSize = 16

type mesh struct {
	vertices []meshprep.Vertex
	indices  []uint32
}

func (m *mesh) clone() *mesh {
	return &mesh{
		vertices: append([]meshprep.Vertex(nil), m.vertices...),
		indices:  append([]uint32(nil), m.indices...),
	}
}

type strategy struct {
	name  string
	apply func(*mesh)
}

var strategies = []strategy{
	{"Original", func(m *mesh) {}},
	{"Random", func(m *mesh) {
		rng := rand.New(rand.NewSource(42))
		faces := len(m.indices) / 3
		for i := faces - 1; i > 0; i-- {
			j := rng.Intn(i + 1)
			for k := 0; k < 3; k++ {
				m.indices[i*3+k], m.indices[j*3+k] = m.indices[j*3+k], m.indices[i*3+k]
			}
		}
	}},
	{"Cache", func(m *mesh) {
		meshprep.OptimizeVertexCache(m.indices, m.indices, len(m.vertices))
	}},
	{"CacheFifo", func(m *mesh) {
		meshprep.OptimizeVertexCacheFifo(m.indices, m.indices, len(m.vertices), statCacheSize)
	}},
	{"Overdraw", func(m *mesh) {
		meshprep.OptimizeVertexCache(m.indices, m.indices, len(m.vertices))
		meshprep.OptimizeOverdraw(m.indices, m.indices, meshprep.VertexSlice(m.vertices), 3.0)
	}},
	{"Fetch", func(m *mesh) {
		meshprep.OptimizeVertexCache(m.indices, m.indices, len(m.vertices))
		optimizeFetch(m)
	}},
	{"FetchMap", func(m *mesh) {
		meshprep.OptimizeVertexCache(m.indices, m.indices, len(m.vertices))
		remap, unique := meshprep.OptimizeVertexFetchRemap(m.indices, len(m.vertices))
		meshprep.RemapIndexBuffer(m.indices, m.indices, remap)
		src := meshprep.VertexBytes(m.vertices)
		dst := make([]byte, unique*meshprep.VertexSize)
		meshprep.RemapVertexBuffer(dst, src, meshprep.VertexSize, remap)
		m.vertices = verticesFromBytes(dst)
	}},
	{"Complete", func(m *mesh) {
		meshprep.OptimizeVertexCache(m.indices, m.indices, len(m.vertices))
		meshprep.OptimizeOverdraw(m.indices, m.indices, meshprep.VertexSlice(m.vertices), 1.05)
		optimizeFetch(m)
	}},
}

func optimizeFetch(m *mesh) {
	buf := meshprep.VertexBytes(m.vertices)
	unique := meshprep.OptimizeVertexFetch(buf, m.indices, buf, meshprep.VertexSize)
	m.vertices = verticesFromBytes(buf[:unique*meshprep.VertexSize])
}

func verticesFromBytes(buf []byte) []meshprep.Vertex {
	out := make([]meshprep.Vertex, len(buf)/meshprep.VertexSize)
	for i := range out {
		out[i] = meshprep.VertexFromBytes(buf[i*meshprep.VertexSize:])
	}
	return out
}

func report(name string, m *mesh) {
	vcs := meshprep.AnalyzeVertexCache(m.indices, len(m.vertices), statCacheSize, 0, 0)
	vfs := meshprep.AnalyzeVertexFetch(m.indices, len(m.vertices), meshprep.VertexSize)
	ods := meshprep.AnalyzeOverdraw(m.indices, meshprep.VertexSlice(m.vertices))

	fmt.Printf("%-9s: ACMR %.3f ATVR %.3f (", name, vcs.ACMR, vcs.ATVR)
	for i, p := range cacheProfiles {
		s := meshprep.AnalyzeVertexCache(m.indices, len(m.vertices), p.cacheSize, p.warpSize, p.primgroup)
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Printf("%s %.2f", p.name, s.ATVR)
	}
	fmt.Printf(") Overfetch %.3f Overdraw %.3f\n", vfs.Overfetch, ods.Overdraw)
}

func reportCodec(m *mesh) {
	encodedIdx := meshprep.EncodeIndexBuffer(nil, m.indices, len(m.vertices))
	packed := meshprep.PackVertices(m.vertices)
	encodedVtx := meshprep.EncodeVertexBuffer(nil, packed, meshprep.PackedVertexSize)

	tris := len(m.indices) / 3
	fmt.Println("---")
	fmt.Printf("index codec : %d bytes, %.2f bits/triangle\n",
		len(encodedIdx), float64(len(encodedIdx)*8)/float64(tris))
	fmt.Printf("vertex codec: %d bytes, %.2f bits/vertex (PackedVertex, %d byte stride)\n",
		len(encodedVtx), float64(len(encodedVtx)*8)/float64(len(m.vertices)), meshprep.PackedVertexSize)
}

func loadMesh(gen, in string) (*mesh, error) {
	if in != "" {
		return loadFile(in)
	}

	kind, num, ok := strings.Cut(gen, ":")
	n, err := strconv.Atoi(num)
	if !ok || err != nil || n <= 0 {
		return nil, fmt.Errorf("bad -gen %q, want grid:N or sphere:N", gen)
	}
	var g *meshgen.Mesh
	switch kind {
	case "grid":
		g = meshgen.Plane(n)
	case "sphere":
		g = meshgen.Sphere(n, n*2)
	default:
		return nil, fmt.Errorf("bad -gen %q, want grid:N or sphere:N", gen)
	}
	return &mesh{vertices: g.Vertices, indices: g.Indices}, nil
}

func loadFile(in string) (*mesh, error) {
	mf, err := meshfile.ReadFile(in)
	if err != nil {
		return nil, err
	}
	if mf.Flags&meshfile.FlagQuantized != 0 {
		return nil, fmt.Errorf("%s holds quantized records; analysis needs float vertices", in)
	}
	if int(mf.Stride) != meshprep.VertexSize {
		return nil, fmt.Errorf("%s has stride %d, want %d", in, mf.Stride, meshprep.VertexSize)
	}
	indices, err := meshprep.DecodeIndexBuffer32(int(mf.IndexCount), mf.IndexData)
	if err != nil {
		return nil, fmt.Errorf("%s: index stream: %w", in, err)
	}
	raw, err := meshprep.DecodeVertexBufferAlloc(int(mf.VertexCount), int(mf.Stride), mf.VertexData)
	if err != nil {
		return nil, fmt.Errorf("%s: vertex stream: %w", in, err)
	}
	vertices := verticesFromBytes(raw)
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("%s: index %d out of range for %d vertices", in, idx, len(vertices))
		}
	}
	return &mesh{vertices: vertices, indices: indices}, nil
}

func main() {
	gen := flag.String("gen", "grid:200", "Mesh to analyze: grid:N or sphere:N")
	in := flag.String("in", "", "Input .mpk (float vertices) to analyze (alternative to -gen)")
	flag.Parse()

	base, err := loadMesh(*gen, *in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	name := *gen
	if *in != "" {
		name = *in
	}
	fmt.Printf("Mesh: %s, %d vertices, %d triangles\n", name, len(base.vertices), len(base.indices)/3)
	fmt.Println("---")

	var complete *mesh
	for _, s := range strategies {
		m := base.clone()
		s.apply(m)
		report(s.name, m)
		if s.name == "Complete" {
			complete = m
		}
	}

	reportCodec(complete)
}
