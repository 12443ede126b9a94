package meshprep

import (
	"math"
	"testing"
)

func TestAnalyzeVertexCacheWorstCase(t *testing.T) {
	// Disjoint triangles never share a vertex; every index misses.
	indices := make([]uint32, 0, 90)
	for v := uint32(0); v < 90; v += 3 {
		indices = append(indices, v, v+1, v+2)
	}
	stats := AnalyzeVertexCache(indices, 90, 16, 0, 0)

	if stats.VerticesTransformed != 90 {
		t.Fatalf("transformed = %d, want 90", stats.VerticesTransformed)
	}
	if stats.ACMR != 3.0 {
		t.Fatalf("ACMR = %v, want 3.0", stats.ACMR)
	}
	if stats.ATVR != 1.0 {
		t.Fatalf("ATVR = %v, want 1.0", stats.ATVR)
	}
}

func TestAnalyzeVertexCacheStripOrder(t *testing.T) {
	// A long strip reuses two vertices per triangle; a 16-entry cache
	// keeps both resident, so ACMR approaches 1.
	var indices []uint32
	for v := uint32(0); v < 100; v++ {
		indices = append(indices, v, v+1, v+2)
	}
	stats := AnalyzeVertexCache(indices, 102, 16, 0, 0)

	if stats.VerticesTransformed != 102 {
		t.Fatalf("transformed = %d, want 102", stats.VerticesTransformed)
	}
	if stats.ACMR > 1.05 {
		t.Fatalf("strip ACMR = %v, want near 1.0", stats.ACMR)
	}
}

func TestAnalyzeVertexCacheWarpFlush(t *testing.T) {
	var indices []uint32
	for v := uint32(0); v < 100; v++ {
		indices = append(indices, v, v+1, v+2)
	}

	plain := AnalyzeVertexCache(indices, 102, 16, 0, 0)
	warped := AnalyzeVertexCache(indices, 102, 16, 8, 0)

	if plain.WarpsExecuted != 0 {
		t.Fatalf("plain analysis reports %d warps, want 0", plain.WarpsExecuted)
	}
	if warped.WarpsExecuted == 0 {
		t.Fatal("warped analysis reports no warps")
	}
	// Flushing between warps can only add transforms.
	if warped.VerticesTransformed < plain.VerticesTransformed {
		t.Fatalf("warped transforms %d below plain %d",
			warped.VerticesTransformed, plain.VerticesTransformed)
	}
}

func TestAnalyzeVertexCachePrimgroupRestart(t *testing.T) {
	indices, vertexCount := makeGrid(20)

	plain := AnalyzeVertexCache(indices, vertexCount, 16, 0, 0)
	grouped := AnalyzeVertexCache(indices, vertexCount, 16, 0, 32)

	if grouped.VerticesTransformed < plain.VerticesTransformed {
		t.Fatalf("grouped transforms %d below plain %d",
			grouped.VerticesTransformed, plain.VerticesTransformed)
	}
}

func TestAnalyzeVertexFetchSequential(t *testing.T) {
	// Sequential access over tightly packed 16-byte records reads each
	// cache line exactly once.
	var indices []uint32
	for v := uint32(0); v < 120; v++ {
		indices = append(indices, v, v+1, v+2)
	}
	stats := AnalyzeVertexFetch(indices, 122, 16)

	if stats.Overfetch > 1.1 {
		t.Fatalf("sequential overfetch = %v, want near 1.0", stats.Overfetch)
	}
}

func TestAnalyzeVertexFetchStrided(t *testing.T) {
	// Touching every 8th vertex drags in a full cache line per fetch.
	var indices []uint32
	for v := uint32(0); v < 3*99; v += 3 {
		indices = append(indices, v*8, (v+1)*8, (v+2)*8)
	}
	stats := AnalyzeVertexFetch(indices, 3*99*8+1, 16)

	if stats.Overfetch < 2 {
		t.Fatalf("strided overfetch = %v, want well above 1", stats.Overfetch)
	}
}

func TestAnalyzeOverdrawSingleLayer(t *testing.T) {
	indices, _ := makeGrid(20)
	pos := gridPositions(20)

	stats := AnalyzeOverdraw(indices, pos)
	if stats.PixelsCovered == 0 {
		t.Fatal("grid covered no pixels")
	}
	// One flat layer cannot overdraw itself beyond rasterization slack at
	// shared edges.
	if stats.Overdraw > 1.1 {
		t.Fatalf("single layer overdraw = %v, want near 1.0", stats.Overdraw)
	}
}

// stackedGrids builds two parallel n by n grids separated along z, indexed
// back to front for a camera on the positive z side.
func stackedGrids(n int) ([]uint32, Positions) {
	base, _ := makeGrid(n)
	pitch := (n + 1) * (n + 1)

	pos := make(Positions, 0, pitch*2)
	pos = append(pos, gridPositions(n)...)
	for _, p := range gridPositions(n) {
		pos = append(pos, [3]float32{p[0], p[1], 5})
	}

	indices := append([]uint32(nil), base...)
	for _, idx := range base {
		indices = append(indices, idx+uint32(pitch))
	}
	return indices, pos
}

func TestAnalyzeOverdrawStackedLayers(t *testing.T) {
	indices, pos := stackedGrids(20)

	backToFront := AnalyzeOverdraw(indices, pos)
	if backToFront.Overdraw < 1.5 {
		t.Fatalf("back-to-front stacked overdraw = %v, want near 2", backToFront.Overdraw)
	}

	// Reversing the layer order drops most of the z-view overdraw.
	frontToBack := make([]uint32, 0, len(indices))
	frontToBack = append(frontToBack, indices[len(indices)/2:]...)
	frontToBack = append(frontToBack, indices[:len(indices)/2]...)

	improved := AnalyzeOverdraw(frontToBack, pos)
	if improved.Overdraw >= backToFront.Overdraw {
		t.Fatalf("front-to-back overdraw %v not below back-to-front %v",
			improved.Overdraw, backToFront.Overdraw)
	}
}

func TestAnalyzeVertexCachePanics(t *testing.T) {
	mustPanic(t, func() { AnalyzeVertexCache([]uint32{0, 1, 2}, 3, 2, 0, 0) })
	mustPanic(t, func() { AnalyzeVertexCache([]uint32{0, 1, 2}, 3, 16, 2, 0) })
	mustPanic(t, func() { AnalyzeVertexCache([]uint32{0, 1}, 3, 16, 0, 0) })
	mustPanic(t, func() { AnalyzeVertexFetch([]uint32{0, 1, 2}, 3, 0) })
	mustPanic(t, func() { AnalyzeVertexFetch([]uint32{0, 1, 2}, 3, 257) })
}

// TestPipelineGrid is the end-to-end scenario: a 200x200 tessellated grid
// through cache then fetch optimization must drop from the scan-order
// baseline to near the cache-16 floor.
func TestPipelineGrid(t *testing.T) {
	indices, vertexCount := makeGrid(200)
	const stride = 16
	vertices := tagRecords(vertexCount, stride)

	baseline := AnalyzeVertexCache(indices, vertexCount, 16, 0, 0)
	if baseline.ACMR < 0.95 {
		t.Fatalf("baseline ACMR = %v, expected at least 0.95", baseline.ACMR)
	}

	opt := make([]uint32, len(indices))
	OptimizeVertexCache(opt, indices, vertexCount)

	dst := make([]byte, len(vertices))
	unique := OptimizeVertexFetch(dst, opt, vertices, stride)
	if unique != vertexCount {
		t.Fatalf("fetch dropped %d referenced vertices", vertexCount-unique)
	}

	final := AnalyzeVertexCache(opt, vertexCount, 16, 0, 0)
	if final.ACMR >= 0.8 {
		t.Fatalf("pipeline ACMR = %v, want below 0.8 (baseline %v)", final.ACMR, baseline.ACMR)
	}
	if final.ACMR < 0.5 {
		t.Fatalf("pipeline ACMR = %v, below the theoretical floor", final.ACMR)
	}
	fetch := AnalyzeVertexFetch(opt, vertexCount, stride)
	if fetch.Overfetch > 1.5 {
		t.Fatalf("pipeline overfetch = %v, want near 1.0", fetch.Overfetch)
	}

	if math.IsNaN(float64(final.ATVR)) || final.ATVR < 1 {
		t.Fatalf("pipeline ATVR = %v", final.ATVR)
	}
}
