package meshprep

import (
	"meshprep/internal/raster"
)

// VertexCacheStatistics summarizes post-transform cache behavior of an index
// stream as measured by AnalyzeVertexCache.
type VertexCacheStatistics struct {
	// VerticesTransformed is the number of vertex shader invocations the
	// modeled GPU would execute for the stream.
	VerticesTransformed uint32

	// WarpsExecuted is the number of warps needed to shade the stream.
	// Zero unless a warp size was specified.
	WarpsExecuted uint32

	// ACMR is transformed vertices per triangle; 0.5 is the theoretical
	// floor for a perfectly regular grid, 3.0 the worst case.
	ACMR float32

	// ATVR is transformed vertices per unique vertex; 1.0 is optimal
	// regardless of topology.
	ATVR float32
}

// VertexFetchStatistics summarizes memory traffic caused by vertex fetch as
// measured by AnalyzeVertexFetch.
type VertexFetchStatistics struct {
	BytesFetched uint32

	// Overfetch is bytes fetched per useful byte; 1.0 means every fetched
	// byte belonged to a referenced vertex.
	Overfetch float32
}

// OverdrawStatistics summarizes shading cost of a triangle order as measured
// by AnalyzeOverdraw.
type OverdrawStatistics struct {
	PixelsCovered uint32
	PixelsShaded  uint32

	// Overdraw is shaded fragments per covered pixel; 1.0 means no pixel
	// was shaded more than once.
	Overdraw float32
}

// fifoCache simulates a FIFO post-transform vertex cache using per-vertex
// timestamps. A vertex is resident while fewer than size other vertices have
// been transformed after it; cache hits do not refresh residency.
type fifoCache struct {
	timestamps []uint32
	clock      uint32
	size       uint32
}

func newFifoCache(vertexCount, size int) *fifoCache {
	return &fifoCache{
		timestamps: make([]uint32, vertexCount),
		// The zero timestamp must read as "never seen", so the clock
		// starts one full cache length in.
		clock: uint32(size) + 1,
		size:  uint32(size),
	}
}

// reset invalidates all cached entries without touching the timestamp table.
func (c *fifoCache) reset() {
	c.clock += c.size + 1
}

// update pushes one triangle through the cache and returns how many of its
// vertices missed. Duplicate vertices within the triangle count once.
func (c *fifoCache) update(a, b, d uint32) int {
	misses := 0
	for _, v := range [3]uint32{a, b, d} {
		if c.clock-c.timestamps[v] > c.size {
			c.timestamps[v] = c.clock
			c.clock++
			misses++
		}
	}
	return misses
}

// AnalyzeVertexCache measures how well an index stream uses a FIFO
// post-transform cache of cacheSize entries.
//
// warpSize and primgroupSize refine the model for hardware that shades in
// fixed-size batches: when warpSize > 0, a warp ends (and the cache is
// flushed) once it cannot fit the next triangle's missing vertices, and when
// primgroupSize > 0 a flush also occurs every primgroupSize triangles. Pass
// 0 for both to model a bare FIFO cache.
//
// The index stream must be a well formed triangle list; cacheSize must be at
// least 3 and warpSize either 0 or at least 3.
func AnalyzeVertexCache(indices []uint32, vertexCount, cacheSize, warpSize, primgroupSize int) VertexCacheStatistics {
	validateIndexStream(indices, vertexCount)
	if cacheSize < 3 {
		panic("meshprep: cache size must be at least 3")
	}
	if warpSize != 0 && warpSize < 3 {
		panic("meshprep: warp size must be 0 or at least 3")
	}
	if primgroupSize < 0 {
		panic("meshprep: primgroup size must not be negative")
	}

	var stats VertexCacheStatistics

	timestamps := make([]uint32, vertexCount)
	clock := uint32(cacheSize) + 1

	warpOffset := 0
	primgroupOffset := 0

	for i := 0; i+2 < len(indices); i += 3 {
		a, b, d := indices[i], indices[i+1], indices[i+2]

		// Estimate the cost of this triangle against the current cache
		// state to decide whether the warp has room for it.
		misses := 0
		if clock-timestamps[a] > uint32(cacheSize) {
			misses++
		}
		if clock-timestamps[b] > uint32(cacheSize) {
			misses++
		}
		if clock-timestamps[d] > uint32(cacheSize) {
			misses++
		}

		if (primgroupSize > 0 && primgroupOffset == primgroupSize) ||
			(warpSize > 0 && warpOffset+misses > warpSize) {
			if warpOffset > 0 {
				stats.WarpsExecuted++
			}
			warpOffset = 0
			primgroupOffset = 0

			// Starting a new warp flushes the cache.
			clock += uint32(cacheSize) + 1
		}

		for _, v := range [3]uint32{a, b, d} {
			if clock-timestamps[v] > uint32(cacheSize) {
				timestamps[v] = clock
				clock++
				stats.VerticesTransformed++
				warpOffset++
			}
		}
		primgroupOffset++
	}

	if warpOffset > 0 {
		stats.WarpsExecuted++
	}

	unique := countReferenced(indices, vertexCount)

	if len(indices) > 0 {
		stats.ACMR = float32(stats.VerticesTransformed) / float32(len(indices)/3)
	}
	if unique > 0 {
		stats.ATVR = float32(stats.VerticesTransformed) / float32(unique)
	}
	return stats
}

const (
	fetchCacheLine = 64
	fetchCacheSize = 128 * 1024
)

// AnalyzeVertexFetch measures memory traffic caused by fetching vertex data
// in index order, modeling a direct mapped cache of fetchCacheSize bytes
// with fetchCacheLine byte lines in front of vertex memory.
//
// vertexSize is the byte size of one vertex record and must be in [1, 256].
// Overfetch relates the traffic to the ideal transfer, which would read each
// referenced vertex exactly once.
func AnalyzeVertexFetch(indices []uint32, vertexCount, vertexSize int) VertexFetchStatistics {
	validateIndexStream(indices, vertexCount)
	if vertexSize <= 0 || vertexSize > 256 {
		panic("meshprep: vertex size must be in [1..256]")
	}

	var stats VertexFetchStatistics

	// Slot entries store line+1 so the zero value means empty.
	cache := make([]uint64, fetchCacheSize/fetchCacheLine)

	for _, index := range indices {
		start := uint64(index) * uint64(vertexSize)
		last := start + uint64(vertexSize) - 1

		for line := start / fetchCacheLine; line <= last/fetchCacheLine; line++ {
			slot := line % uint64(len(cache))
			if cache[slot] != line+1 {
				cache[slot] = line + 1
				stats.BytesFetched += fetchCacheLine
			}
		}
	}

	unique := countReferenced(indices, vertexCount)

	if unique > 0 {
		ideal := uint64(unique) * uint64(vertexSize)
		stats.Overfetch = float32(float64(stats.BytesFetched) / float64(ideal))
	}
	return stats
}

// overdrawViewport is the side length in pixels of the square render target
// used by AnalyzeOverdraw for each axis view.
const overdrawViewport = 256

// AnalyzeOverdraw measures how many times the average visible pixel is
// shaded when the mesh is drawn in index order.
//
// The mesh is rasterized without culling into a fixed orthographic viewport
// from the three axis aligned views, with the camera on the positive side of
// each axis. A fragment counts as shaded when it passes the depth test
// against fragments drawn before it, so front-to-back orders score close to
// 1.0 and back-to-front orders score the raw depth complexity.
func AnalyzeOverdraw(indices []uint32, src PositionSource) OverdrawStatistics {
	vertexCount := src.Count()
	validateIndexStream(indices, vertexCount)

	var stats OverdrawStatistics
	if len(indices) == 0 || vertexCount == 0 {
		return stats
	}

	// Fit the mesh into the viewport cube with a uniform scale.
	minCorner := src.Position(0)
	maxCorner := minCorner
	for i := 1; i < vertexCount; i++ {
		p := src.Position(i)
		for k := 0; k < 3; k++ {
			if p[k] < minCorner[k] {
				minCorner[k] = p[k]
			}
			if p[k] > maxCorner[k] {
				maxCorner[k] = p[k]
			}
		}
	}
	extent := float32(0)
	for k := 0; k < 3; k++ {
		if e := maxCorner[k] - minCorner[k]; e > extent {
			extent = e
		}
	}
	scale := float32(0)
	if extent > 0 {
		scale = overdrawViewport / extent
	}

	scaled := make([][3]float32, vertexCount)
	for i := 0; i < vertexCount; i++ {
		p := src.Position(i)
		scaled[i] = [3]float32{
			(p[0] - minCorner[0]) * scale,
			(p[1] - minCorner[1]) * scale,
			(p[2] - minCorner[2]) * scale,
		}
	}

	buf := raster.NewOverdrawBuffer(overdrawViewport, overdrawViewport)

	for axis := 0; axis < 3; axis++ {
		buf.Clear()
		for i := 0; i+2 < len(indices); i += 3 {
			v0 := projectAxis(scaled[indices[i]], axis)
			v1 := projectAxis(scaled[indices[i+1]], axis)
			v2 := projectAxis(scaled[indices[i+2]], axis)
			raster.RasterizeTriangle(buf, v0, v1, v2)
		}
		stats.PixelsCovered += buf.Covered()
		stats.PixelsShaded += buf.Shaded()
	}

	if stats.PixelsCovered > 0 {
		stats.Overdraw = float32(float64(stats.PixelsShaded) / float64(stats.PixelsCovered))
	}
	return stats
}

// projectAxis maps a point to viewport coordinates for an orthographic view
// along the given axis, keeping the dropped coordinate as depth.
func projectAxis(p [3]float32, axis int) [3]float32 {
	switch axis {
	case 0:
		return [3]float32{p[1], p[2], p[0]}
	case 1:
		return [3]float32{p[0], p[2], p[1]}
	default:
		return [3]float32{p[0], p[1], p[2]}
	}
}

// countReferenced returns the number of distinct vertices the index stream
// touches.
func countReferenced(indices []uint32, vertexCount int) int {
	seen := make([]bool, vertexCount)
	unique := 0
	for _, index := range indices {
		if !seen[index] {
			seen[index] = true
			unique++
		}
	}
	return unique
}
