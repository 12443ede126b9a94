package meshprep

import (
	"sort"

	"meshprep/internal/mathutil"
)

// Cluster boundaries are derived against the cache the triangles were
// optimized for; 16 matches the default analysis profile.
const overdrawCacheSize = 16

// OptimizeOverdraw reorders triangles to reduce pixel overdraw by drawing
// spatially coherent clusters roughly front to back. The input must
// already be vertex-cache optimized; threshold bounds the allowed ACMR
// degradation relative to that input (1.05 allows 5%, 3.0 effectively
// lifts the guard and maximizes reordering). dst must have the same
// length as indices and may alias it. The triangle set is preserved;
// only cluster order changes.
func OptimizeOverdraw(dst, indices []uint32, src PositionSource, threshold float32) {
	if len(dst) != len(indices) {
		panic("meshprep: destination length must match index count")
	}
	vertexCount := src.Count()
	validateIndexStream(indices, vertexCount)

	if len(indices) == 0 {
		return
	}

	in := indices
	if &dst[0] == &indices[0] {
		in = append([]uint32(nil), indices...)
	}

	hard := generateHardBoundaries(in, vertexCount)
	clusters := generateSoftBoundaries(in, vertexCount, hard, threshold)
	order := sortClusterOrder(in, src, clusters)

	faceCount := len(in) / 3
	j := 0
	for _, c := range order {
		start := clusters[c]
		end := faceCount
		if c+1 < len(clusters) {
			end = clusters[c+1]
		}
		copy(dst[j*3:], in[start*3:end*3])
		j += end - start
	}
}

// generateHardBoundaries marks the triangles where a cold FIFO cache
// restarts entirely (all three vertices miss); reordering across such a
// point cannot hurt the cache.
func generateHardBoundaries(indices []uint32, vertexCount int) []int {
	sim := newFifoCache(vertexCount, overdrawCacheSize)
	faceCount := len(indices) / 3

	var out []int
	for t := 0; t < faceCount; t++ {
		if sim.update(indices[t*3], indices[t*3+1], indices[t*3+2]) == 3 {
			out = append(out, t)
		}
	}
	return out
}

// generateSoftBoundaries splits each hard cluster further wherever the
// running miss rate stays within threshold times the cluster's own ACMR,
// so the sort gains granularity without exceeding the quality budget.
func generateSoftBoundaries(indices []uint32, vertexCount int, hard []int, threshold float32) []int {
	sim := newFifoCache(vertexCount, overdrawCacheSize)
	faceCount := len(indices) / 3

	var out []int
	for i, start := range hard {
		end := faceCount
		if i+1 < len(hard) {
			end = hard[i+1]
		}

		sim.reset()
		misses := 0
		for t := start; t < end; t++ {
			misses += sim.update(indices[t*3], indices[t*3+1], indices[t*3+2])
		}
		budget := float32(misses) / float32(end-start) * threshold

		sim.reset()
		runMisses, runFaces := 0, 0
		out = append(out, start)
		for t := start; t < end; t++ {
			runMisses += sim.update(indices[t*3], indices[t*3+1], indices[t*3+2])
			runFaces++
			if t+1 < end && float32(runMisses)/float32(runFaces) <= budget {
				out = append(out, t+1)
				sim.reset()
				runMisses, runFaces = 0, 0
			}
		}
	}
	return out
}

// sortClusterOrder keys each cluster by how far its area-weighted normal
// points away from the mesh center and returns cluster ids in descending
// key order: outward-facing geometry near the viewer side first.
func sortClusterOrder(indices []uint32, src PositionSource, clusters []int) []int {
	faceCount := len(indices) / 3

	var meshCentroid mathutil.Vec3
	for _, idx := range indices {
		meshCentroid = meshCentroid.Add(mathutil.Vec3(src.Position(int(idx))))
	}
	meshCentroid = meshCentroid.Scale(1 / float32(len(indices)))

	keys := make([]float32, len(clusters))
	for c, start := range clusters {
		end := faceCount
		if c+1 < len(clusters) {
			end = clusters[c+1]
		}

		var centroid, normal mathutil.Vec3
		var area float32
		for t := start; t < end; t++ {
			p0 := mathutil.Vec3(src.Position(int(indices[t*3])))
			p1 := mathutil.Vec3(src.Position(int(indices[t*3+1])))
			p2 := mathutil.Vec3(src.Position(int(indices[t*3+2])))

			cross := p1.Sub(p0).Cross(p2.Sub(p0))
			triArea := cross.Len()

			centroid = centroid.Add(p0.Add(p1).Add(p2).Scale(triArea / 3))
			normal = normal.Add(cross)
			area += triArea
		}

		if area > 0 {
			centroid = centroid.Scale(1 / area)
		} else {
			centroid = meshCentroid
		}
		keys[c] = centroid.Sub(meshCentroid).Dot(normal.Normalize())
	}

	order := make([]int, len(clusters))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] > keys[order[b]] })
	return order
}
