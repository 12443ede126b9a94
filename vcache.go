package meshprep

import "math"

// The scoring cache is larger than typical hardware FIFOs on purpose:
// scheduling against a 32-entry model produces orders that measure well
// on every smaller cache.
const scoreCacheSize = 32

// Positions 0..2 belong to the triangle just emitted; scoring them below
// the decay curve's head discourages fanning around one hot vertex.
const lastTriangleScore = 0.75

var cacheDecayTable = func() [scoreCacheSize]float32 {
	var t [scoreCacheSize]float32
	for i := 3; i < scoreCacheSize; i++ {
		f := 1 - float64(i-3)/float64(scoreCacheSize-3)
		t[i] = float32(math.Pow(f, 1.5))
	}
	return t
}()

func vertexCacheScore(cachePos int32, live uint32) float32 {
	if live == 0 {
		return 0
	}

	var score float32
	if cachePos >= 0 {
		if cachePos < 3 {
			score = lastTriangleScore
		} else {
			score = cacheDecayTable[cachePos]
		}
	}

	// Vertices with few remaining triangles get a boost so their fans
	// finish before the cache goes cold.
	score += float32(2 / math.Sqrt(float64(live)))
	return score
}

// OptimizeVertexCache reorders triangles to maximize the hit rate of the
// post-transform vertex cache. The output is written to dst, which must
// have the same length as indices and may alias it. Triangles are only
// reordered and cyclically rotated, never mirrored.
func OptimizeVertexCache(dst, indices []uint32, vertexCount int) {
	if len(dst) != len(indices) {
		panic("meshprep: destination length must match index count")
	}
	validateIndexStream(indices, vertexCount)

	if len(indices) == 0 {
		return
	}

	src := indices
	if &dst[0] == &indices[0] {
		src = append([]uint32(nil), indices...)
	}

	faceCount := len(src) / 3
	adj := buildTriangleAdjacency(src, vertexCount)
	live := adj.counts

	vertexScore := make([]float32, vertexCount)
	for v := range vertexScore {
		vertexScore[v] = vertexCacheScore(-1, live[v])
	}

	triScore := make([]float32, faceCount)
	for t := 0; t < faceCount; t++ {
		a, b, c := src[t*3], src[t*3+1], src[t*3+2]
		if isDegenerate(a, b, c) {
			continue
		}
		triScore[t] = vertexScore[a] + vertexScore[b] + vertexScore[c]
	}

	cachePos := make([]int32, vertexCount)
	for v := range cachePos {
		cachePos[v] = -1
	}
	var cache, cacheNew [scoreCacheSize + 3]uint32
	cacheCount := 0

	emitted := make([]bool, faceCount)
	cursor := 0

	best := -1
	bestScore := float32(0)
	for t := 0; t < faceCount; t++ {
		if triScore[t] > bestScore {
			best, bestScore = t, triScore[t]
		}
	}

	for j := 0; j < faceCount; j++ {
		t := best
		if t < 0 {
			// no candidate reachable from the cache; restart at the
			// next unscheduled triangle (covers degenerates and new
			// components)
			for emitted[cursor] {
				cursor++
			}
			t = cursor
		}

		a, b, c := src[t*3], src[t*3+1], src[t*3+2]
		dst[j*3+0] = a
		dst[j*3+1] = b
		dst[j*3+2] = c
		emitted[t] = true

		for _, v := range [3]uint32{a, b, c} {
			span := adj.data[adj.offsets[v] : adj.offsets[v]+live[v]]
			for i := range span {
				if span[i] == uint32(t) {
					span[i] = span[len(span)-1]
					live[v]--
					break
				}
			}
		}

		// New cache front: the triangle's vertices, then prior entries.
		n := 0
		cacheNew[n] = a
		n++
		if b != a {
			cacheNew[n] = b
			n++
		}
		if c != a && c != b {
			cacheNew[n] = c
			n++
		}
		for i := 0; i < cacheCount; i++ {
			v := cache[i]
			if v != a && v != b && v != c {
				cacheNew[n] = v
				n++
			}
		}

		newCount := n
		if newCount > scoreCacheSize {
			newCount = scoreCacheSize
		}
		for i := 0; i < newCount; i++ {
			v := cacheNew[i]
			cache[i] = v
			cachePos[v] = int32(i)
		}
		for i := newCount; i < n; i++ {
			cachePos[cacheNew[i]] = -1
		}
		cacheCount = newCount

		// Rescore touched vertices and let the deltas surface the next
		// candidate triangle.
		best = -1
		bestScore = 0
		for i := 0; i < n; i++ {
			v := cacheNew[i]
			score := vertexCacheScore(cachePos[v], live[v])
			delta := score - vertexScore[v]
			vertexScore[v] = score

			span := adj.data[adj.offsets[v] : adj.offsets[v]+live[v]]
			for _, tri := range span {
				triScore[tri] += delta
				if triScore[tri] > bestScore {
					best, bestScore = int(tri), triScore[tri]
				}
			}
		}
	}
}
