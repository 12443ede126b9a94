package meshprep

// OptimizeVertexCacheFifo reorders triangles for a strict FIFO vertex
// cache of cacheSize entries. It runs roughly 3x faster than
// OptimizeVertexCache but the resulting order sustains a lower hit rate;
// use it when optimization time matters more than peak throughput.
func OptimizeVertexCacheFifo(dst, indices []uint32, vertexCount, cacheSize int) {
	if len(dst) != len(indices) {
		panic("meshprep: destination length must match index count")
	}
	if cacheSize < 3 {
		panic("meshprep: cache size must be at least 3")
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
	live := append([]uint32(nil), adj.counts...)

	// Timestamps model the FIFO: a vertex is resident while fewer than
	// cacheSize vertices entered after it. Zero means never referenced;
	// starting the clock past cacheSize keeps that distinct.
	timestamps := make([]uint32, vertexCount)
	clock := uint32(cacheSize) + 1

	emitted := make([]bool, faceCount)
	deadEnd := make([]uint32, 0, faceCount)
	ring := make([]uint32, 0, 32)
	j := 0
	inputCursor := 0

	fan := int32(0)
	for fan >= 0 {
		ring = ring[:0]

		span := adj.data[adj.offsets[fan] : adj.offsets[fan]+adj.counts[fan]]
		for _, t := range span {
			if emitted[t] {
				continue
			}
			a, b, c := src[t*3], src[t*3+1], src[t*3+2]
			dst[j*3+0] = a
			dst[j*3+1] = b
			dst[j*3+2] = c
			j++
			emitted[t] = true

			for _, v := range [3]uint32{a, b, c} {
				deadEnd = append(deadEnd, v)
				ring = append(ring, v)
				live[v]--
				if clock-timestamps[v] > uint32(cacheSize) {
					timestamps[v] = clock
					clock++
				}
			}
		}

		// Pick the next fanning vertex from the 1-ring: prefer the
		// vertex closest to eviction whose remaining triangles still
		// fit in the cache alongside it.
		fan = -1
		bestPriority := int32(-1)
		for _, v := range ring {
			if live[v] == 0 {
				continue
			}
			priority := int32(0)
			age := clock - timestamps[v]
			if age+2*live[v] <= uint32(cacheSize) {
				priority = int32(age)
			}
			if priority > bestPriority {
				fan = int32(v)
				bestPriority = priority
			}
		}

		if fan < 0 {
			// Dead-end recovery: most recently touched vertex with
			// work left, else scan forward for an untouched one.
			for len(deadEnd) > 0 {
				v := deadEnd[len(deadEnd)-1]
				deadEnd = deadEnd[:len(deadEnd)-1]
				if live[v] > 0 {
					fan = int32(v)
					break
				}
			}
			if fan < 0 {
				for inputCursor < vertexCount {
					if live[inputCursor] > 0 {
						fan = int32(inputCursor)
						break
					}
					inputCursor++
				}
			}
		}
	}

	// Degenerate triangles carry no adjacency, so the fanning loop never
	// reaches them; schedule them in input order.
	for t := 0; t < faceCount && j < faceCount; t++ {
		if emitted[t] {
			continue
		}
		dst[j*3+0] = src[t*3]
		dst[j*3+1] = src[t*3+1]
		dst[j*3+2] = src[t*3+2]
		j++
	}
}
