package raster

import "math"

// RasterizeTriangle draws one triangle into the overdraw buffer.
//
// Vertices are given in pixel coordinates with depth increasing toward the
// camera. Every pixel whose center lies inside the triangle produces a
// fragment; the fragment is counted when its interpolated depth passes the
// depth test. Equal depth passes, so coplanar duplicate geometry registers
// as overdraw.
//
// This is the HOT PATH — designed for zero allocation in the inner loop.
func RasterizeTriangle(buf *OverdrawBuffer, v0, v1, v2 [3]float32) {
	x0, y0, z0 := float64(v0[0]), float64(v0[1]), float64(v0[2])
	x1, y1, z1 := float64(v1[0]), float64(v1[1]), float64(v1[2])
	x2, y2, z2 := float64(v2[0]), float64(v2[1]), float64(v2[2])

	// Bounding box
	w := buf.Width
	h := buf.Height
	minX := int(math.Min(math.Min(x0, x1), x2))
	maxX := int(math.Max(math.Max(x0, x1), x2)) + 1
	minY := int(math.Min(math.Min(y0, y1), y2))
	maxY := int(math.Max(math.Max(y0, y1), y2)) + 1

	if minX < 0 {
		minX = 0
	}
	if maxX >= w {
		maxX = w - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= h {
		maxY = h - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup; triangles degenerate in this projection contribute
	// no fragments.
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	// Pixel loop — zero allocations
	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		rowOff := sy * w
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := float32(w0*z0 + w1*z1 + w2*z2)
			idx := rowOff + sx
			if z < buf.Depth[idx] {
				continue
			}
			buf.Depth[idx] = z
			buf.Count[idx]++
		}
	}
}
