// Package raster provides a minimal software rasterizer used to measure
// per-pixel shading cost of a triangle mesh under an orthographic projection.
//
// The rasterizer models early depth testing: a fragment is counted as shaded
// only when it passes the depth test against previously drawn fragments, so
// the per-pixel counts reflect the overdraw a GPU with early-Z would incur
// for the given triangle order.
package raster

import "math"

// OverdrawBuffer holds the measurement target as flat slices for cache
// locality. Depth is initialized to -inf; larger depth values win, which
// matches a camera on the positive side of the projection axis.
type OverdrawBuffer struct {
	Width  int
	Height int
	Depth  []float32 // depth per pixel, len = W*H, initialized to -inf
	Count  []uint32  // shaded fragments per pixel, len = W*H
}

// NewOverdrawBuffer allocates a cleared buffer of the given size.
func NewOverdrawBuffer(w, h int) *OverdrawBuffer {
	b := &OverdrawBuffer{
		Width:  w,
		Height: h,
		Depth:  make([]float32, w*h),
		Count:  make([]uint32, w*h),
	}
	b.Clear()
	return b
}

// Clear resets the buffer so it can be reused for another view.
func (b *OverdrawBuffer) Clear() {
	ninf := float32(math.Inf(-1))
	for i := range b.Depth {
		b.Depth[i] = ninf
		b.Count[i] = 0
	}
}

// Covered returns the number of pixels shaded at least once.
func (b *OverdrawBuffer) Covered() uint32 {
	var n uint32
	for _, c := range b.Count {
		if c > 0 {
			n++
		}
	}
	return n
}

// Shaded returns the total number of shaded fragments across all pixels.
func (b *OverdrawBuffer) Shaded() uint32 {
	var n uint32
	for _, c := range b.Count {
		n += c
	}
	return n
}

// MaxCount returns the highest per-pixel fragment count, used to normalize
// heat map output.
func (b *OverdrawBuffer) MaxCount() uint32 {
	var n uint32
	for _, c := range b.Count {
		if c > n {
			n = c
		}
	}
	return n
}
