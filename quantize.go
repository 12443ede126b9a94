package meshprep

import "math"

// QuantizeUnorm quantizes a float in [0..1] to an n-bit unsigned integer
// in [0..2^n-1]. Values outside the range are clamped.
func QuantizeUnorm(v float32, bits int) int {
	scale := float32(int(1)<<bits - 1)
	if !(v >= 0) {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return int(v*scale + 0.5)
}

// QuantizeSnorm quantizes a float in [-1..1] to an n-bit signed integer
// in [-(2^(n-1)-1)..2^(n-1)-1]. Values outside the range are clamped.
func QuantizeSnorm(v float32, bits int) int {
	scale := float32(int(1)<<(bits-1) - 1)
	round := float32(-0.5)
	if v >= 0 {
		round = 0.5
	}
	if !(v >= -1) {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	return int(v*scale + round)
}

// QuantizeHalf quantizes a float to half-precision. Overflow maps to
// infinity and every NaN becomes a quiet NaN.
func QuantizeHalf(v float32) uint16 {
	ui := math.Float32bits(v)
	s := int32((ui >> 16) & 0x8000)
	em := int32(ui & 0x7fffffff)

	// bias exponent and round to nearest; 112 is the relative exponent
	// bias (127 - 15)
	h := (em - (112 << 23) + (1 << 12)) >> 13

	// underflow: flush to zero; 113 encodes exponent -14
	if em < 113<<23 {
		h = 0
	}
	// overflow: infinity; 143 encodes exponent 16
	if em >= 143<<23 {
		h = 0x7c00
	}
	if em > 255<<23 {
		h = 0x7e00
	}
	return uint16(s | h)
}

// QuantizeFloat rounds a float to a value that carries bits mantissa bits,
// improving downstream byte compressibility. Infinity and NaN pass
// through unchanged; denormals flush to zero.
func QuantizeFloat(v float32, bits int) float32 {
	ui := math.Float32bits(v)
	mask := uint32(1)<<(23-bits) - 1
	round := uint32(1) << (23 - bits) >> 1

	e := ui & 0x7f800000
	rui := (ui + round) &^ mask
	// round all numbers except infinity and NaN, so NaN cannot overflow
	// into -0
	if e == 0x7f800000 {
		rui = ui
	}
	if e == 0 {
		rui = 0
	}
	return math.Float32frombits(rui)
}

// DequantizeHalf expands a half-precision value back to a float.
func DequantizeHalf(h uint16) float32 {
	s := (uint32(h) & 0x8000) << 16
	em := uint32(h) & 0x7fff

	// bias exponent and pad mantissa with zeros
	r := (em + (112 << 10)) << 13

	// denormals flush to zero
	if em < 1<<10 {
		r = 0
	}
	// infinity and NaN keep exponent 255
	if em >= 31<<10 {
		r += 112 << 23
	}
	return math.Float32frombits(s | r)
}
