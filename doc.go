// Package meshprep prepares indexed triangle meshes for efficient GPU
// consumption and compact storage.
//
// The optimizers reorder index and vertex streams to improve hardware cache
// behavior. OptimizeVertexCache reorders triangles for the post-transform
// vertex cache, OptimizeOverdraw reorders cache-optimized triangles to
// reduce pixel overdraw within a configurable cache-quality budget, and
// OptimizeVertexFetch reorders the vertex buffer for fetch locality. The
// intended pipeline order is cache, then overdraw, then fetch; fetch
// optimization must run last because it depends on the final index order.
//
// The codecs turn index and vertex buffers into compact byte streams that
// decode back bit-exactly. Streams carry a one-byte format tag but no
// element counts; callers supply index count, vertex count and stride out
// of band. Decoding validates the tag, rejects truncated input and
// trailing bytes, and never reads outside the supplied slice, so encoded
// data may come from untrusted sources.
//
// Analyze functions measure ACMR, ATVR, fetch overfetch and pixel overdraw
// for any index/vertex pair without modifying it, and are the yardstick
// for comparing optimization strategies.
//
// All operations are synchronous pure transforms over caller-owned slices;
// nothing is retained after a call returns. Independent meshes may be
// processed concurrently by the caller.
package meshprep
