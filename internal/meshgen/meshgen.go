// Package meshgen builds procedural test meshes for the tools and
// benchmarks.
package meshgen

import (
	"math"

	"meshprep"
)

// Mesh is an indexed triangle list over the canonical meshprep vertex.
type Mesh struct {
	Vertices []meshprep.Vertex
	Indices  []uint32
}

// Plane returns an n by n quad grid on the z=0 plane, tessellated into
// triangles in row-major scan order with a shared diagonal per cell.
func Plane(n int) *Mesh {
	pitch := n + 1
	m := &Mesh{
		Vertices: make([]meshprep.Vertex, 0, pitch*pitch),
		Indices:  make([]uint32, 0, n*n*6),
	}

	for y := 0; y < pitch; y++ {
		for x := 0; x < pitch; x++ {
			m.Vertices = append(m.Vertices, meshprep.Vertex{
				P: [3]float32{float32(x), float32(y), 0},
				N: [3]float32{0, 0, 1},
				T: [2]float32{float32(x) / float32(n), float32(y) / float32(n)},
			})
		}
	}

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			v00 := uint32(y*pitch + x)
			v01 := v00 + 1
			v10 := uint32((y+1)*pitch + x)
			v11 := v10 + 1
			m.Indices = append(m.Indices, v00, v10, v01)
			m.Indices = append(m.Indices, v01, v10, v11)
		}
	}
	return m
}

// Sphere returns a unit UV sphere with the given ring and sector counts.
// The seam column and the pole rows carry duplicated positions with
// distinct texture coordinates, matching the attribute seams real content
// has.
func Sphere(rings, sectors int) *Mesh {
	m := &Mesh{
		Vertices: make([]meshprep.Vertex, 0, (rings+1)*(sectors+1)),
		Indices:  make([]uint32, 0, rings*sectors*6),
	}

	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= sectors; s++ {
			theta := 2 * math.Pi * float64(s) / float64(sectors)
			n := [3]float32{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			m.Vertices = append(m.Vertices, meshprep.Vertex{
				P: n,
				N: n,
				T: [2]float32{float32(s) / float32(sectors), float32(r) / float32(rings)},
			})
		}
	}

	pitch := sectors + 1
	for r := 0; r < rings; r++ {
		for s := 0; s < sectors; s++ {
			v00 := uint32(r*pitch + s)
			v01 := v00 + 1
			v10 := uint32((r+1)*pitch + s)
			v11 := v10 + 1
			m.Indices = append(m.Indices, v00, v10, v01)
			m.Indices = append(m.Indices, v01, v10, v11)
		}
	}
	return m
}

// Positions adapts the vertex array to meshprep.PositionSource.
func (m *Mesh) Positions() meshprep.VertexSlice {
	return meshprep.VertexSlice(m.Vertices)
}
