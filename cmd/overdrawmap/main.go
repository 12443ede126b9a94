// overdrawmap renders a per-pixel overdraw heatmap for one axis view of a
// mesh and writes it as WebP or TGA. Useful for eyeballing what the
// overdraw optimizer changes about a submission order.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"meshprep"
	"meshprep/internal/meshfile"
	"meshprep/internal/meshgen"
	"meshprep/internal/raster"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

func main() {
	gen := flag.String("gen", "", "Mesh to render: grid:N or sphere:N")
	in := flag.String("in", "", "Input .mpk (float vertices) to render")
	axis := flag.String("axis", "z", "View axis: x, y or z (camera on the positive side)")
	size := flag.Int("size", 256, "Output image size in pixels")
	supersample := flag.Int("supersample", 2, "Supersampling factor")
	optimize := flag.Bool("optimize", false, "Cache- and overdraw-optimize before rendering")
	threshold := flag.Float64("threshold", 1.05, "Overdraw ACMR degradation budget for -optimize")
	out := flag.String("out", "overdraw.webp", "Output image path (.webp or .tga)")
	flag.Parse()

	if err := run(*gen, *in, *axis, *size, *supersample, *optimize, float32(*threshold), *out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(gen, in, axis string, size, supersample int, optimize bool, threshold float32, out string) error {
	axisIdx := strings.Index("xyz", axis)
	if axisIdx < 0 || len(axis) != 1 {
		return fmt.Errorf("bad -axis %q, want x, y or z", axis)
	}
	if size <= 0 || supersample <= 0 {
		return fmt.Errorf("size and supersample must be positive")
	}

	positions, indices, err := loadMesh(gen, in)
	if err != nil {
		return err
	}

	if optimize {
		meshprep.OptimizeVertexCache(indices, indices, positions.Count())
		meshprep.OptimizeOverdraw(indices, indices, positions, threshold)
	}

	render := size * supersample
	buf := raster.NewOverdrawBuffer(render, render)
	rasterizeView(buf, indices, positions, axisIdx, render)

	img := heatmap(buf)
	if supersample > 1 {
		img = downsample(img, size)
	}

	stats := meshprep.AnalyzeOverdraw(indices, positions)
	fmt.Printf("Mesh: %d triangles, overdraw %.3f (all views), max depth %d (%s view)\n",
		len(indices)/3, stats.Overdraw, buf.MaxCount(), axis)

	if err := writeImage(out, img); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%dx%d)\n", out, size, size)
	return nil
}

// rasterizeView projects the mesh orthographically along the given axis,
// scaled to fill the viewport, and draws it into buf.
func rasterizeView(buf *raster.OverdrawBuffer, indices []uint32, src meshprep.PositionSource, axis, viewport int) {
	n := src.Count()
	if n == 0 {
		return
	}

	min := src.Position(0)
	max := min
	for i := 1; i < n; i++ {
		p := src.Position(i)
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	extent := float32(0)
	for k := 0; k < 3; k++ {
		if e := max[k] - min[k]; e > extent {
			extent = e
		}
	}
	scale := float32(0)
	if extent > 0 {
		scale = float32(viewport) / extent
	}

	project := func(i uint32) [3]float32 {
		p := src.Position(int(i))
		for k := 0; k < 3; k++ {
			p[k] = (p[k] - min[k]) * scale
		}
		switch axis {
		case 0:
			return [3]float32{p[1], p[2], p[0]}
		case 1:
			return [3]float32{p[0], p[2], p[1]}
		default:
			return [3]float32{p[0], p[1], p[2]}
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		raster.RasterizeTriangle(buf, project(indices[i]), project(indices[i+1]), project(indices[i+2]))
	}
}

// heatmap maps per-pixel fragment counts onto a blue-green-yellow-red ramp.
// Uncovered pixels stay transparent.
func heatmap(buf *raster.OverdrawBuffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	max := buf.MaxCount()
	if max == 0 {
		return img
	}

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			c := buf.Count[y*buf.Width+x]
			if c == 0 {
				continue
			}
			r, g, b := rampColor(float64(c-1) / float64(max))
			// Flip vertically: buffer rows grow upward, image rows down.
			di := img.PixOffset(x, buf.Height-1-y)
			img.Pix[di] = r
			img.Pix[di+1] = g
			img.Pix[di+2] = b
			img.Pix[di+3] = 255
		}
	}
	return img
}

// rampColor interpolates blue → green → yellow → red for t in [0, 1].
func rampColor(t float64) (uint8, uint8, uint8) {
	stops := [4][3]float64{
		{0, 0, 255},
		{0, 200, 0},
		{255, 220, 0},
		{255, 0, 0},
	}
	if t <= 0 {
		return 0, 0, 255
	}
	if t >= 1 {
		return 255, 0, 0
	}
	f := t * 3
	i := int(f)
	f -= float64(i)
	lerp := func(a, b float64) uint8 { return uint8(a + (b-a)*f + 0.5) }
	return lerp(stops[i][0], stops[i+1][0]),
		lerp(stops[i][1], stops[i+1][1]),
		lerp(stops[i][2], stops[i+1][2])
}

// downsample reduces image size with premultiplied-alpha-aware CatmullRom
// filtering. This prevents dark halo artifacts at transparent edges.
func downsample(img *image.NRGBA, targetSize int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= targetSize && b.Dy() <= targetSize {
		return img
	}

	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255.0
			premul.Pix[di] = uint8(float64(img.Pix[si])*a + 0.5)
			premul.Pix[di+1] = uint8(float64(img.Pix[si+1])*a + 0.5)
			premul.Pix[di+2] = uint8(float64(img.Pix[si+2])*a + 0.5)
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetSize, targetSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	result := image.NewNRGBA(dst.Bounds())
	for y := 0; y < targetSize; y++ {
		for x := 0; x < targetSize; x++ {
			si := dst.PixOffset(x, y)
			di := result.PixOffset(x, y)
			a := float64(dst.Pix[si+3])
			if a > 1 {
				inv := 255.0 / a
				result.Pix[di] = clamp8(float64(dst.Pix[si]) * inv)
				result.Pix[di+1] = clamp8(float64(dst.Pix[si+1]) * inv)
				result.Pix[di+2] = clamp8(float64(dst.Pix[si+2]) * inv)
			}
			result.Pix[di+3] = dst.Pix[si+3]
		}
	}

	return result
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func writeImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch ext := filepath.Ext(path); ext {
	case ".webp":
		if err := nativewebp.Encode(f, img, nil); err != nil {
			return fmt.Errorf("WebP encode: %w", err)
		}
	case ".tga":
		if err := tga.Encode(f, img); err != nil {
			return fmt.Errorf("TGA encode: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output extension %q, want .webp or .tga", ext)
	}
	return nil
}

func loadMesh(gen, in string) (meshprep.PositionSource, []uint32, error) {
	switch {
	case gen != "" && in != "":
		return nil, nil, fmt.Errorf("use either -gen or -in, not both")
	case gen != "":
		kind, num, ok := strings.Cut(gen, ":")
		n, err := strconv.Atoi(num)
		if !ok || err != nil || n <= 0 {
			return nil, nil, fmt.Errorf("bad -gen %q, want grid:N or sphere:N", gen)
		}
		var m *meshgen.Mesh
		switch kind {
		case "grid":
			m = meshgen.Plane(n)
		case "sphere":
			m = meshgen.Sphere(n, n*2)
		default:
			return nil, nil, fmt.Errorf("bad -gen %q, want grid:N or sphere:N", gen)
		}
		return m.Positions(), m.Indices, nil
	case in != "":
		mf, err := meshfile.ReadFile(in)
		if err != nil {
			return nil, nil, err
		}
		if mf.Flags&meshfile.FlagQuantized != 0 {
			return nil, nil, fmt.Errorf("%s holds quantized records; rendering needs float positions", in)
		}
		indices, err := meshprep.DecodeIndexBuffer32(int(mf.IndexCount), mf.IndexData)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: index stream: %w", in, err)
		}
		raw, err := meshprep.DecodeVertexBufferAlloc(int(mf.VertexCount), int(mf.Stride), mf.VertexData)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: vertex stream: %w", in, err)
		}
		view, err := meshprep.NewVertexView(raw, int(mf.Stride), 0)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", in, err)
		}
		for _, idx := range indices {
			if int(idx) >= view.Count() {
				return nil, nil, fmt.Errorf("%s: index %d out of range for %d vertices", in, idx, view.Count())
			}
		}
		return view, indices, nil
	default:
		return nil, nil, fmt.Errorf("one of -gen or -in is required")
	}
}
