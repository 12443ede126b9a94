package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"meshprep"
	"meshprep/internal/meshfile"
	"meshprep/internal/meshgen"
)

// writeMesh packs a generated mesh without optimization, the worst case a
// batch run should improve on.
func writeMesh(t *testing.T, dir, name string, n int) {
	t.Helper()
	m := meshgen.Plane(n)
	records := meshprep.VertexBytes(m.Vertices)

	f := &meshfile.File{
		Header: meshfile.Header{
			VertexCount: uint32(len(m.Vertices)),
			IndexCount:  uint32(len(m.Indices)),
			Stride:      meshprep.VertexSize,
		},
		IndexData:  meshprep.EncodeIndexBuffer(nil, m.Indices, len(m.Vertices)),
		VertexData: meshprep.EncodeVertexBuffer(nil, records, meshprep.VertexSize),
	}
	if err := meshfile.WriteFile(filepath.Join(dir, name), f); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	writeMesh(t, inDir, "a.mpk", 20)
	writeMesh(t, inDir, "b.mpk", 12)
	if err := os.WriteFile(filepath.Join(inDir, "broken.mpk"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := ListInputs(inDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("found %d inputs, want 3", len(files))
	}

	results := Run(Config{
		InputDir:          inDir,
		OutputDir:         outDir,
		CacheSize:         16,
		OverdrawThreshold: 1.05,
		Workers:           2,
	}, files)

	byName := make(map[string]Result)
	for _, r := range results {
		byName[r.Name] = r
	}

	if r := byName["broken.mpk"]; r.Success || r.Error == "" {
		t.Fatalf("broken file reported %+v", r)
	}

	for _, name := range []string{"a.mpk", "b.mpk"} {
		r := byName[name]
		if !r.Success {
			t.Fatalf("%s failed: %s", name, r.Error)
		}
		if r.ACMRAfter >= r.ACMRBefore {
			t.Fatalf("%s ACMR did not improve: %v -> %v", name, r.ACMRBefore, r.ACMRAfter)
		}

		// The rewritten file must decode to the same triangle soup size.
		out, err := meshfile.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("%s output: %v", name, err)
		}
		if out.IndexCount != uint32(len(meshgenIndices(name))) {
			t.Fatalf("%s output index count = %d", name, out.IndexCount)
		}
		if _, err := meshprep.DecodeIndexBuffer32(int(out.IndexCount), out.IndexData); err != nil {
			t.Fatalf("%s output index stream: %v", name, err)
		}
	}
}

func meshgenIndices(name string) []uint32 {
	if name == "a.mpk" {
		return meshgen.Plane(20).Indices
	}
	return meshgen.Plane(12).Indices
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	results := []Result{
		{Name: "a.mpk", Success: true, Triangles: 800},
		{Name: "broken.mpk", Error: "junk"},
	}

	if err := WriteManifest(path, results); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if m.Processed != 1 || m.Failed != 1 {
		t.Fatalf("manifest counts %d/%d, want 1/1", m.Processed, m.Failed)
	}
	if len(m.Files) != 2 {
		t.Fatalf("manifest lists %d files, want 2", len(m.Files))
	}
}
