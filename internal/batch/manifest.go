package batch

import (
	"encoding/json"
	"os"
)

// Manifest summarizes one batch run.
type Manifest struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Files     []Result `json:"files"`
}

// WriteManifest writes manifest.json for the given results.
func WriteManifest(path string, results []Result) error {
	m := Manifest{Files: results}
	for _, r := range results {
		if r.Success {
			m.Processed++
		} else {
			m.Failed++
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
