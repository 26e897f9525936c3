package classifier

import (
	"encoding/json"
	"fmt"
	"os"
)

type Paths struct {
	ScalerPath     string
	ClassifierPath string
	// CatalogPath is optional; the default catalog is used when empty.
	CatalogPath string
}

// Load reads the exported artifacts from disk.
func Load(p Paths) (*Model, error) {
	var sa ScalerArtifact
	if err := readJSON(p.ScalerPath, &sa); err != nil {
		return nil, fmt.Errorf("failed to load scaler: %w", err)
	}
	scaler, err := NewMinMaxScaler(sa)
	if err != nil {
		return nil, fmt.Errorf("failed to load scaler: %w", err)
	}

	var forest Forest
	if err := readJSON(p.ClassifierPath, &forest); err != nil {
		return nil, fmt.Errorf("failed to load classifier: %w", err)
	}

	var catalog Catalog
	if p.CatalogPath != "" {
		var raw map[string]string
		if err := readJSON(p.CatalogPath, &raw); err != nil {
			return nil, fmt.Errorf("failed to load crop catalog: %w", err)
		}
		if catalog, err = catalogFromJSON(raw); err != nil {
			return nil, fmt.Errorf("failed to load crop catalog: %w", err)
		}
	}

	return NewModel(scaler, &forest, catalog)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
