package classifier

import (
	"fmt"
	"sort"

	"github.com/OldStager01/crop-advisor/pkg/models"
)

// Model bundles the scaler, forest and catalog. It is immutable after
// construction and safe for concurrent use.
type Model struct {
	scaler  *MinMaxScaler
	forest  *Forest
	catalog Catalog
}

func NewModel(scaler *MinMaxScaler, forest *Forest, catalog Catalog) (*Model, error) {
	if err := forest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forest: %w", err)
	}
	if scaler.NumFeatures() != forest.NFeatures {
		return nil, fmt.Errorf("scaler has %d features, forest expects %d", scaler.NumFeatures(), forest.NFeatures)
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	for _, label := range forest.Classes {
		if _, err := catalog.Name(label); err != nil {
			return nil, err
		}
	}
	return &Model{scaler: scaler, forest: forest, catalog: catalog}, nil
}

// Recommend returns the k most probable crops, descending. Equal
// probabilities keep class order.
func (m *Model) Recommend(f models.Features, k int) ([]models.CropProbability, error) {
	scaled, err := m.scaler.Transform(f.Vector())
	if err != nil {
		return nil, err
	}

	proba, err := m.forest.PredictProba(scaled)
	if err != nil {
		return nil, err
	}

	idx := make([]int, len(proba))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return proba[idx[a]] > proba[idx[b]]
	})

	if k > len(idx) {
		k = len(idx)
	}

	out := make([]models.CropProbability, 0, k)
	for _, i := range idx[:k] {
		name, err := m.catalog.Name(m.forest.Classes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, models.CropProbability{
			Crop:        name,
			Probability: models.Round(proba[i], 4),
		})
	}
	return out, nil
}
