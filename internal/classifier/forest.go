package classifier

import (
	"errors"
	"fmt"
)

const leafNode = -1

// Tree is one fitted decision tree in array form. Node 0 is the root and
// a node is a leaf when ChildrenLeft[node] == -1.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Forest is a random-forest classifier export.
type Forest struct {
	Classes   []int  `json:"classes"`
	NFeatures int    `json:"n_features"`
	Trees     []Tree `json:"trees"`
}

func (f *Forest) Validate() error {
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	if len(f.Classes) == 0 {
		return errors.New("forest has no classes")
	}
	if f.NFeatures <= 0 {
		return errors.New("forest n_features must be positive")
	}

	for t, tree := range f.Trees {
		n := len(tree.ChildrenLeft)
		if n == 0 {
			return fmt.Errorf("tree %d is empty", t)
		}
		if len(tree.ChildrenRight) != n || len(tree.Feature) != n ||
			len(tree.Threshold) != n || len(tree.Value) != n {
			return fmt.Errorf("tree %d has inconsistent array lengths", t)
		}
		for node := 0; node < n; node++ {
			left, right := tree.ChildrenLeft[node], tree.ChildrenRight[node]
			if left == leafNode {
				if len(tree.Value[node]) != len(f.Classes) {
					return fmt.Errorf("tree %d leaf %d has %d class values, want %d",
						t, node, len(tree.Value[node]), len(f.Classes))
				}
				continue
			}
			// Children always follow their parent, which rules out cycles.
			if left <= node || left >= n || right <= node || right >= n {
				return fmt.Errorf("tree %d node %d has invalid children", t, node)
			}
			if feat := tree.Feature[node]; feat < 0 || feat >= f.NFeatures {
				return fmt.Errorf("tree %d node %d splits on unknown feature %d", t, node, feat)
			}
		}
	}
	return nil
}

// PredictProba averages the normalised leaf distributions of every tree.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.NFeatures {
		return nil, fmt.Errorf("forest expects %d features, got %d", f.NFeatures, len(x))
	}

	// Splits were learned on float32 inputs.
	x32 := make([]float64, len(x))
	for i, v := range x {
		x32[i] = float64(float32(v))
	}

	proba := make([]float64, len(f.Classes))
	for i := range f.Trees {
		leaf := f.Trees[i].Value[f.Trees[i].leaf(x32)]

		var total float64
		for _, v := range leaf {
			total += v
		}
		if total <= 0 {
			continue
		}
		for c, v := range leaf {
			proba[c] += v / total
		}
	}

	n := float64(len(f.Trees))
	for c := range proba {
		proba[c] /= n
	}
	return proba, nil
}

func (t *Tree) leaf(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] != leafNode {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}
