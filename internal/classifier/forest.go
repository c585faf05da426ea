package classifier

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// Forest is a random forest exported from scikit-learn as JSON. Each tree
// keeps sklearn's parallel-array layout: a node is a leaf when its left
// child is -1, otherwise samples with x[feature] <= threshold go left.
type Forest struct {
	NFeatures    int      `json:"n_features"`
	FeatureNames []string `json:"feature_names,omitempty"`
	Classes      []int    `json:"classes"`
	Trees        []Tree   `json:"trees"`
}

// Tree is one decision tree of a Forest.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// LoadForest reads and validates a forest export.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classifier: read model %s", path)
	}

	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "classifier: parse model %s", path)
	}
	if err := f.Validate(); err != nil {
		return nil, eris.Wrapf(err, "classifier: model %s", path)
	}
	return &f, nil
}

// Validate checks the forest matches the feature vector and that every tree
// is well formed. Children must have a higher index than their parent, which
// guarantees traversal terminates.
func (f *Forest) Validate() error {
	if f.NFeatures != FeatureCount {
		return eris.Errorf("expects %d features, engine provides %d", f.NFeatures, FeatureCount)
	}
	if len(f.FeatureNames) > 0 {
		if len(f.FeatureNames) != FeatureCount {
			return eris.Errorf("feature_names has %d entries", len(f.FeatureNames))
		}
		for i, name := range f.FeatureNames {
			if name != FeatureNames[i] {
				return eris.Errorf("feature %d is %q, engine provides %q", i, name, FeatureNames[i])
			}
		}
	}
	if len(f.Classes) == 0 {
		return eris.New("no classes")
	}
	if len(f.Trees) == 0 {
		return eris.New("no trees")
	}

	for ti, t := range f.Trees {
		n := len(t.ChildrenLeft)
		if n == 0 || len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
			return eris.Errorf("tree %d: node arrays differ in length", ti)
		}
		for node := 0; node < n; node++ {
			left, right := t.ChildrenLeft[node], t.ChildrenRight[node]
			if left == -1 {
				if len(t.Value[node]) != len(f.Classes) {
					return eris.Errorf("tree %d node %d: value has %d classes, want %d", ti, node, len(t.Value[node]), len(f.Classes))
				}
				continue
			}
			if left <= node || left >= n || right <= node || right >= n {
				return eris.Errorf("tree %d node %d: child index out of range", ti, node)
			}
			if t.Feature[node] < 0 || t.Feature[node] >= f.NFeatures {
				return eris.Errorf("tree %d node %d: feature %d out of range", ti, node, t.Feature[node])
			}
		}
	}
	return nil
}

// Name implements Model.
func (f *Forest) Name() string { return "forest" }

// Predict implements Model. Probabilities are the mean of each tree's
// normalised leaf distribution; the predicted class is the most probable,
// with ties going to the lowest index.
func (f *Forest) Predict(_ context.Context, x FeatureVector) (Prediction, error) {
	proba := make([]float64, len(f.Classes))
	for _, t := range f.Trees {
		leaf := t.Value[t.leaf(x)]
		var total float64
		for _, v := range leaf {
			total += v
		}
		if total == 0 {
			continue
		}
		for i, v := range leaf {
			proba[i] += v / total
		}
	}

	best := 0
	for i := range proba {
		proba[i] /= float64(len(f.Trees))
		if proba[i] > proba[best] {
			best = i
		}
	}
	return Prediction{Class: f.Classes[best], Probabilities: proba}, nil
}

func (t *Tree) leaf(x FeatureVector) int {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}
