package classify

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/Brownie44l1/classify-api/internal/labels"
)

// Ranked is one label/score pair from a ranked score vector.
type Ranked struct {
	Label string  `json:"label"`
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// TopK returns the k highest-scoring classes, best first. Ties keep their
// original index order. k larger than the score vector is clamped.
func TopK(scores []float32, table labels.Table, k int) []Ranked {
	ranked := make([]Ranked, len(scores))
	for i, s := range scores {
		ranked[i] = Ranked{Label: table.Lookup(i), Index: i, Score: s}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	if k < 0 {
		k = 0
	}
	return ranked[:k]
}

// Softmax converts a raw logit vector into a probability distribution.
// Shifted by the max logit for numerical stability.
func Softmax(scores []float32) []float64 {
	if len(scores) == 0 {
		return nil
	}

	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = float64(s)
	}

	max := floats.Max(out)
	for i := range out {
		out[i] = math.Exp(out[i] - max)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
