package classify

import (
	"fmt"

	"github.com/Brownie44l1/classify-api/internal/labels"
	"github.com/Brownie44l1/classify-api/internal/model"
)

const topPredictions = 5

// Result is the decoded outcome of one inference call.
type Result struct {
	Label string   `json:"label"`
	Index int      `json:"index"`
	Score float32  `json:"score"`
	Best  []Ranked `json:"predictions,omitempty"`

	// Scores is the full raw output vector, kept for postprocessing.
	Scores []float32 `json:"-"`
}

// Classify runs one forward pass on h and decodes the winning class.
// The highest-scoring index wins; ties keep the first occurrence. An index
// outside the label table decodes as labels.Unknown rather than failing.
func Classify(h model.Handle, table labels.Table, tensor []float32) (Result, error) {
	if len(tensor) != h.InputSize() {
		return Result{}, &model.InferenceError{
			Reason: fmt.Sprintf("tensor has %d values, model expects %d", len(tensor), h.InputSize()),
		}
	}

	scores, err := h.Invoke(tensor)
	if err != nil {
		return Result{}, err
	}
	if len(scores) == 0 {
		return Result{}, &model.InferenceError{Reason: "model returned no scores"}
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}

	return Result{
		Label:  table.Lookup(best),
		Index:  best,
		Score:  scores[best],
		Best:   TopK(scores, table, topPredictions),
		Scores: scores,
	}, nil
}
