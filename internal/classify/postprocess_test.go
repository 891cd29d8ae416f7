package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brownie44l1/classify-api/internal/labels"
)

func TestTopK(t *testing.T) {
	scores := []float32{0.05, 0.6, 0.1, 0.25}
	table := labels.Table{"background", "cat", "dog", "bird"}

	top := TopK(scores, table, 3)

	assert.Len(t, top, 3)
	assert.Equal(t, Ranked{Label: "cat", Index: 1, Score: 0.6}, top[0])
	assert.Equal(t, Ranked{Label: "bird", Index: 3, Score: 0.25}, top[1])
	assert.Equal(t, Ranked{Label: "dog", Index: 2, Score: 0.1}, top[2])
}

func TestTopKClamps(t *testing.T) {
	scores := []float32{0.4, 0.6}
	table := labels.Table{"background", "cat"}

	assert.Len(t, TopK(scores, table, 10), 2)
	assert.Len(t, TopK(scores, table, 0), 0)
	assert.Len(t, TopK(scores, table, -1), 0)
}

func TestTopKStableOnTies(t *testing.T) {
	scores := []float32{0.5, 0.5, 0.5}
	table := labels.Table{"background", "cat", "dog"}

	top := TopK(scores, table, 3)

	assert.Equal(t, 0, top[0].Index)
	assert.Equal(t, 1, top[1].Index)
	assert.Equal(t, 2, top[2].Index)
}

func TestTopKPastTableEnd(t *testing.T) {
	scores := []float32{0.1, 0.9}
	table := labels.Table{"background"}

	top := TopK(scores, table, 2)

	assert.Equal(t, labels.Unknown, top[0].Label)
	assert.Equal(t, 1, top[0].Index)
}

func TestSoftmax(t *testing.T) {
	probs := Softmax([]float32{1, 2, 3})

	assert.Len(t, probs, 3)
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[2], probs[1])
	assert.Greater(t, probs[1], probs[0])
}

func TestSoftmaxLargeLogits(t *testing.T) {
	// Max-shift keeps huge logits from overflowing exp.
	probs := Softmax([]float32{1000, 1001})

	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-9)
	assert.Greater(t, probs[1], probs[0])
}

func TestSoftmaxEmpty(t *testing.T) {
	assert.Nil(t, Softmax(nil))
	assert.Nil(t, Softmax([]float32{}))
}
