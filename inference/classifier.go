package inference

// classifier module defines classifier interface and post-processing of
// classifier outputs
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"context"
	"sort"

	"github.com/chewxy/math32"
	"github.com/vkuznet/recyclehub/imaging"
)

// Classifier maps preprocessed image tensor to probability vector over
// ordered label set
type Classifier interface {
	Predict(ctx context.Context, tensor *imaging.Tensor) ([]float32, error)
	Close() error
}

// Prediction represents single classifier prediction
type Prediction struct {
	Label      string  `json:"label"`      // material label
	Confidence float32 `json:"confidence"` // confidence in [0,1]
}

// Softmax converts given logits to probabilities
func Softmax(logits []float32) []float32 {
	probs := make([]float32, len(logits))
	if len(logits) == 0 {
		return probs
	}
	maxVal := logits[0]
	for _, v := range logits[1:] {
		maxVal = math32.Max(maxVal, v)
	}
	var sum float32
	for i, v := range logits {
		probs[i] = math32.Exp(v - maxVal)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// TopK returns indices of k highest probabilities ordered by descending
// value, ties are resolved in favor of lower index
func TopK(probs []float32, k int) []int {
	if k <= 0 {
		return []int{}
	}
	if k > len(probs) {
		k = len(probs)
	}
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return probs[idx[i]] > probs[idx[j]]
	})
	return idx[:k]
}

// ArgMax returns index of highest probability, -1 for empty input
func ArgMax(probs []float32) int {
	top := TopK(probs, 1)
	if len(top) == 0 {
		return -1
	}
	return top[0]
}
