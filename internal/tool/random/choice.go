package random

import "math"

// SumTolerance is how far the weights may stray from 1. Weights outside it are
// rejected, never renormalized.
const SumTolerance = 0.001

// distribution pairs choices with validated weights.
type distribution struct {
	items   []string
	weights []float64
}

func newDistribution(items []string, weights []float64) (*distribution, error) {
	if len(weights) != len(items) {
		return nil, &LengthMismatchError{Choices: len(items), Weights: len(weights)}
	}

	var sum float64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, &NegativeWeightError{Index: i, Weight: w}
		}
		sum += w
	}
	if math.Abs(sum-1) > SumTolerance || math.IsInf(sum, 0) {
		return nil, &WeightSumError{Sum: sum}
	}

	return &distribution{items: items, weights: weights}, nil
}

// pick walks the items in order, subtracting each weight from r, and returns
// the first item where the remainder reaches zero. Zero-weight items are never
// picked, even when r is exactly 0.
func (d *distribution) pick(r float64) string {
	last := -1
	for i, w := range d.weights {
		if w == 0 {
			continue
		}
		last = i
		r -= w
		if r <= 0 {
			return d.items[i]
		}
	}
	// Weights that sum to slightly under 1 can leave a sliver of r unspent.
	// That sliver belongs to the last item that can be picked at all.
	return d.items[last]
}

// Choose picks one of items. A nil weights slice means every item is equally
// likely; otherwise weights must pair with items and sum to 1 within SumTolerance.
// Choose draws exactly once from src. An item with weight 0 is never returned,
// and rounding drift past the total falls to the last positive-weight item.
func Choose(src Source, items []string, weights []float64) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyChoiceSet
	}
	if weights == nil {
		return items[src.Int64N(int64(len(items)))], nil
	}

	d, err := newDistribution(items, weights)
	if err != nil {
		return "", err
	}
	return d.pick(src.Float64()), nil
}
