// Package scoring computes Brier scores, the Murphy decomposition and
// calibration reports over resolved forecasts.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/ziadkadry99/foresight/internal/model"
)

// ErrInvalidInput is returned for empty, mismatched or out-of-range inputs.
var ErrInvalidInput = errors.New("invalid scoring input")

const decompositionBins = 10

// BrierScore returns the squared error between p and the realized outcome.
func BrierScore(p float64, outcome bool) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("%w: probability must be in [0, 1], got %v", ErrInvalidInput, p)
	}
	actual := 0.0
	if outcome {
		actual = 1
	}
	d := p - actual
	return d * d, nil
}

type pair struct {
	prob   float64
	actual float64
}

// matchPairs joins forecasts to outcomes by forecast id. When an id appears in
// several outcomes the last one wins.
func matchPairs(forecasts []model.Forecast, outcomes []model.Outcome) []matched {
	resolved := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		resolved[o.ForecastID] = o.Resolved
	}
	var out []matched
	for _, fc := range forecasts {
		r, ok := resolved[fc.ID]
		if !ok {
			continue
		}
		out = append(out, matched{forecast: fc, outcome: r})
	}
	return out
}

type matched struct {
	forecast model.Forecast
	outcome  bool
}

func binIndex(p float64, numBins int) int {
	return min(int(math.Floor(p*float64(numBins))), numBins-1)
}

// BrierDecomposition splits the mean Brier score of the matched pairs into
// reliability, resolution and uncertainty. Forecasts and outcomes must be
// non-empty and of equal length, and at least one forecast must have an
// outcome.
func BrierDecomposition(forecasts []model.Forecast, outcomes []model.Outcome) (model.BrierDecomposition, error) {
	if len(forecasts) == 0 || len(forecasts) != len(outcomes) {
		return model.BrierDecomposition{}, fmt.Errorf("%w: forecasts and outcomes must be non-empty and equal length (%d vs %d)",
			ErrInvalidInput, len(forecasts), len(outcomes))
	}

	var pairs []pair
	for _, m := range matchPairs(forecasts, outcomes) {
		actual := 0.0
		if m.outcome {
			actual = 1
		}
		pairs = append(pairs, pair{prob: m.forecast.Probability, actual: actual})
	}
	n := len(pairs)
	if n == 0 {
		return model.BrierDecomposition{}, fmt.Errorf("%w: no matched forecast-outcome pairs", ErrInvalidInput)
	}

	var hits float64
	bins := make(map[int][]pair)
	for _, p := range pairs {
		hits += p.actual
		idx := binIndex(p.prob, decompositionBins)
		bins[idx] = append(bins[idx], p)
	}
	baseRate := hits / float64(n)
	uncertainty := baseRate * (1 - baseRate)

	var rel, res float64
	for _, items := range bins {
		nk := float64(len(items))
		var sumP, sumO float64
		for _, it := range items {
			sumP += it.prob
			sumO += it.actual
		}
		avgP, avgO := sumP/nk, sumO/nk
		rel += nk * (avgP - avgO) * (avgP - avgO)
		res += nk * (avgO - baseRate) * (avgO - baseRate)
	}
	rel /= float64(n)
	res /= float64(n)

	return model.BrierDecomposition{
		Reliability: round(rel, 6),
		Resolution:  round(res, 6),
		Uncertainty: round(uncertainty, 6),
		Overall:     round(rel-res+uncertainty, 6),
	}, nil
}

func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
