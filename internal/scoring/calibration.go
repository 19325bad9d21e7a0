package scoring

import (
	"sort"

	"github.com/ziadkadry99/foresight/internal/model"
)

// DefaultNumBins is the bucket count used when the caller passes zero.
const DefaultNumBins = 10

// BuildCalibrationReport buckets resolved forecasts by stated probability and
// computes mean Brier scores per domain and per doctrine agent. Forecasts with
// no matching outcome are ignored. A forecast that used several agents counts
// toward each of their groups.
func BuildCalibrationReport(forecasts []model.Forecast, outcomes []model.Outcome, numBins int) (model.CalibrationReport, error) {
	if numBins <= 0 {
		numBins = DefaultNumBins
	}
	pairs := matchPairs(forecasts, outcomes)

	type bucket struct {
		sumP float64
		hits int
		n    int
	}
	buckets := make(map[int]*bucket)
	domainScores := make(map[string][]float64)
	agentScores := make(map[string][]float64)

	for _, m := range pairs {
		score, err := BrierScore(m.forecast.Probability, m.outcome)
		if err != nil {
			return model.CalibrationReport{}, err
		}

		idx := binIndex(m.forecast.Probability, numBins)
		b, ok := buckets[idx]
		if !ok {
			b = &bucket{}
			buckets[idx] = b
		}
		b.sumP += m.forecast.Probability
		b.n++
		if m.outcome {
			b.hits++
		}

		d := string(m.forecast.Domain)
		domainScores[d] = append(domainScores[d], score)
		for _, agent := range m.forecast.DoctrineAgentsUsed {
			agentScores[agent] = append(agentScores[agent], score)
		}
	}

	idxs := make([]int, 0, len(buckets))
	for idx := range buckets {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	report := model.CalibrationReport{
		Bins:         make([]model.CalibrationBin, 0, len(idxs)),
		DomainScores: meanScores(domainScores),
		AgentScores:  meanScores(agentScores),
	}
	for _, idx := range idxs {
		b := buckets[idx]
		report.Bins = append(report.Bins, model.CalibrationBin{
			BinCenter:    (float64(idx) + 0.5) / float64(numBins),
			PredictedAvg: round(b.sumP/float64(b.n), 4),
			HitRate:      round(float64(b.hits)/float64(b.n), 4),
			Count:        b.n,
		})
	}
	return report, nil
}

func meanScores(groups map[string][]float64) map[string]float64 {
	out := make(map[string]float64, len(groups))
	for k, scores := range groups {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		out[k] = round(sum/float64(len(scores)), 6)
	}
	return out
}
