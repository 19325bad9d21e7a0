package forecast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	minProbability = 0.01
	maxProbability = 0.99
)

// ParseProbability reads a model's probability reply. A trailing percent sign
// is accepted and any value above 1 is treated as a percentage, so "1.2"
// becomes 0.012. The result is clamped to [0.01, 0.99].
func ParseProbability(raw string) (float64, error) {
	cleaned := strings.Trim(strings.TrimSpace(raw), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableProbability, raw)
	}
	if v > 1 {
		v /= 100
	}
	return math.Max(minProbability, math.Min(maxProbability, v)), nil
}

func probabilityPrompt(event, synthesis string, baseRate *float64) string {
	var b strings.Builder
	b.WriteString("You are a calibrated probabilistic forecaster trained in superforecasting methodology.\n\n")
	fmt.Fprintf(&b, "Event: %s\n\n", event)
	if baseRate != nil {
		fmt.Fprintf(&b, "The reference-class base rate is %.0f%%.\n", *baseRate*100)
	}
	fmt.Fprintf(&b, "Doctrine council analysis:\n%s\n\n", synthesis)
	b.WriteString("Provide your probability estimate as a single decimal (0.00-1.00). " +
		"Think step by step: outside view first, then inside view adjustments. " +
		"Respond with ONLY the number.")
	return b.String()
}
