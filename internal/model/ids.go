package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// randomSuffix returns n lowercase hex characters. Collisions are unlikely
// but not impossible.
func randomSuffix(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// NewForecastID returns "fc_YYYYMMDD_HHMMSS_xxxxxx" for the given instant.
func NewForecastID(at time.Time) string {
	return fmt.Sprintf("fc_%s_%s", at.UTC().Format("20060102_150405"), randomSuffix(6))
}

// NewScenarioID returns "sc_YYYYMMDD_xxxxxx" for the given instant.
func NewScenarioID(at time.Time) string {
	return fmt.Sprintf("sc_%s_%s", at.UTC().Format("20060102"), randomSuffix(6))
}

// NewSignpostID returns an id for the n-th signpost of a scenario.
func NewSignpostID(scenarioID string, n int) string {
	return fmt.Sprintf("sp_%s_%d", strings.TrimPrefix(scenarioID, "sc_"), n)
}

// NewSetID returns an id for a persisted scenario set.
func NewSetID() string {
	return "set_" + randomSuffix(12)
}
