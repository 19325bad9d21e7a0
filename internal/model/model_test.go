package model

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumUnmarshalRejectsUnknownValues(t *testing.T) {
	var fs ForecastStatus
	require.NoError(t, json.Unmarshal([]byte(`"resolved_true"`), &fs))
	assert.Equal(t, ForecastResolvedTrue, fs)
	assert.Error(t, json.Unmarshal([]byte(`"pending"`), &fs))

	var ss SignpostStatus
	require.NoError(t, json.Unmarshal([]byte(`"emerging"`), &ss))
	assert.Equal(t, SignpostEmerging, ss)
	assert.Error(t, json.Unmarshal([]byte(`"seen"`), &ss))

	var sc ScenarioStatus
	assert.Error(t, json.Unmarshal([]byte(`"archived"`), &sc))

	_, err := ParseDomain("maritime")
	assert.Error(t, err)
	d, err := ParseDomain("cyber")
	require.NoError(t, err)
	assert.Equal(t, DomainCyber, d)
}

func TestClassifyCAMEO(t *testing.T) {
	tests := []struct {
		code string
		want EventCategory
		ok   bool
	}{
		{"4", EventConsult, true},
		{" 04 ", EventConsult, true},
		{"043", EventConsult, true},
		{"19", EventFight, true},
		{"20", EventMassViolence, true},
		{"00", "", false},
		{"99", "", false},
	}
	for _, tt := range tests {
		got, ok := ClassifyCAMEO(tt.code)
		assert.Equal(t, tt.ok, ok, "code %q", tt.code)
		assert.Equal(t, tt.want, got, "code %q", tt.code)
	}
}

func TestEventCategoryPredicates(t *testing.T) {
	assert.True(t, EventThreaten.IsConflictual())
	assert.False(t, EventThreaten.IsCooperative())
	assert.True(t, EventInvestigate.IsCooperative())
	assert.False(t, EventInvestigate.IsConflictual())
	assert.False(t, EventDemand.IsCooperative())
	assert.Equal(t, "Exhibit Military Force", EventExhibitForce.Label())
	assert.Equal(t, "77", EventCategory("77").Label())
}

func TestIDFormats(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	fc := NewForecastID(at)
	assert.Regexp(t, regexp.MustCompile(`^fc_20260304_050607_[0-9a-f]{6}$`), fc)
	assert.NotEqual(t, fc, NewForecastID(at))

	sc := NewScenarioID(at)
	assert.Regexp(t, regexp.MustCompile(`^sc_20260304_[0-9a-f]{6}$`), sc)
	assert.Equal(t, "sp_20260304_abcdef_2", NewSignpostID("sc_20260304_abcdef", 2))
}

func TestDateJSON(t *testing.T) {
	o := Outcome{ForecastID: "f1", Resolved: true, ResolutionDate: NewDate(2026, time.December, 31)}
	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"forecast_id":"f1","resolved":true,"resolution_date":"2026-12-31","notes":""}`, string(data))

	var back Outcome
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.ResolutionDate.Equal(o.ResolutionDate.Time))

	assert.Error(t, json.Unmarshal([]byte(`{"resolution_date":"31/12/2026"}`), &back))
}

func TestScenarioCopiesDoNotAlias(t *testing.T) {
	domain := DomainMilitary
	orig := Scenario{
		ID:                "sc_1",
		ProbabilityWeight: 0.25,
		Signposts:         []Signpost{{ID: "sp_1", CurrentStatus: SignpostNotSeen}},
		KeyAssumptions:    []string{"a"},
		Domain:            &domain,
	}

	updated := orig.WithWeight(0.5)
	updated.Signposts[0].CurrentStatus = SignpostConfirmed
	updated.KeyAssumptions[0] = "b"
	*updated.Domain = DomainCyber

	assert.Equal(t, 0.25, orig.ProbabilityWeight)
	assert.Equal(t, SignpostNotSeen, orig.Signposts[0].CurrentStatus)
	assert.Equal(t, "a", orig.KeyAssumptions[0])
	assert.Equal(t, DomainMilitary, *orig.Domain)

	sps := []Signpost{{ID: "sp_2", CurrentStatus: SignpostConfirmed}}
	withSps := orig.WithSignposts(sps)
	sps[0].CurrentStatus = SignpostNotSeen
	assert.Equal(t, 1, withSps.CountSignposts(SignpostConfirmed))
}

func TestDoctrinePackFits(t *testing.T) {
	p := DoctrinePack{DoctrineID: "sun_tzu", DomainFit: []Domain{DomainMilitary}}
	assert.True(t, p.Fits(DomainMilitary))
	assert.False(t, p.Fits(DomainEconomic))
}
