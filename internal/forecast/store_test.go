package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/foresight/internal/db"
	"github.com/ziadkadry99/foresight/internal/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func sampleForecast(id string, domain model.Domain, horizon model.Date, created time.Time) *model.Forecast {
	cat := model.EventThreaten
	rate := 0.2
	return &model.Forecast{
		ID:                    id,
		Event:                 "Event " + id,
		Horizon:               horizon,
		Probability:           0.4,
		ConfidenceInterval:    model.DefaultConfidenceInterval,
		KeyDrivers:            []string{"driver one"},
		DisconfirmingEvidence: nil,
		UpdateTriggers:        []string{"[a] watch for: x..."},
		Evidence:              []model.Evidence{{Source: "s", Snippet: "snip", RelevanceScore: 0.7}},
		Sources:               []string{"s"},
		Domain:                domain,
		EventCategory:         &cat,
		DoctrineAgentsUsed:    []string{"a", "b"},
		BaseRate:              &rate,
		CreatedAt:             created,
		Status:                model.ForecastOpen,
	}
}

func TestSaveAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fc := sampleForecast("fc_1", model.DomainMilitary, model.NewDate(2026, 6, 30), created)

	require.NoError(t, store.Save(ctx, fc))

	got, err := store.Get(ctx, "fc_1")
	require.NoError(t, err)
	assert.Equal(t, fc.Event, got.Event)
	assert.Equal(t, "2026-06-30", got.Horizon.String())
	assert.Equal(t, fc.Evidence, got.Evidence)
	assert.Equal(t, []string{}, got.DisconfirmingEvidence)
	assert.Equal(t, []string{"a", "b"}, got.DoctrineAgentsUsed)
	require.NotNil(t, got.EventCategory)
	assert.Equal(t, model.EventThreaten, *got.EventCategory)
	require.NotNil(t, got.BaseRate)
	assert.Equal(t, 0.2, *got.BaseRate)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Nil(t, got.UpdatedAt)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	horizon := model.NewDate(2026, 12, 31)

	require.NoError(t, store.Save(ctx, sampleForecast("fc_a", model.DomainMilitary, horizon, base)))
	require.NoError(t, store.Save(ctx, sampleForecast("fc_b", model.DomainCyber, horizon, base.Add(time.Hour))))
	require.NoError(t, store.Save(ctx, sampleForecast("fc_c", model.DomainCyber, horizon, base.Add(2*time.Hour))))

	all, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "fc_c", all[0].ID)

	cyber, err := store.List(ctx, ListFilter{Domain: model.DomainCyber, Limit: 1})
	require.NoError(t, err)
	require.Len(t, cyber, 1)
	assert.Equal(t, "fc_c", cyber[0].ID)

	require.NoError(t, store.RecordOutcome(ctx, model.Outcome{ForecastID: "fc_b", Resolved: true, ResolutionDate: model.NewDate(2026, 3, 1)}))
	resolved, err := store.List(ctx, ListFilter{Status: model.ForecastResolvedTrue})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "fc_b", resolved[0].ID)
	assert.NotNil(t, resolved[0].UpdatedAt)
}

func TestRecordOutcome(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleForecast("fc_1", model.DomainEconomic, model.NewDate(2026, 6, 30), time.Now())))

	err := store.RecordOutcome(ctx, model.Outcome{ForecastID: "nope", Resolved: true, ResolutionDate: model.NewDate(2026, 1, 1)})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.RecordOutcome(ctx, model.Outcome{ForecastID: "fc_1", Resolved: true, ResolutionDate: model.NewDate(2026, 5, 1), Notes: "first"}))
	require.NoError(t, store.RecordOutcome(ctx, model.Outcome{ForecastID: "fc_1", Resolved: false, ResolutionDate: model.NewDate(2026, 5, 2), Notes: "corrected"}))

	outcomes, err := store.Outcomes(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Resolved)
	assert.Equal(t, "corrected", outcomes[0].Notes)
	assert.Equal(t, "2026-05-02", outcomes[0].ResolutionDate.String())

	fc, err := store.Get(ctx, "fc_1")
	require.NoError(t, err)
	assert.Equal(t, model.ForecastResolvedFalse, fc.Status)

	forecasts, outs, err := store.Resolved(ctx)
	require.NoError(t, err)
	require.Len(t, forecasts, 1)
	assert.Equal(t, outs[0].ForecastID, forecasts[0].ID)
}

func TestExpireOverdue(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, store.Save(ctx, sampleForecast("past", model.DomainCyber, model.NewDate(2025, 1, 1), now)))
	require.NoError(t, store.Save(ctx, sampleForecast("future", model.DomainCyber, model.NewDate(2030, 1, 1), now)))
	require.NoError(t, store.Save(ctx, sampleForecast("resolved", model.DomainCyber, model.NewDate(2025, 1, 1), now)))
	require.NoError(t, store.RecordOutcome(ctx, model.Outcome{ForecastID: "resolved", Resolved: true, ResolutionDate: model.NewDate(2024, 12, 1)}))

	n, err := store.ExpireOverdue(ctx, model.NewDate(2026, 10, 17))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	past, err := store.Get(ctx, "past")
	require.NoError(t, err)
	assert.Equal(t, model.ForecastExpired, past.Status)

	future, err := store.Get(ctx, "future")
	require.NoError(t, err)
	assert.Equal(t, model.ForecastOpen, future.Status)
}
