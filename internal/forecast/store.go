package forecast

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/foresight/internal/db"
	"github.com/ziadkadry99/foresight/internal/model"
)

// Store persists forecasts and their outcomes.
type Store struct {
	db *db.DB
}

// NewStore creates a new forecast store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// ListFilter narrows Store.List. Zero values match everything.
type ListFilter struct {
	Status model.ForecastStatus
	Domain model.Domain
	Limit  int
}

const forecastColumns = `id, event, horizon, probability, ci_low, ci_high, key_drivers, disconfirming_evidence,
	update_triggers, evidence, sources, domain, event_category, doctrine_agents_used, base_rate, status, created_at, updated_at`

// Save inserts a new forecast.
func (s *Store) Save(ctx context.Context, fc *model.Forecast) error {
	lists := map[string]any{
		"key_drivers":            fc.KeyDrivers,
		"disconfirming_evidence": fc.DisconfirmingEvidence,
		"update_triggers":        fc.UpdateTriggers,
		"evidence":               fc.Evidence,
		"sources":                fc.Sources,
		"doctrine_agents_used":   fc.DoctrineAgentsUsed,
	}
	encoded := make(map[string]string, len(lists))
	for k, v := range lists {
		b, err := json.Marshal(nilToEmpty(v))
		if err != nil {
			return fmt.Errorf("encoding %s: %w", k, err)
		}
		encoded[k] = string(b)
	}

	var category sql.NullString
	if fc.EventCategory != nil {
		category = sql.NullString{String: string(*fc.EventCategory), Valid: true}
	}
	var baseRate sql.NullFloat64
	if fc.BaseRate != nil {
		baseRate = sql.NullFloat64{Float64: *fc.BaseRate, Valid: true}
	}
	var updatedAt sql.NullTime
	if fc.UpdatedAt != nil {
		updatedAt = sql.NullTime{Time: *fc.UpdatedAt, Valid: true}
	}
	status := fc.Status
	if status == "" {
		status = model.ForecastOpen
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO forecasts (`+forecastColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fc.ID, fc.Event, fc.Horizon.String(), fc.Probability, fc.ConfidenceInterval[0], fc.ConfidenceInterval[1],
		encoded["key_drivers"], encoded["disconfirming_evidence"], encoded["update_triggers"],
		encoded["evidence"], encoded["sources"], string(fc.Domain), category, encoded["doctrine_agents_used"],
		baseRate, string(status), fc.CreatedAt.UTC(), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting forecast: %w", err)
	}
	return nil
}

// nilToEmpty keeps nil slices encoding as [] rather than null.
func nilToEmpty(v any) any {
	switch s := v.(type) {
	case []string:
		if s == nil {
			return []string{}
		}
	case []model.Evidence:
		if s == nil {
			return []model.Evidence{}
		}
	}
	return v
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForecast(row rowScanner) (*model.Forecast, error) {
	var fc model.Forecast
	var horizon, domain, status string
	var drivers, disconfirming, triggers, evidence, sources, agents string
	var category sql.NullString
	var baseRate sql.NullFloat64
	var updatedAt sql.NullTime
	if err := row.Scan(&fc.ID, &fc.Event, &horizon, &fc.Probability, &fc.ConfidenceInterval[0], &fc.ConfidenceInterval[1],
		&drivers, &disconfirming, &triggers, &evidence, &sources, &domain, &category, &agents,
		&baseRate, &status, &fc.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}

	h, err := model.ParseDate(horizon)
	if err != nil {
		return nil, fmt.Errorf("decoding horizon: %w", err)
	}
	fc.Horizon = h
	fc.Domain = model.Domain(domain)
	fc.Status = model.ForecastStatus(status)

	for _, col := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"key_drivers", drivers, &fc.KeyDrivers},
		{"disconfirming_evidence", disconfirming, &fc.DisconfirmingEvidence},
		{"update_triggers", triggers, &fc.UpdateTriggers},
		{"evidence", evidence, &fc.Evidence},
		{"sources", sources, &fc.Sources},
		{"doctrine_agents_used", agents, &fc.DoctrineAgentsUsed},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", col.name, err)
		}
	}

	if category.Valid {
		c := model.EventCategory(category.String)
		fc.EventCategory = &c
	}
	if baseRate.Valid {
		fc.BaseRate = &baseRate.Float64
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		fc.UpdatedAt = &t
	}
	return &fc, nil
}

// Get retrieves a forecast by id, returning ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*model.Forecast, error) {
	fc, err := scanForecast(s.db.QueryRowContext(ctx,
		`SELECT `+forecastColumns+` FROM forecasts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting forecast: %w", err)
	}
	return fc, nil
}

// List returns forecasts matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]model.Forecast, error) {
	query := `SELECT ` + forecastColumns + ` FROM forecasts WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Domain != "" {
		query += " AND domain = ?"
		args = append(args, string(filter.Domain))
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing forecasts: %w", err)
	}
	defer rows.Close()

	forecasts := []model.Forecast{}
	for rows.Next() {
		fc, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning forecast: %w", err)
		}
		forecasts = append(forecasts, *fc)
	}
	return forecasts, rows.Err()
}

// RecordOutcome stores how a forecast resolved and moves it to
// resolved_true or resolved_false in the same transaction. Recording again
// replaces the earlier outcome.
func (s *Store) RecordOutcome(ctx context.Context, o model.Outcome) error {
	status := model.ForecastResolvedFalse
	if o.Resolved {
		status = model.ForecastResolvedTrue
	}
	now := time.Now().UTC()

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE forecasts SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), now, o.ForecastID)
		if err != nil {
			return fmt.Errorf("updating forecast status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, o.ForecastID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO outcomes (forecast_id, resolved, resolution_date, notes, recorded_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(forecast_id) DO UPDATE SET
			   resolved = excluded.resolved, resolution_date = excluded.resolution_date,
			   notes = excluded.notes, recorded_at = excluded.recorded_at`,
			o.ForecastID, o.Resolved, o.ResolutionDate.String(), o.Notes, now)
		if err != nil {
			return fmt.Errorf("inserting outcome: %w", err)
		}
		return nil
	})
}

// Outcomes returns every recorded outcome ordered by forecast id.
func (s *Store) Outcomes(ctx context.Context) ([]model.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT forecast_id, resolved, resolution_date, notes FROM outcomes ORDER BY forecast_id`)
	if err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []model.Outcome{}
	for rows.Next() {
		var o model.Outcome
		var date string
		if err := rows.Scan(&o.ForecastID, &o.Resolved, &date, &o.Notes); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		if o.ResolutionDate, err = model.ParseDate(date); err != nil {
			return nil, fmt.Errorf("decoding resolution date: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// Resolved returns the forecasts that have an outcome together with those
// outcomes, index-aligned, ready for scoring.
func (s *Store) Resolved(ctx context.Context) ([]model.Forecast, []model.Outcome, error) {
	outcomes, err := s.Outcomes(ctx)
	if err != nil {
		return nil, nil, err
	}
	forecasts := make([]model.Forecast, 0, len(outcomes))
	for _, o := range outcomes {
		fc, err := s.Get(ctx, o.ForecastID)
		if err != nil {
			return nil, nil, err
		}
		forecasts = append(forecasts, *fc)
	}
	return forecasts, outcomes, nil
}

// ExpireOverdue marks open forecasts whose horizon is before asOf as expired
// and returns how many changed.
func (s *Store) ExpireOverdue(ctx context.Context, asOf model.Date) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE forecasts SET status = ?, updated_at = ? WHERE status = ? AND horizon < ?`,
		string(model.ForecastExpired), time.Now().UTC(), string(model.ForecastOpen), asOf.String())
	if err != nil {
		return 0, fmt.Errorf("expiring forecasts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired forecasts: %w", err)
	}
	return int(n), nil
}
