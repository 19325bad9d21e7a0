package scenario

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

// ErrNotFound is returned for unknown scenario set ids.
var ErrNotFound = errors.New("scenario set not found")

// Set is one revision of a persisted scenario set. Revision 1 is the
// generated set; every monitoring pass appends the next revision.
type Set struct {
	ID        string           `json:"id"`
	Topic     string           `json:"topic"`
	Domain    *model.Domain    `json:"domain,omitempty"`
	Revision  int              `json:"revision"`
	Scenarios []model.Scenario `json:"scenarios"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store persists scenario sets as an append-only revision history.
type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create stores scenarios as revision 1 of a new set.
func (s *Store) Create(ctx context.Context, topic string, domain *model.Domain, scenarios []model.Scenario) (*Set, error) {
	set := &Set{
		ID:        model.NewSetID(),
		Topic:     topic,
		Domain:    domain,
		Revision:  1,
		Scenarios: scenarios,
		CreatedAt: time.Now().UTC(),
	}
	var dom sql.NullString
	if domain != nil {
		dom = sql.NullString{String: string(*domain), Valid: true}
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scenario_sets (id, topic, domain, created_at) VALUES (?, ?, ?, ?)`,
			set.ID, topic, dom, set.CreatedAt); err != nil {
			return fmt.Errorf("inserting scenario set: %w", err)
		}
		return insertSnapshot(ctx, tx, set)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, set *Set) error {
	data, err := json.Marshal(set.Scenarios)
	if err != nil {
		return fmt.Errorf("encoding scenarios: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scenario_snapshots (set_id, revision, scenarios, created_at) VALUES (?, ?, ?, ?)`,
		set.ID, set.Revision, string(data), set.CreatedAt); err != nil {
		return fmt.Errorf("inserting scenario snapshot: %w", err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const snapshotQuery = `SELECT s.id, s.topic, s.domain, n.revision, n.scenarios, n.created_at
	FROM scenario_sets s JOIN scenario_snapshots n ON n.set_id = s.id`

func scanSet(row interface{ Scan(...any) error }) (*Set, error) {
	var set Set
	var dom sql.NullString
	var data string
	if err := row.Scan(&set.ID, &set.Topic, &dom, &set.Revision, &data, &set.CreatedAt); err != nil {
		return nil, err
	}
	if dom.Valid {
		d := model.Domain(dom.String)
		set.Domain = &d
	}
	if err := json.Unmarshal([]byte(data), &set.Scenarios); err != nil {
		return nil, fmt.Errorf("decoding scenarios: %w", err)
	}
	return &set, nil
}

func latest(ctx context.Context, q querier, setID string) (*Set, error) {
	set, err := scanSet(q.QueryRowContext(ctx,
		snapshotQuery+` WHERE s.id = ? ORDER BY n.revision DESC LIMIT 1`, setID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, setID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading scenario set: %w", err)
	}
	return set, nil
}

// Latest returns the newest revision of a set.
func (s *Store) Latest(ctx context.Context, setID string) (*Set, error) {
	return latest(ctx, s.db, setID)
}

// History returns every revision of a set, oldest first.
func (s *Store) History(ctx context.Context, setID string) ([]Set, error) {
	rows, err := s.db.QueryContext(ctx, snapshotQuery+` WHERE s.id = ? ORDER BY n.revision`, setID)
	if err != nil {
		return nil, fmt.Errorf("listing scenario history: %w", err)
	}
	defer rows.Close()

	var sets []Set
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scenario snapshot: %w", err)
		}
		sets = append(sets, *set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, setID)
	}
	return sets, nil
}

// List returns the newest revision of every set, most recently created first.
func (s *Store) List(ctx context.Context) ([]Set, error) {
	rows, err := s.db.QueryContext(ctx, snapshotQuery+`
		WHERE n.revision = (SELECT MAX(revision) FROM scenario_snapshots WHERE set_id = s.id)
		ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing scenario sets: %w", err)
	}
	defer rows.Close()

	sets := []Set{}
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scenario set: %w", err)
		}
		sets = append(sets, *set)
	}
	return sets, rows.Err()
}

// Monitor applies one monitoring pass to the newest revision of a set and
// appends the result as the next revision. Load, update and append happen in
// one transaction so the set is always renormalized as a whole.
func (s *Store) Monitor(ctx context.Context, setID string, evidence []model.Evidence, m Monitor) (*Set, error) {
	var next *Set
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		cur, err := latest(ctx, tx, setID)
		if err != nil {
			return err
		}
		next = &Set{
			ID:        cur.ID,
			Topic:     cur.Topic,
			Domain:    cur.Domain,
			Revision:  cur.Revision + 1,
			Scenarios: m.UpdateWeights(cur.Scenarios, evidence),
			CreatedAt: time.Now().UTC(),
		}
		return insertSnapshot(ctx, tx, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}
