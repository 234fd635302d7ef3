// Package persistence provides SQLite-based storage for scenarios,
// their baseline demographic inputs, and completed projection results.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/projection"
	"github.com/popula/engine/internal/scenario"
)

// ErrNotFound is returned when a scenario, baseline, or result is absent.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection for engine state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		base_year INTEGER NOT NULL,
		end_year INTEGER NOT NULL,
		shocks_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS baselines (
		scenario_id TEXT PRIMARY KEY REFERENCES scenarios(id),
		population_json TEXT NOT NULL,
		mortality_json TEXT NOT NULL,
		fertility_json TEXT NOT NULL,
		migration_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		scenario_id TEXT PRIMARY KEY REFERENCES scenarios(id),
		state TEXT NOT NULL,
		failure TEXT NOT NULL DEFAULT '',
		base_year INTEGER NOT NULL,
		horizon INTEGER NOT NULL,
		computed_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		years_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS engine_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// scenarioRow is the flat scan target for the scenarios table.
type scenarioRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	BaseYear    int    `db:"base_year"`
	EndYear     int    `db:"end_year"`
	ShocksJSON  string `db:"shocks_json"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r scenarioRow) toScenario() (*scenario.Scenario, error) {
	var shocks []projection.Shock
	if err := json.Unmarshal([]byte(r.ShocksJSON), &shocks); err != nil {
		return nil, fmt.Errorf("decode shocks for scenario %s: %w", r.ID, err)
	}
	createdAt, _ := time.Parse(time.RFC3339, r.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, r.UpdatedAt)
	return &scenario.Scenario{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		BaseYear:    r.BaseYear,
		EndYear:     r.EndYear,
		Shocks:      shocks,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// SaveScenario inserts or replaces a scenario.
func (db *DB) SaveScenario(s *scenario.Scenario) error {
	shocks := s.Shocks
	if shocks == nil {
		shocks = []projection.Shock{}
	}
	shocksJSON, err := json.Marshal(shocks)
	if err != nil {
		return fmt.Errorf("encode shocks: %w", err)
	}

	_, err = db.conn.Exec(`INSERT OR REPLACE INTO scenarios
		(id, name, description, base_year, end_year, shocks_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Description, s.BaseYear, s.EndYear,
		string(shocksJSON),
		s.CreatedAt.UTC().Format(time.RFC3339),
		s.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save scenario %s: %w", s.ID, err)
	}
	return nil
}

// GetScenario loads one scenario by ID.
func (db *DB) GetScenario(id string) (*scenario.Scenario, error) {
	var row scenarioRow
	err := db.conn.Get(&row, "SELECT * FROM scenarios WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scenario %s: %w", id, err)
	}
	return row.toScenario()
}

// ListScenarios returns every stored scenario, newest first.
func (db *DB) ListScenarios() ([]*scenario.Scenario, error) {
	var rows []scenarioRow
	if err := db.conn.Select(&rows, "SELECT * FROM scenarios ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	out := make([]*scenario.Scenario, 0, len(rows))
	for _, r := range rows {
		s, err := r.toScenario()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DeleteScenario removes a scenario along with its baseline and result.
func (db *DB) DeleteScenario(id string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM results WHERE scenario_id = ?",
		"DELETE FROM baselines WHERE scenario_id = ?",
		"DELETE FROM scenarios WHERE id = ?",
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return fmt.Errorf("delete scenario %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Baseline holds the demographic inputs a stored scenario runs against.
type Baseline struct {
	ScenarioID string                      `json:"scenario_id"`
	Population *demography.CohortMatrix    `json:"population"`
	Mortality  *demography.MortalityTable  `json:"mortality"`
	Fertility  *demography.FertilityTable  `json:"fertility"`
	Migration  []demography.MigrationEntry `json:"migration"`
}

// SaveBaseline stores the inputs for a scenario, replacing any prior set.
func (db *DB) SaveBaseline(b *Baseline) error {
	popJSON, err := json.Marshal(b.Population)
	if err != nil {
		return fmt.Errorf("encode population: %w", err)
	}
	mortJSON, err := json.Marshal(b.Mortality)
	if err != nil {
		return fmt.Errorf("encode mortality: %w", err)
	}
	fertJSON, err := json.Marshal(b.Fertility)
	if err != nil {
		return fmt.Errorf("encode fertility: %w", err)
	}
	migration := b.Migration
	if migration == nil {
		migration = []demography.MigrationEntry{}
	}
	migJSON, err := json.Marshal(migration)
	if err != nil {
		return fmt.Errorf("encode migration: %w", err)
	}

	_, err = db.conn.Exec(`INSERT OR REPLACE INTO baselines
		(scenario_id, population_json, mortality_json, fertility_json, migration_json)
		VALUES (?, ?, ?, ?, ?)`,
		b.ScenarioID, string(popJSON), string(mortJSON), string(fertJSON), string(migJSON),
	)
	if err != nil {
		return fmt.Errorf("save baseline for %s: %w", b.ScenarioID, err)
	}
	return nil
}

// GetBaseline loads the stored inputs for a scenario.
func (db *DB) GetBaseline(scenarioID string) (*Baseline, error) {
	var row struct {
		ScenarioID     string `db:"scenario_id"`
		PopulationJSON string `db:"population_json"`
		MortalityJSON  string `db:"mortality_json"`
		FertilityJSON  string `db:"fertility_json"`
		MigrationJSON  string `db:"migration_json"`
	}
	err := db.conn.Get(&row, "SELECT * FROM baselines WHERE scenario_id = ?", scenarioID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get baseline for %s: %w", scenarioID, err)
	}

	b := &Baseline{ScenarioID: row.ScenarioID}
	if err := json.Unmarshal([]byte(row.PopulationJSON), &b.Population); err != nil {
		return nil, fmt.Errorf("decode population: %w", err)
	}
	if err := json.Unmarshal([]byte(row.MortalityJSON), &b.Mortality); err != nil {
		return nil, fmt.Errorf("decode mortality: %w", err)
	}
	if err := json.Unmarshal([]byte(row.FertilityJSON), &b.Fertility); err != nil {
		return nil, fmt.Errorf("decode fertility: %w", err)
	}
	if err := json.Unmarshal([]byte(row.MigrationJSON), &b.Migration); err != nil {
		return nil, fmt.Errorf("decode migration: %w", err)
	}
	return b, nil
}

// SaveResult stores a completed (or failed-with-partial-years) run.
func (db *DB) SaveResult(scenarioID string, res *projection.Result) error {
	yearsJSON, err := json.Marshal(res.Years)
	if err != nil {
		return fmt.Errorf("encode result years: %w", err)
	}

	_, err = db.conn.Exec(`INSERT OR REPLACE INTO results
		(scenario_id, state, failure, base_year, horizon, computed_at, elapsed_ms, years_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		scenarioID, res.State.String(), res.Failure, res.BaseYear, res.Horizon,
		res.ComputedAt.UTC().Format(time.RFC3339),
		res.Elapsed.Milliseconds(),
		string(yearsJSON),
	)
	if err != nil {
		return fmt.Errorf("save result for %s: %w", scenarioID, err)
	}

	slog.Info("projection result saved",
		"scenario", scenarioID,
		"state", res.State.String(),
		"years", len(res.Years),
	)
	return nil
}

// GetResult loads the stored run for a scenario.
func (db *DB) GetResult(scenarioID string) (*projection.Result, error) {
	var row struct {
		ScenarioID string `db:"scenario_id"`
		State      string `db:"state"`
		Failure    string `db:"failure"`
		BaseYear   int    `db:"base_year"`
		Horizon    int    `db:"horizon"`
		ComputedAt string `db:"computed_at"`
		ElapsedMS  int64  `db:"elapsed_ms"`
		YearsJSON  string `db:"years_json"`
	}
	err := db.conn.Get(&row, "SELECT * FROM results WHERE scenario_id = ?", scenarioID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result for %s: %w", scenarioID, err)
	}

	res := &projection.Result{
		BaseYear: row.BaseYear,
		Horizon:  row.Horizon,
		Failure:  row.Failure,
		Elapsed:  time.Duration(row.ElapsedMS) * time.Millisecond,
	}
	switch row.State {
	case "completed":
		res.State = projection.StateCompleted
	case "failed":
		res.State = projection.StateFailed
	case "stepping":
		res.State = projection.StateStepping
	}
	res.ComputedAt, _ = time.Parse(time.RFC3339, row.ComputedAt)
	if err := json.Unmarshal([]byte(row.YearsJSON), &res.Years); err != nil {
		return nil, fmt.Errorf("decode result years: %w", err)
	}
	return res, nil
}

// SaveMeta stores a key-value pair in engine metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO engine_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM engine_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}
