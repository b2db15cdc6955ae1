package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded classification run.
type Run struct {
	ID            string    `db:"id" json:"id"`
	RulesName     string    `db:"rules_name" json:"rules_name"`
	Prayers       int       `db:"prayers" json:"prayers"`
	Uncategorized int       `db:"uncategorized" json:"uncategorized"`
	StartedAt     time.Time `db:"started_at" json:"started_at"`
}

// Assignment is the leaf a prayer landed in during a run.
type Assignment struct {
	RunID       string `db:"run_id" json:"run_id"`
	PrayerIndex int    `db:"prayer_index" json:"prayer_index"`
	Path        string `db:"path" json:"path"`
	Author      string `db:"author" json:"author"`
}

// Change is a prayer whose leaf differs between two runs. An empty From or
// To means the prayer was absent from that run.
type Change struct {
	PrayerIndex int    `json:"prayer_index"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// HistoryRepository handles database operations for run history.
type HistoryRepository struct {
	db    *sqlx.DB
	now   func() time.Time
	newID func() string
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now, newID: uuid.NewString}
}

// RecordRun stores a run and the leaf of every prayer in t.
func (r *HistoryRepository) RecordRun(ctx context.Context, rulesName string, t *tree.Tree, uncategorized int) (*Run, error) {
	run := &Run{
		ID:            r.newID(),
		RulesName:     rulesName,
		Prayers:       t.Total(),
		Uncategorized: uncategorized,
		StartedAt:     r.now().UTC(),
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO classification_runs (id, rules_name, prayers, uncategorized, started_at)
		VALUES (?, ?, ?, ?, ?)`),
		run.ID, run.RulesName, run.Prayers, run.Uncategorized, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	insert := tx.Rebind(`
		INSERT INTO prayer_assignments (run_id, prayer_index, path, author)
		VALUES (?, ?, ?, ?)`)
	var insertErr error
	t.Walk(func(path tree.Path, leaf tree.Node) {
		for _, p := range leaf.Prayers {
			if insertErr != nil {
				return
			}
			if _, err := tx.ExecContext(ctx, insert, run.ID, p.Index, path.String(), string(p.Author)); err != nil {
				insertErr = fmt.Errorf("failed to insert assignment of prayer %d: %w", p.Index, err)
			}
		}
	})
	if insertErr != nil {
		return nil, insertErr
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (r *HistoryRepository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	runs := []Run{}
	query := r.db.Rebind(`
		SELECT id, rules_name, prayers, uncategorized, started_at
		FROM classification_runs
		ORDER BY started_at DESC
		LIMIT ?`)
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by id.
func (r *HistoryRepository) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	query := r.db.Rebind(`
		SELECT id, rules_name, prayers, uncategorized, started_at
		FROM classification_runs
		WHERE id = ?`)
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// Assignments returns the assignments of a run ordered by prayer index.
func (r *HistoryRepository) Assignments(ctx context.Context, runID string) ([]Assignment, error) {
	assignments := []Assignment{}
	query := r.db.Rebind(`
		SELECT run_id, prayer_index, path, author
		FROM prayer_assignments
		WHERE run_id = ?
		ORDER BY prayer_index`)
	if err := r.db.SelectContext(ctx, &assignments, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// Diff returns the prayers whose leaf changed between two runs, ordered by
// prayer index.
func (r *HistoryRepository) Diff(ctx context.Context, fromRunID, toRunID string) ([]Change, error) {
	for _, id := range []string{fromRunID, toRunID} {
		if _, err := r.GetRun(ctx, id); err != nil {
			return nil, err
		}
	}
	from, err := r.Assignments(ctx, fromRunID)
	if err != nil {
		return nil, err
	}
	to, err := r.Assignments(ctx, toRunID)
	if err != nil {
		return nil, err
	}
	return DiffAssignments(from, to), nil
}

// DiffAssignments compares two assignment lists sorted by prayer index.
func DiffAssignments(from, to []Assignment) []Change {
	changes := []Change{}
	i, j := 0, 0
	for i < len(from) || j < len(to) {
		switch {
		case j >= len(to) || (i < len(from) && from[i].PrayerIndex < to[j].PrayerIndex):
			changes = append(changes, Change{PrayerIndex: from[i].PrayerIndex, From: from[i].Path})
			i++
		case i >= len(from) || to[j].PrayerIndex < from[i].PrayerIndex:
			changes = append(changes, Change{PrayerIndex: to[j].PrayerIndex, To: to[j].Path})
			j++
		default:
			if from[i].Path != to[j].Path {
				changes = append(changes, Change{PrayerIndex: from[i].PrayerIndex, From: from[i].Path, To: to[j].Path})
			}
			i++
			j++
		}
	}
	return changes
}
