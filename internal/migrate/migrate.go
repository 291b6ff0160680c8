// Package migrate applies the fixed list of additive schema changes.
//
// There is no version ledger: every change checks the schema metadata for its
// own presence before applying, which keeps repeated runs harmless. Only the
// duplicate-object condition (a lost race with a concurrent run) is tolerated
// at apply time; any other failure aborts the run with the driver error
// surfaced to the caller.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ideaboard/schema-migrator/internal/dialect"
)

// Outcome is the terminal state of one change unit.
type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeAlreadyPresent Outcome = "already present"
)

// Result records how one change unit finished.
type Result struct {
	Change  string
	Outcome Outcome
}

// Migrator applies schema changes to one database.
type Migrator struct {
	db      *sql.DB
	dialect dialect.Dialect
	log     *logrus.Entry
}

// New creates a Migrator. Every log record of a run carries a uuid run id so
// interleaved runs can be told apart.
func New(db *sql.DB, d dialect.Dialect) *Migrator {
	return &Migrator{
		db:      db,
		dialect: d,
		log: logrus.WithFields(logrus.Fields{
			"run_id":  uuid.New().String(),
			"dialect": d.Name(),
		}),
	}
}

// Run applies all changes in order and returns the per-unit results. On a
// fatal error the results of the units completed before the failure are
// returned alongside the error; those changes remain applied.
func (m *Migrator) Run(ctx context.Context) ([]Result, error) {
	return m.RunChanges(ctx, Changes())
}

// RunChanges applies the given changes in order.
func (m *Migrator) RunChanges(ctx context.Context, changes []Change) ([]Result, error) {
	results := make([]Result, 0, len(changes))

	for _, c := range changes {
		outcome, err := m.applyOne(ctx, c)
		if err != nil {
			return results, err
		}
		results = append(results, Result{Change: c.Name(), Outcome: outcome})
	}

	m.log.WithField("changes", len(results)).Info("Migration run complete")
	return results, nil
}

func (m *Migrator) applyOne(ctx context.Context, c Change) (Outcome, error) {
	log := m.log.WithField("change", c.Name())

	present, err := c.Applied(ctx, m.db, m.dialect)
	if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", c.Name(), err)
	}
	if present {
		log.Info("Already exists, skipping")
		return OutcomeAlreadyPresent, nil
	}

	if err := c.Apply(ctx, m.db, m.dialect); err != nil {
		if m.dialect.IsDuplicateObject(err) {
			// A concurrent run won the race between our existence check and
			// the apply. The duplicate outcome is tolerated, not prevented.
			log.Info("Already exists, skipping")
			return OutcomeAlreadyPresent, nil
		}
		return "", err
	}

	log.Info("Applied")
	return OutcomeApplied, nil
}
