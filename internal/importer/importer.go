// Package importer loads parsed transactions into the store, skipping
// records whose natural key (date, description, amount, source) is already
// present. Uniqueness lives here, not in the database schema, so the same
// export can be imported any number of times without piling up rows.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KAFKA2306/expense2/internal/domain"
	"github.com/KAFKA2306/expense2/internal/logger"
	"github.com/KAFKA2306/expense2/internal/store"
)

// Result summarizes one import run
type Result struct {
	Parsed   int
	Inserted int
	Skipped  int
	RunID    string
}

// Importer writes batches of transactions to the store
type Importer struct {
	store *store.Store
}

// New creates an importer backed by the given store
func New(st *store.Store) *Importer {
	return &Importer{store: st}
}

// Run imports a batch inside a single transaction. Every record is checked
// against the store before insertion; checks run through the transaction so
// duplicates within the batch are also skipped. The commit happens exactly
// once at the end, so a failed run leaves the database untouched.
func (im *Importer) Run(ctx context.Context, inputPath string, txs []domain.Transaction) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	log := logger.FromContext(ctx)
	started := time.Now().UTC()

	tx, err := im.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	// Rollback after a successful commit is a no-op
	defer func() { _ = tx.Rollback() }()

	result := &Result{Parsed: len(txs)}
	for _, txn := range txs {
		exists, err := im.store.Exists(ctx, tx, txn)
		if err != nil {
			return nil, fmt.Errorf("checking for duplicate: %w", err)
		}
		if exists {
			result.Skipped++
			log.Debug().Str("key", txn.NaturalKey()).Msg("skipping duplicate transaction")
			continue
		}

		if err := im.store.Insert(ctx, tx, txn); err != nil {
			return nil, fmt.Errorf("inserting transaction: %w", err)
		}
		result.Inserted++
	}

	run := store.ImportRun{
		ID:         uuid.NewString(),
		InputPath:  inputPath,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Parsed:     result.Parsed,
		Inserted:   result.Inserted,
		Skipped:    result.Skipped,
	}
	if err := im.store.RecordRun(ctx, tx, run); err != nil {
		return nil, fmt.Errorf("recording import run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	result.RunID = run.ID
	log.Info().
		Str("run_id", run.ID).
		Str("input", inputPath).
		Int("parsed", result.Parsed).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Msg("import complete")
	return result, nil
}
