package sqlutil

import (
	"context"
	"database/sql"
)

// InTx executes fn inside a *sql.Tx.
// If fn returns an error the tx rolls back, else it commits.
func InTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil) // BEGIN
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback() // ROLLBACK
		return err
	}
	return tx.Commit() // COMMIT
}
