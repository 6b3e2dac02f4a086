// package repositories provides persistence layer implementations for the sync history models.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations and sequence generation.
package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence atomically allocates the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for runs (e.g. run #42). Each table has a
// companion {table}_sequence table whose autoincrement key is the counter.
func NextSequence(db *sql.DB, table string) (int, error) {
	result, err := db.Exec(fmt.Sprintf("INSERT INTO %s_sequence DEFAULT VALUES", table))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	sequence, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}
	return int(sequence), nil
}

// checkAffected fails when an UPDATE or DELETE touched no row.
func checkAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
