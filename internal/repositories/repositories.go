package repositories

import (
	"database/sql"
	"fmt"
)

// sequenced lists the tables that own a `<table>_sequence` counter row.
var sequenced = map[string]bool{"tracks": true, "matches": true}

// NextSequence increments and returns the counter for table.
//
// Sequence numbers give stable, human-readable ordering (track #42, match #15) independent of
// the random row IDs. The history table shows them; nothing else relies on them being gapless.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("failed to increment sequence: no sequence for table %q", table)
	}

	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	return sequence, nil
}
