package main

import (
	"log"
	"path/filepath"

	"emberhold/internal/persistence/indexdb"
	"emberhold/internal/sim/colony"
)

func openRuntimeIndex(colonyDir string, disableDB bool, logger *log.Logger) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}
	dbPath := filepath.Join(colonyDir, "index", "colony.sqlite")
	idx, err := indexdb.Open(dbPath)
	if err != nil {
		return nil, err
	}
	logger.Printf("index backend: sqlite at %s", dbPath)
	return idx, nil
}

// A nil *SQLiteIndex stored in a logger interface would still be non-nil as
// an interface value, so wrap the conversion.
func idxTick(idx *indexdb.SQLiteIndex) colony.TickLogger {
	if idx == nil {
		return nil
	}
	return idx
}

func idxAudit(idx *indexdb.SQLiteIndex) colony.AuditLogger {
	if idx == nil {
		return nil
	}
	return idx
}
