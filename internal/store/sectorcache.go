package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/pawanpaudel93/nepse-analysis/internal/external/nepse"
	"github.com/pawanpaudel93/nepse-analysis/pkg/logger"
)

// SectorStore persists the sector-id to index-name mapping in a local
// sqlite file so later runs skip the network call. The snapshot never
// expires on its own; staleness is an accepted tradeoff and refreshing is a
// deliberate act (drop the file or run the refresh job).
type SectorStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// Open opens (creating if needed) the snapshot database under dataDir.
func Open(dataDir string, log *logger.Logger) (*SectorStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := filepath.Join(dataDir, "sectors.db")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sector snapshot: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sector snapshot: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		log.WithError(err).Warn("Failed to set WAL mode on sector snapshot")
	}

	schema := `
		CREATE TABLE IF NOT EXISTS sectors (
			id   INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sectors table: %w", err)
	}

	return &SectorStore{db: db, logger: log}, nil
}

// Load returns the persisted sector mapping; an empty slice means no
// snapshot exists yet.
func (s *SectorStore) Load(ctx context.Context) ([]nepse.Sector, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM sectors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("load sector snapshot: %w", err)
	}
	defer rows.Close()

	var sectors []nepse.Sector
	for rows.Next() {
		var sector nepse.Sector
		if err := rows.Scan(&sector.ID, &sector.Name); err != nil {
			return nil, fmt.Errorf("scan sector row: %w", err)
		}
		sectors = append(sectors, sector)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sector rows: %w", err)
	}

	return sectors, nil
}

// Save replaces the snapshot with the given mapping.
func (s *SectorStore) Save(ctx context.Context, sectors []nepse.Sector) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sectors"); err != nil {
		return fmt.Errorf("clear sector snapshot: %w", err)
	}

	for _, sector := range sectors {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sectors (id, name) VALUES (?, ?)", sector.ID, sector.Name); err != nil {
			return fmt.Errorf("insert sector %d: %w", sector.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot save: %w", err)
	}

	s.logger.WithField("sectors", len(sectors)).Debug("Sector snapshot saved")
	return nil
}

// Close closes the underlying database.
func (s *SectorStore) Close() error {
	return s.db.Close()
}
