package database

import (
	"fmt"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

// CursorRepositoryImpl handles database operations for per-source ingest cursors
type CursorRepositoryImpl struct {
	db *DB
}

var _ CursorRepository = (*CursorRepositoryImpl)(nil)

func NewCursorRepository(db *DB) *CursorRepositoryImpl {
	return &CursorRepositoryImpl{db: db}
}

func (r *CursorRepositoryImpl) GetCursors(providerID string) (ingest.CursorState, error) {
	rows, err := r.db.Query(`
		SELECT source_id, COALESCE(source_title, ''), COALESCE(last_item_id, '')
		FROM source_cursors
		WHERE provider_id = $1
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cursors: %w", err)
	}
	defer rows.Close()

	state := ingest.CursorState{}
	for rows.Next() {
		var sourceID string
		var cursor ingest.SourceCursor
		if err := rows.Scan(&sourceID, &cursor.Title, &cursor.LastItemID); err != nil {
			return nil, fmt.Errorf("failed to scan cursor: %w", err)
		}
		state[sourceID] = cursor
	}

	return state, rows.Err()
}

// SaveCursors persists every cursor in the state, advancing existing rows
func (r *CursorRepositoryImpl) SaveCursors(providerID string, state ingest.CursorState) error {
	for sourceID, cursor := range state {
		_, err := r.db.Exec(`
			INSERT INTO source_cursors (provider_id, source_id, source_title, last_item_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (provider_id, source_id) DO UPDATE SET
				source_title = EXCLUDED.source_title,
				last_item_id = EXCLUDED.last_item_id,
				updated_at = NOW()
		`, providerID, sourceID, cursor.Title, cursor.LastItemID)
		if err != nil {
			return fmt.Errorf("failed to save cursor for source %s: %w", sourceID, err)
		}
	}

	return nil
}
