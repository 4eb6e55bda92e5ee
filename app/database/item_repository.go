package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

// ItemRepositoryImpl handles database operations for canonical items
type ItemRepositoryImpl struct {
	db *DB
}

var _ ItemRepository = (*ItemRepositoryImpl)(nil)

func NewItemRepository(db *DB) *ItemRepositoryImpl {
	return &ItemRepositoryImpl{db: db}
}

// StoreItem stores a canonical item, replacing an earlier version with the
// same guid
func (r *ItemRepositoryImpl) StoreItem(providerID string, item ingest.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO items (
			provider_id, guid, type, headline, source, family_id,
			firstcreated, versioncreated, data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (provider_id, guid) DO UPDATE SET
			type = EXCLUDED.type,
			headline = EXCLUDED.headline,
			source = EXCLUDED.source,
			family_id = EXCLUDED.family_id,
			firstcreated = EXCLUDED.firstcreated,
			versioncreated = EXCLUDED.versioncreated,
			data = EXCLUDED.data,
			updated_at = NOW()
	`, providerID, item.GUID, string(item.Type), item.Headline, item.Source,
		item.FamilyID, nullTime(item.Firstcreated), nullTime(item.Versioncreated), data)
	if err != nil {
		return fmt.Errorf("failed to store item: %w", err)
	}

	return nil
}

func (r *ItemRepositoryImpl) GetItems(providerID string, limit int) ([]ingest.Item, error) {
	rows, err := r.db.Query(`
		SELECT data FROM items
		WHERE provider_id = $1
		ORDER BY COALESCE(versioncreated, created_at) DESC
		LIMIT $2
	`, providerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []ingest.Item
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		var item ingest.Item
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *ItemRepositoryImpl) GetItem(guid string) (*ingest.Item, error) {
	var data []byte
	err := r.db.QueryRow(`SELECT data FROM items WHERE guid = $1 LIMIT 1`, guid).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	var item ingest.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return &item, nil
}

func (r *ItemRepositoryImpl) GetItemCount(providerID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM items WHERE provider_id = $1`, providerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}

	return count, nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
