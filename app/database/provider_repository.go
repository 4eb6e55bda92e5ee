package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

// ProviderRepositoryImpl handles database operations for ingest providers
type ProviderRepositoryImpl struct {
	db *DB
}

var _ ProviderRepository = (*ProviderRepositoryImpl)(nil)

func NewProviderRepository(db *DB) *ProviderRepositoryImpl {
	return &ProviderRepositoryImpl{db: db}
}

// UpsertProvider registers a configured provider and returns its database id
func (r *ProviderRepositoryImpl) UpsertProvider(config *ingest.Config) (string, error) {
	var dbID string
	err := r.db.QueryRow(`
		INSERT INTO providers (name, label, feeding_service, url, enabled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			label = EXCLUDED.label,
			feeding_service = EXCLUDED.feeding_service,
			url = EXCLUDED.url,
			enabled = EXCLUDED.enabled,
			updated_at = NOW()
		RETURNING id
	`, config.Name, config.Label, config.FeedingService, config.URL,
		config.Settings.Enabled).Scan(&dbID)
	if err != nil {
		return "", fmt.Errorf("failed to upsert provider: %w", err)
	}

	return dbID, nil
}

func (r *ProviderRepositoryImpl) GetProvider(name string) (*Provider, error) {
	provider := &Provider{}
	err := r.db.QueryRow(`
		SELECT id, name, COALESCE(label, ''), feeding_service, url, enabled,
		       last_updated, last_item_update, created_at, updated_at
		FROM providers
		WHERE name = $1
	`, name).Scan(&provider.ID, &provider.Name, &provider.Label,
		&provider.FeedingService, &provider.URL, &provider.Enabled,
		&provider.LastUpdated, &provider.LastItemUpdate,
		&provider.CreatedAt, &provider.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	return provider, nil
}

func (r *ProviderRepositoryImpl) GetProviders() ([]Provider, error) {
	rows, err := r.db.Query(`
		SELECT id, name, COALESCE(label, ''), feeding_service, url, enabled,
		       last_updated, last_item_update, created_at, updated_at
		FROM providers
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get providers: %w", err)
	}
	defer rows.Close()

	var providers []Provider
	for rows.Next() {
		var provider Provider
		err := rows.Scan(&provider.ID, &provider.Name, &provider.Label,
			&provider.FeedingService, &provider.URL, &provider.Enabled,
			&provider.LastUpdated, &provider.LastItemUpdate,
			&provider.CreatedAt, &provider.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, provider)
	}

	return providers, rows.Err()
}

func (r *ProviderRepositoryImpl) GetProviderCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM providers`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count providers: %w", err)
	}

	return count, nil
}

// UpdateProviderRun records an ingestion run. The item-update timestamp only
// moves when the run produced items.
func (r *ProviderRepositoryImpl) UpdateProviderRun(name string, ranAt time.Time, receivedItems bool) error {
	var err error
	if receivedItems {
		_, err = r.db.Exec(`
			UPDATE providers
			SET last_updated = $2, last_item_update = $2, updated_at = NOW()
			WHERE name = $1
		`, name, ranAt)
	} else {
		_, err = r.db.Exec(`
			UPDATE providers
			SET last_updated = $2, updated_at = NOW()
			WHERE name = $1
		`, name, ranAt)
	}
	if err != nil {
		return fmt.Errorf("failed to update provider run: %w", err)
	}

	return nil
}
