package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
)

// VocabularyRepositoryImpl handles database operations for controlled vocabularies
type VocabularyRepositoryImpl struct {
	db *DB
}

var _ VocabularyRepository = (*VocabularyRepositoryImpl)(nil)

func NewVocabularyRepository(db *DB) *VocabularyRepositoryImpl {
	return &VocabularyRepositoryImpl{db: db}
}

// GetVocabularyItems returns the qcode to name mapping of a vocabulary
func (r *VocabularyRepositoryImpl) GetVocabularyItems(vocabularyID string) (map[string]string, error) {
	var data []byte
	err := r.db.QueryRow(`SELECT items FROM vocabularies WHERE id = $1`, vocabularyID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("vocabulary '%s' not found", vocabularyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vocabulary: %w", err)
	}

	items := map[string]string{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vocabulary items: %w", err)
	}

	return items, nil
}

type vocabularyFile struct {
	ID    string `json:"_id"`
	Items []struct {
		Name  string `json:"name"`
		QCode string `json:"qcode"`
	} `json:"items"`
}

// SeedVocabularies loads vocabulary definitions from a JSON file into the
// database, replacing earlier versions
func (r *VocabularyRepositoryImpl) SeedVocabularies(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read vocabularies file: %w", err)
	}

	var vocabularies []vocabularyFile
	if err := json.Unmarshal(data, &vocabularies); err != nil {
		return fmt.Errorf("failed to parse vocabularies file: %w", err)
	}

	for _, vocabulary := range vocabularies {
		// keyed by qcode, matching how the parsers look genres up
		items := map[string]string{}
		for _, item := range vocabulary.Items {
			items[item.QCode] = item.Name
		}

		encoded, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to marshal vocabulary items: %w", err)
		}

		_, err = r.db.Exec(`
			INSERT INTO vocabularies (id, items)
			VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET
				items = EXCLUDED.items,
				updated_at = NOW()
		`, vocabulary.ID, encoded)
		if err != nil {
			return fmt.Errorf("failed to seed vocabulary %s: %w", vocabulary.ID, err)
		}
	}

	return nil
}
