package database

import (
	"database/sql"
	"fmt"
)

// ProfileRepositoryImpl handles database operations for content profiles
type ProfileRepositoryImpl struct {
	db *DB
}

var _ ProfileRepository = (*ProfileRepositoryImpl)(nil)

func NewProfileRepository(db *DB) *ProfileRepositoryImpl {
	return &ProfileRepositoryImpl{db: db}
}

func (r *ProfileRepositoryImpl) GetProfileLabel(id string) (string, error) {
	var label string
	err := r.db.QueryRow(`SELECT label FROM content_profiles WHERE id = $1`, id).Scan(&label)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get content profile: %w", err)
	}

	return label, nil
}

// GetProfileID returns the id of the profile with the given label, or an
// empty string when no such profile exists
func (r *ProfileRepositoryImpl) GetProfileID(label string) (string, error) {
	var id string
	err := r.db.QueryRow(`SELECT id FROM content_profiles WHERE label = $1`, label).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get content profile: %w", err)
	}

	return id, nil
}

// EnsureProfile creates the content profile if missing and returns its id
func (r *ProfileRepositoryImpl) EnsureProfile(label string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO content_profiles (label)
		VALUES ($1)
		ON CONFLICT (label) DO UPDATE SET label = EXCLUDED.label
		RETURNING id
	`, label).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to ensure content profile: %w", err)
	}

	return id, nil
}
