package database

import (
	"time"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

type ProviderRepository interface {
	GetProvider(name string) (*Provider, error)
	GetProviders() ([]Provider, error)
	GetProviderCount() (int, error)

	UpsertProvider(config *ingest.Config) (string, error)
	UpdateProviderRun(name string, ranAt time.Time, receivedItems bool) error
}

type CursorRepository interface {
	GetCursors(providerID string) (ingest.CursorState, error)
	SaveCursors(providerID string, state ingest.CursorState) error
}

type ItemRepository interface {
	GetItems(providerID string, limit int) ([]ingest.Item, error)
	GetItem(guid string) (*ingest.Item, error)
	GetItemCount(providerID string) (int, error)

	StoreItem(providerID string, item ingest.Item) error
}

type VocabularyRepository interface {
	GetVocabularyItems(vocabularyID string) (map[string]string, error)

	SeedVocabularies(path string) error
}

type ProfileRepository interface {
	GetProfileLabel(id string) (string, error)
	GetProfileID(label string) (string, error)

	EnsureProfile(label string) (string, error)
}
