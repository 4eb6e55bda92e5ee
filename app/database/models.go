package database

import (
	"time"
)

// Provider represents an ingest provider record in the database
type Provider struct {
	ID             string // Database UUID
	Name           string // Configuration provider identifier derived from filename
	Label          string
	FeedingService string
	URL            string
	Enabled        bool
	LastUpdated    *time.Time // Last ingestion run
	LastItemUpdate *time.Time // Last run that produced items
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Item represents a stored canonical item record
type Item struct {
	ID             string
	ProviderID     string
	GUID           string
	Type           string
	Headline       string
	Source         string
	FamilyID       string
	Firstcreated   *time.Time
	Versioncreated *time.Time
	Data           []byte // Full canonical item as JSON
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ContentProfile represents a content profile record
type ContentProfile struct {
	ID        string
	Label     string
	CreatedAt time.Time
}
