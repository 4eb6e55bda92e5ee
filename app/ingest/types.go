package ingest

import (
	"time"
)

// Canonical item types

type ItemType string

const (
	ItemTypeText    ItemType = "text"
	ItemTypePicture ItemType = "picture"
	ItemTypeVideo   ItemType = "video"
	ItemTypeGraphic ItemType = "graphic"
)

type Author struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type Subject struct {
	Name   string `json:"name"`
	QCode  string `json:"qcode"`
	Scheme string `json:"scheme"`
}

// Rendition is a named derived representation of a media asset. Media is set
// once a copy has been stored locally by the rendition service.
type Rendition struct {
	Href     string `json:"href,omitempty"`
	Media    string `json:"media,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
}

// Item is the canonical content document produced by the mappers. Associations
// hold related items keyed by association name ("featuremedia" for the primary
// media association).
type Item struct {
	GUID            string
	Type            ItemType
	Profile         string
	PubStatus       string
	Headline        string
	BodyHTML        string
	DescriptionText string
	Ednote          string
	Copyrightholder string
	CopyrightNotice string
	Source          string
	Credit          string
	Urgency         int
	Priority        int
	Byline          string
	Duration        int // seconds, video only
	FamilyID        string
	IngestProvider  string
	Firstcreated    time.Time
	Versioncreated  time.Time
	Authors         []Author
	Subjects        []Subject
	Keywords        []string
	Renditions      map[string]Rendition
	Associations    map[string]*Item
	Fetchable       bool
}

// Configuration types

type Config struct {
	Name           string         // Derived from filename (without .yml extension)
	Label          string         `yaml:"label"`
	FeedingService string         `yaml:"feeding_service"`
	URL            string         `yaml:"url"`
	Username       string         `yaml:"username"`
	Password       string         `yaml:"password"`
	SourceTitles   string         `yaml:"source_titles"` // comma-separated vendor source titles
	AllowedKinds   []string       `yaml:"allowed_kinds"`
	Settings       ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled          bool `yaml:"enabled"`
	ScheduleInterval int  `yaml:"schedule_interval"` // seconds
	MaxItems         int  `yaml:"max_items"`
	Timeout          int  `yaml:"timeout"` // seconds
}

// Provider private state

// SourceCursor is the per-source bookmark: the id of the last item fetched
// from that source. It only ever advances within a run and is the sole
// deduplication mechanism against the vendor.
type SourceCursor struct {
	Title      string
	LastItemID string
}

// CursorState maps vendor source ids to their cursors. Feeding services
// mutate it in place while a run progresses.
type CursorState map[string]SourceCursor
