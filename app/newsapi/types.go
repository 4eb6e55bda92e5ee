package newsapi

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Name is the feeding service kind used in provider configurations.
const Name = "anp_news_api"

// Source is a vendor news source as reported by /services/sources.
type Source struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ItemRef is one entry of a source's item id listing.
type ItemRef struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// IntString accepts both numeric and quoted values; the vendor is not
// consistent about the urgency field. An unparseable value is a decode
// error and aborts processing of the payload.
type IntString int

func (n *IntString) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*n = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("failed to parse numeric value %s: %w", string(data), err)
	}
	*n = IntString(v)
	return nil
}

var _ json.Unmarshaler = (*IntString)(nil)

// Article is the raw vendor item detail record. Lifetime is a single
// fetch-map-discard cycle.
type Article struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	BodyText       string    `json:"bodyText"`
	EditorialNote  string    `json:"editorialNote"`
	SourceTitle    string    `json:"sourceTitle"`
	Urgency        IntString `json:"urgency"`
	FirstIssueDate string    `json:"firstIssueDate"`
	PubDate        string    `json:"pubDate"`
	Authors        []string  `json:"authors"`
	Categories     []string  `json:"categories"`
	Keywords       []string  `json:"keywords"`
	MediaLink      string    `json:"media_link"`
}
