package newsapi

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

var _ ingest.FeedingService = (*FeedingService)(nil)

// FeedingService retrieves news items for one provider using the ANP News
// API: source list, per-source item id listings bounded by the stored
// cursor, then item details mapped through the parser.
type FeedingService struct {
	provider *ingest.Config
	client   *Client
	parser   *Parser
}

func NewFeedingService(provider *ingest.Config, vocabularies VocabularyLookup, renditions RenditionUpdater) *FeedingService {
	return &FeedingService{
		provider: provider,
		client:   NewClient(provider),
		parser:   NewParser(vocabularies, renditions),
	}
}

// Update runs one ingestion pass. Per-source bookmarks in state are advanced
// after each item detail fetch, before mapping: a mapping failure aborts the
// run but leaves the cursor pointing at the item that was attempted last.
// Items are returned oldest-to-newest per source.
func (s *FeedingService) Update(ctx context.Context, provider *ingest.Config, state ingest.CursorState) ([]ingest.Item, error) {
	sources, err := s.fetchSources(ctx)
	if err != nil {
		return nil, err
	}

	var parsedItems []ingest.Item

	for _, source := range sources {
		var toItem string
		if cursor, ok := state[source.ID]; ok {
			toItem = cursor.LastItemID
		}

		refs, err := s.client.Items(ctx, source.ID, toItem)
		if err != nil {
			return parsedItems, err
		}

		newCount := 0
		for _, ref := range refs {
			if !s.kindAllowed(ref.Kind) {
				continue
			}

			details, err := s.client.ItemDetails(ctx, source.ID, ref.ID)
			if err != nil {
				return parsedItems, err
			}

			state[source.ID] = ingest.SourceCursor{
				Title:      source.Title,
				LastItemID: details.ID,
			}

			item, err := s.parser.Parse(ctx, details, provider)
			if err != nil {
				return parsedItems, err
			}

			parsedItems = append(parsedItems, *item)
			newCount++
		}

		slog.Debug("Source processed", "provider", provider.Name, "source", source.Title, "listed", len(refs), "new", newCount)
	}

	return parsedItems, nil
}

// fetchSources fetches the vendor source list and retains sources whose title
// matches one of the configured, comma-separated titles. Matching is
// case-insensitive and whitespace-trimmed.
func (s *FeedingService) fetchSources(ctx context.Context) ([]Source, error) {
	sources, err := s.client.Sources(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool)
	for _, title := range strings.Split(s.provider.SourceTitles, ",") {
		title = strings.ToLower(strings.TrimSpace(title))
		if title != "" {
			wanted[title] = true
		}
	}

	retained := make([]Source, 0, len(sources))
	for _, source := range sources {
		if wanted[strings.ToLower(source.Title)] {
			retained = append(retained, source)
		}
	}

	return retained, nil
}

func (s *FeedingService) kindAllowed(kind string) bool {
	for _, allowed := range s.provider.AllowedKinds {
		if kind == allowed {
			return true
		}
	}
	return false
}
