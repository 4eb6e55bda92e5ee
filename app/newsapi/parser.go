package newsapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

const (
	dateLayout   = "2006-01-02T15:04:05Z"
	genresScheme = "anp_genres"
)

// VocabularyLookup resolves a controlled vocabulary to a qcode -> name map.
type VocabularyLookup interface {
	GetVocabularyItems(vocabularyID string) (map[string]string, error)
}

// RenditionUpdater downloads a media asset and attaches its renditions to an
// item. Credentials are the provider's stored username/password.
type RenditionUpdater interface {
	UpdateRenditions(ctx context.Context, item *ingest.Item, href, username, password string) error
}

// Parser maps one raw vendor article to a canonical item.
type Parser struct {
	vocabularies VocabularyLookup
	renditions   RenditionUpdater

	// genres is prefetched lazily on first parse and kept for the parser
	// instance's lifetime.
	genres map[string]string
}

func NewParser(vocabularies VocabularyLookup, renditions RenditionUpdater) *Parser {
	return &Parser{
		vocabularies: vocabularies,
		renditions:   renditions,
	}
}

func (p *Parser) prefetchVocabularies() error {
	// called from Parse, but it must be executed only once
	if p.genres != nil {
		return nil
	}

	genres, err := p.vocabularies.GetVocabularyItems(genresScheme)
	if err != nil {
		return fmt.Errorf("failed to prefetch vocabulary '%s': %w", genresScheme, err)
	}

	p.genres = genres
	return nil
}

// Parse maps a vendor article to a canonical item. Category codes without a
// vocabulary match are dropped; vendor order is preserved for the rest.
func (p *Parser) Parse(ctx context.Context, article *Article, provider *ingest.Config) (*ingest.Item, error) {
	if err := p.prefetchVocabularies(); err != nil {
		return nil, err
	}

	firstcreated, err := parseDate(article.FirstIssueDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse firstIssueDate of item %s: %w", article.ID, err)
	}
	versioncreated, err := parseDate(article.PubDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pubDate of item %s: %w", article.ID, err)
	}

	item := &ingest.Item{
		Type:            ingest.ItemTypeText,
		GUID:            article.ID,
		Firstcreated:    firstcreated,
		Versioncreated:  versioncreated,
		Headline:        article.Title,
		BodyHTML:        article.BodyText,
		Ednote:          article.EditorialNote,
		Copyrightholder: article.SourceTitle,
		Urgency:         int(article.Urgency),
		Priority:        int(article.Urgency),
		Byline:          strings.Join(article.Authors, ", "),
		IngestProvider:  provider.FeedingService,
		Fetchable:       true,
	}

	for _, name := range article.Authors {
		item.Authors = append(item.Authors, ingest.Author{Name: name, Role: "writer"})
	}

	for _, qcode := range article.Categories {
		name, ok := p.genres[qcode]
		if !ok {
			continue
		}
		item.Subjects = append(item.Subjects, ingest.Subject{
			Name:   name,
			QCode:  qcode,
			Scheme: genresScheme,
		})
	}

	item.Keywords = append(item.Keywords, article.Keywords...)

	// fetch media if the article carries a media link
	if article.MediaLink != "" {
		if err := p.addFeaturemedia(ctx, item, article.MediaLink, provider); err != nil {
			return nil, err
		}
	}

	return item, nil
}

func (p *Parser) addFeaturemedia(ctx context.Context, item *ingest.Item, href string, provider *ingest.Config) error {
	association := &ingest.Item{
		Type:            ingest.ItemTypePicture,
		GUID:            href[strings.LastIndex(href, "/")+1:],
		IngestProvider:  provider.FeedingService,
		Headline:        item.Headline,
		DescriptionText: item.Headline,
		CopyrightNotice: item.Copyrightholder,
		Fetchable:       true,
	}

	err := p.renditions.UpdateRenditions(ctx, association, href,
		strings.TrimSpace(provider.Username), strings.TrimSpace(provider.Password))
	if err != nil {
		return fmt.Errorf("failed to fetch featuremedia of item %s: %w", item.GUID, err)
	}

	if item.Associations == nil {
		item.Associations = make(map[string]*ingest.Item)
	}
	item.Associations["featuremedia"] = association

	return nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}
