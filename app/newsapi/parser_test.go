package newsapi

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

type fakeVocabularies struct {
	items map[string]map[string]string
}

func (f *fakeVocabularies) GetVocabularyItems(vocabularyID string) (map[string]string, error) {
	items, ok := f.items[vocabularyID]
	if !ok {
		return nil, fmt.Errorf("vocabulary '%s' not found", vocabularyID)
	}
	return items, nil
}

type fakeRenditions struct {
	calls    int
	href     string
	username string
	password string
}

func (f *fakeRenditions) UpdateRenditions(ctx context.Context, item *ingest.Item, href, username, password string) error {
	f.calls++
	f.href = href
	f.username = username
	f.password = password
	item.Renditions = map[string]ingest.Rendition{
		"original": {Href: href, Mimetype: "image/jpeg"},
	}
	return nil
}

func testVocabularies() *fakeVocabularies {
	return &fakeVocabularies{items: map[string]map[string]string{
		"anp_genres": {
			"BIN": "Binnenland",
			"BUI": "Buitenland",
			"ECO": "Economie",
		},
	}}
}

func testArticle() *Article {
	return &Article{
		ID:             "ac3dc857e87ea0a0b98635b314941d12",
		Kind:           "TEXTARTICLE",
		Title:          "Zanger Dotan maakt comeback na trollenaffaire",
		BodyText:       "<p>Dotan komt met nieuwe muziek.</p>",
		EditorialNote:  "Embargo tot 18:00",
		SourceTitle:    "ANP 101",
		Urgency:        3,
		FirstIssueDate: "2020-05-11T10:05:00Z",
		PubDate:        "2020-05-11T12:30:00Z",
		Authors:        []string{"Jan Jansen", "Piet Pietersen"},
		Categories:     []string{"BIN", "XXX", "ECO"},
		Keywords:       []string{"muziek", "media"},
	}
}

func TestParserMapsArticle(t *testing.T) {
	parser := NewParser(testVocabularies(), &fakeRenditions{})
	provider := testProvider("https://newsapi.anp.nl")

	item, err := parser.Parse(context.Background(), testArticle(), provider)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if item.Type != ingest.ItemTypeText {
		t.Errorf("Expected type 'text', got: %s", item.Type)
	}
	if item.GUID != "ac3dc857e87ea0a0b98635b314941d12" {
		t.Errorf("Unexpected GUID: %s", item.GUID)
	}
	if item.Headline != "Zanger Dotan maakt comeback na trollenaffaire" {
		t.Errorf("Unexpected headline: %s", item.Headline)
	}
	if item.BodyHTML != "<p>Dotan komt met nieuwe muziek.</p>" {
		t.Errorf("Unexpected body: %s", item.BodyHTML)
	}
	if item.Ednote != "Embargo tot 18:00" {
		t.Errorf("Unexpected ednote: %s", item.Ednote)
	}
	if item.Copyrightholder != "ANP 101" {
		t.Errorf("Unexpected copyrightholder: %s", item.Copyrightholder)
	}
	if item.Urgency != 3 || item.Priority != 3 {
		t.Errorf("Expected urgency copied to priority (3), got: urgency=%d priority=%d", item.Urgency, item.Priority)
	}
	if item.Byline != "Jan Jansen, Piet Pietersen" {
		t.Errorf("Unexpected byline: %s", item.Byline)
	}

	expectedFirst := time.Date(2020, 5, 11, 10, 5, 0, 0, time.UTC)
	if !item.Firstcreated.Equal(expectedFirst) {
		t.Errorf("Expected firstcreated %v, got: %v", expectedFirst, item.Firstcreated)
	}
	expectedVersion := time.Date(2020, 5, 11, 12, 30, 0, 0, time.UTC)
	if !item.Versioncreated.Equal(expectedVersion) {
		t.Errorf("Expected versioncreated %v, got: %v", expectedVersion, item.Versioncreated)
	}

	if len(item.Authors) != 2 {
		t.Fatalf("Expected 2 authors, got: %d", len(item.Authors))
	}
	for i, author := range item.Authors {
		if author.Role != "writer" {
			t.Errorf("Expected author %d role 'writer', got: %s", i, author.Role)
		}
	}

	if len(item.Keywords) != 2 || item.Keywords[0] != "muziek" {
		t.Errorf("Unexpected keywords: %v", item.Keywords)
	}
}

func TestParserDropsUnknownCategories(t *testing.T) {
	parser := NewParser(testVocabularies(), &fakeRenditions{})
	provider := testProvider("https://newsapi.anp.nl")

	// 3 vendor codes, 2 present in the vocabulary: exactly 2 subjects, in
	// vendor order
	item, err := parser.Parse(context.Background(), testArticle(), provider)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(item.Subjects) != 2 {
		t.Fatalf("Expected 2 subjects, got: %d", len(item.Subjects))
	}
	if item.Subjects[0].QCode != "BIN" || item.Subjects[0].Name != "Binnenland" {
		t.Errorf("Unexpected first subject: %+v", item.Subjects[0])
	}
	if item.Subjects[1].QCode != "ECO" || item.Subjects[1].Name != "Economie" {
		t.Errorf("Unexpected second subject: %+v", item.Subjects[1])
	}
	for _, subject := range item.Subjects {
		if subject.Scheme != "anp_genres" {
			t.Errorf("Expected scheme 'anp_genres', got: %s", subject.Scheme)
		}
	}
}

func TestParserUrgencyDefault(t *testing.T) {
	parser := NewParser(testVocabularies(), &fakeRenditions{})
	provider := testProvider("https://newsapi.anp.nl")

	article := testArticle()
	article.Urgency = 0

	item, err := parser.Parse(context.Background(), article, provider)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if item.Urgency != 0 || item.Priority != 0 {
		t.Errorf("Expected default urgency/priority 0, got: %d/%d", item.Urgency, item.Priority)
	}
}

func TestParserFeaturemedia(t *testing.T) {
	renditions := &fakeRenditions{}
	parser := NewParser(testVocabularies(), renditions)
	provider := testProvider("https://newsapi.anp.nl")

	article := testArticle()
	article.MediaLink = "https://newsapi.anp.nl/services/sources/s1/items/ac3d/media/38bdbbbd.jpeg"

	item, err := parser.Parse(context.Background(), article, provider)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	association, ok := item.Associations["featuremedia"]
	if !ok {
		t.Fatal("Expected featuremedia association")
	}
	if association.Type != ingest.ItemTypePicture {
		t.Errorf("Expected association type 'picture', got: %s", association.Type)
	}
	if association.GUID != "38bdbbbd.jpeg" {
		t.Errorf("Expected GUID from last href segment, got: %s", association.GUID)
	}
	if association.Headline != item.Headline || association.DescriptionText != item.Headline {
		t.Error("Expected association headline and description taken from the item headline")
	}
	if association.CopyrightNotice != "ANP 101" {
		t.Errorf("Expected copyrightnotice 'ANP 101', got: %s", association.CopyrightNotice)
	}

	if renditions.calls != 1 {
		t.Fatalf("Expected 1 rendition fetch, got: %d", renditions.calls)
	}
	if renditions.username != "fake@anp.nl" || renditions.password != "fakepswd" {
		t.Errorf("Expected provider credentials passed through, got: %s/%s", renditions.username, renditions.password)
	}
}

func TestParserMissingVocabularyIsFatal(t *testing.T) {
	parser := NewParser(&fakeVocabularies{items: map[string]map[string]string{}}, &fakeRenditions{})
	provider := testProvider("https://newsapi.anp.nl")

	if _, err := parser.Parse(context.Background(), testArticle(), provider); err == nil {
		t.Fatal("Expected error for missing vocabulary, got nil")
	}
}

func TestParserPrefetchesVocabulariesOnce(t *testing.T) {
	vocabularies := &countingVocabularies{inner: testVocabularies()}
	parser := NewParser(vocabularies, &fakeRenditions{})
	provider := testProvider("https://newsapi.anp.nl")

	for i := 0; i < 3; i++ {
		if _, err := parser.Parse(context.Background(), testArticle(), provider); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	if vocabularies.calls != 1 {
		t.Errorf("Expected 1 vocabulary prefetch, got: %d", vocabularies.calls)
	}
}

type countingVocabularies struct {
	inner *fakeVocabularies
	calls int
}

func (c *countingVocabularies) GetVocabularyItems(vocabularyID string) (map[string]string, error) {
	c.calls++
	return c.inner.GetVocabularyItems(vocabularyID)
}
