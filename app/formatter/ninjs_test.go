package formatter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

func TestCanFormat(t *testing.T) {
	formatter := NewNINJSFormatter()

	if !formatter.CanFormat("custom_ninjs") {
		t.Error("Expected custom_ninjs to be formattable")
	}
	if formatter.CanFormat("ninjs") {
		t.Error("Expected plain ninjs to not be formattable")
	}
}

func TestFormatCopiesFamilyID(t *testing.T) {
	formatter := NewNINJSFormatter()

	data, err := formatter.Format(&ingest.Item{
		GUID:            "item-1",
		Type:            ingest.ItemTypeText,
		Headline:        "Dotan komt met nieuw album",
		FamilyID:        "family-42",
		Copyrightholder: "ANP",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}

	if doc["family_id"] != "family-42" {
		t.Errorf("Expected family_id 'family-42', got: %v", doc["family_id"])
	}
	if doc["headline"] != "Dotan komt met nieuw album" {
		t.Errorf("Expected headline to be copied, got: %v", doc["headline"])
	}
	if doc["copyrightholder"] != "ANP" {
		t.Errorf("Expected copyrightholder to be copied, got: %v", doc["copyrightholder"])
	}
}

func TestFormatOmitsEmptyFields(t *testing.T) {
	formatter := NewNINJSFormatter()

	data, err := formatter.Format(&ingest.Item{GUID: "item-1", Type: ingest.ItemTypeText})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}

	for _, field := range []string{"headline", "body_html", "urgency", "family_id", "renditions", "associations"} {
		if _, ok := doc[field]; ok {
			t.Errorf("Expected empty field '%s' to be omitted", field)
		}
	}
}

func TestFormatDatesAndSubjects(t *testing.T) {
	formatter := NewNINJSFormatter()

	data, err := formatter.Format(&ingest.Item{
		GUID:           "item-1",
		Type:           ingest.ItemTypeText,
		Versioncreated: time.Date(2020, 5, 11, 8, 5, 0, 0, time.UTC),
		Subjects: []ingest.Subject{
			{Name: "Economie", QCode: "eco", Scheme: "anp_genres"},
		},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var doc struct {
		Versioncreated string `json:"versioncreated"`
		Subject        []struct {
			Name   string `json:"name"`
			Code   string `json:"code"`
			Scheme string `json:"scheme"`
		} `json:"subject"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}

	if doc.Versioncreated != "2020-05-11T08:05:00+0000" {
		t.Errorf("Expected formatted versioncreated, got: %s", doc.Versioncreated)
	}
	if len(doc.Subject) != 1 || doc.Subject[0].Code != "eco" || doc.Subject[0].Scheme != "anp_genres" {
		t.Errorf("Unexpected subject list: %+v", doc.Subject)
	}
}

func TestFormatTransformsAssociations(t *testing.T) {
	formatter := NewNINJSFormatter()

	data, err := formatter.Format(&ingest.Item{
		GUID: "item-1",
		Type: ingest.ItemTypeText,
		Associations: map[string]*ingest.Item{
			"featuremedia": {
				GUID: "pic-1",
				Type: ingest.ItemTypePicture,
				Renditions: map[string]ingest.Rendition{
					"original": {Href: "http://example.com/pic.jpg", Mimetype: "image/jpeg"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var doc struct {
		Associations map[string]struct {
			GUID       string `json:"guid"`
			Type       string `json:"type"`
			Renditions map[string]struct {
				Href     string `json:"href"`
				Mimetype string `json:"mimetype"`
			} `json:"renditions"`
		} `json:"associations"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}

	featuremedia, ok := doc.Associations["featuremedia"]
	if !ok {
		t.Fatal("Expected a featuremedia association")
	}
	if featuremedia.Type != "picture" {
		t.Errorf("Expected picture association, got: %s", featuremedia.Type)
	}
	if featuremedia.Renditions["original"].Href != "http://example.com/pic.jpg" {
		t.Errorf("Unexpected rendition href: %s", featuremedia.Renditions["original"].Href)
	}
}
