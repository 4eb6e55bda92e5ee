package formatter

import (
	"encoding/json"
	"fmt"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

// FormatType identifies the NINJS output flavor produced here.
const FormatType = "custom_ninjs"

const dateLayout = "2006-01-02T15:04:05+0000"

// directCopyProperties are item fields carried into the NINJS document
// verbatim. family_id is the local extension over plain NINJS.
var directCopyProperties = []string{
	"guid",
	"type",
	"profile",
	"pubstatus",
	"headline",
	"body_html",
	"description_text",
	"ednote",
	"copyrightholder",
	"copyrightnotice",
	"source",
	"byline",
	"keywords",
	"family_id",
}

// NINJSFormatter renders canonical items as NINJS JSON documents.
type NINJSFormatter struct {
	formatType string
}

func NewNINJSFormatter() *NINJSFormatter {
	return &NINJSFormatter{formatType: FormatType}
}

func (f *NINJSFormatter) CanFormat(formatType string) bool {
	return formatType == f.formatType
}

func (f *NINJSFormatter) Format(item *ingest.Item) ([]byte, error) {
	data, err := json.Marshal(f.transform(item))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ninjs document: %w", err)
	}
	return data, nil
}

func (f *NINJSFormatter) transform(item *ingest.Item) map[string]interface{} {
	doc := map[string]interface{}{}

	for _, property := range directCopyProperties {
		if value := fieldValue(item, property); value != nil {
			doc[property] = value
		}
	}

	if item.Urgency != 0 {
		doc["urgency"] = item.Urgency
	}
	if item.Priority != 0 {
		doc["priority"] = item.Priority
	}
	if item.Duration != 0 {
		doc["duration"] = item.Duration
	}
	if !item.Firstcreated.IsZero() {
		doc["firstcreated"] = item.Firstcreated.UTC().Format(dateLayout)
	}
	if !item.Versioncreated.IsZero() {
		doc["versioncreated"] = item.Versioncreated.UTC().Format(dateLayout)
	}

	if len(item.Authors) > 0 {
		authors := make([]map[string]interface{}, 0, len(item.Authors))
		for _, author := range item.Authors {
			authors = append(authors, map[string]interface{}{
				"name": author.Name,
				"role": author.Role,
			})
		}
		doc["authors"] = authors
	}

	if len(item.Subjects) > 0 {
		subjects := make([]map[string]interface{}, 0, len(item.Subjects))
		for _, subject := range item.Subjects {
			subjects = append(subjects, map[string]interface{}{
				"name":   subject.Name,
				"code":   subject.QCode,
				"scheme": subject.Scheme,
			})
		}
		doc["subject"] = subjects
	}

	if len(item.Renditions) > 0 {
		renditions := map[string]interface{}{}
		for name, rendition := range item.Renditions {
			entry := map[string]interface{}{}
			if rendition.Href != "" {
				entry["href"] = rendition.Href
			}
			if rendition.Media != "" {
				entry["media"] = rendition.Media
			}
			if rendition.Mimetype != "" {
				entry["mimetype"] = rendition.Mimetype
			}
			renditions[name] = entry
		}
		doc["renditions"] = renditions
	}

	if len(item.Associations) > 0 {
		associations := map[string]interface{}{}
		for name, associated := range item.Associations {
			if associated == nil {
				continue
			}
			associations[name] = f.transform(associated)
		}
		doc["associations"] = associations
	}

	return doc
}

func fieldValue(item *ingest.Item, property string) interface{} {
	var value interface{}

	switch property {
	case "guid":
		value = item.GUID
	case "type":
		value = string(item.Type)
	case "profile":
		value = item.Profile
	case "pubstatus":
		value = item.PubStatus
	case "headline":
		value = item.Headline
	case "body_html":
		value = item.BodyHTML
	case "description_text":
		value = item.DescriptionText
	case "ednote":
		value = item.Ednote
	case "copyrightholder":
		value = item.Copyrightholder
	case "copyrightnotice":
		value = item.CopyrightNotice
	case "source":
		value = item.Source
	case "byline":
		value = item.Byline
	case "family_id":
		value = item.FamilyID
	case "keywords":
		if len(item.Keywords) > 0 {
			return item.Keywords
		}
		return nil
	}

	if s, ok := value.(string); !ok || s == "" {
		return nil
	}
	return value
}
