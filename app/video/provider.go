package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/lysyi3m/anp-comb/app/ingest"
	"github.com/lysyi3m/anp-comb/app/search"
)

// Name is the registry name of the Talpa video search provider.
const Name = "talpa"

const operationName = "TalpaVideoSearch"

// GraphQL types of the supported query variables.
var queryVariableTypes = map[string]string{
	"limit":       "Int",
	"skip":        "Int",
	"searchParam": "String",
	"sort":        "ProgramSortKey",
}

const queryBody = `
  programs(%s) {
    totalResults
    items {
      guid
      title
      description
      added
      updated
      sourceProgram
      duration
      imageMedia {
        url
      }
      media {
        mediaContent {
          sourceUrl
        }
      }
    }
  }
`

var _ search.Provider = (*Provider)(nil)

// Provider searches the Talpa video catalog through its GraphQL endpoint.
type Provider struct {
	url        string
	source     string
	httpClient *http.Client
}

func NewProvider(url string) *Provider {
	return &Provider{
		url:        url,
		source:     "Talpa",
		httpClient: &http.Client{Timeout: 25 * time.Second},
	}
}

type graphqlRequest struct {
	OperationName string                 `json:"operationName"`
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
}

// buildQuery renders the query document for the given variables. Parameter
// and argument lists are sorted by name so the generated text is stable.
func buildQuery(variables map[string]interface{}) (*graphqlRequest, error) {
	names := make([]string, 0, len(variables))
	for name := range variables {
		if _, ok := queryVariableTypes[name]; !ok {
			return nil, fmt.Errorf("unknown query variable '%s'", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	definitions := make([]string, 0, len(names))
	arguments := make([]string, 0, len(names))
	for _, name := range names {
		definitions = append(definitions, fmt.Sprintf("$%s: %s", name, queryVariableTypes[name]))
		arguments = append(arguments, fmt.Sprintf("%s: $%s", name, name))
	}

	query := fmt.Sprintf("query %s (%s) {%s}",
		operationName,
		strings.Join(definitions, ", "),
		fmt.Sprintf(queryBody, strings.Join(arguments, ", ")))

	return &graphqlRequest{
		OperationName: operationName,
		Query:         query,
		Variables:     variables,
	}, nil
}

type program struct {
	GUID          string  `json:"guid"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Added         int64   `json:"added"`
	Updated       int64   `json:"updated"`
	SourceProgram string  `json:"sourceProgram"`
	Duration      float64 `json:"duration"`
	ImageMedia    []struct {
		URL string `json:"url"`
	} `json:"imageMedia"`
	Media []struct {
		MediaContent []struct {
			SourceURL string `json:"sourceUrl"`
		} `json:"mediaContent"`
	} `json:"media"`
}

type graphqlResponse struct {
	Data struct {
		Programs struct {
			TotalResults int       `json:"totalResults"`
			Items        []program `json:"items"`
		} `json:"programs"`
	} `json:"data"`
}

func (p *Provider) Find(ctx context.Context, query search.Query, params map[string]string) (*search.Cursor, error) {
	variables := map[string]interface{}{
		"skip":  query.From,
		"limit": query.PageSize(),
		"sort":  "ADDED",
	}
	if strings.TrimSpace(query.Text) != "" {
		variables["searchParam"] = query.Text
	}

	request, err := buildQuery(variables)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	programs := parsed.Data.Programs
	items := make([]ingest.Item, 0, len(programs.Items))
	for _, entry := range programs.Items {
		items = append(items, p.parseItem(entry))
	}

	return &search.Cursor{Items: items, Total: programs.TotalResults}, nil
}

func (p *Provider) parseItem(entry program) ingest.Item {
	poster := ingest.Rendition{}
	if len(entry.ImageMedia) > 0 {
		poster.Href = entry.ImageMedia[0].URL
	}

	// a program without an HLS stream keeps an empty original rendition
	original := ingest.Rendition{}
	if len(entry.Media) > 0 {
		for _, content := range entry.Media[0].MediaContent {
			if strings.HasSuffix(content.SourceURL, ".m3u8") {
				original = ingest.Rendition{
					Href:     content.SourceURL,
					Mimetype: "application/x-mpegurl",
				}
				break
			}
		}
	}

	return ingest.Item{
		GUID:            entry.GUID,
		Type:            ingest.ItemTypeVideo,
		PubStatus:       "usable",
		Headline:        entry.Title,
		DescriptionText: entry.Description,
		Source:          entry.SourceProgram,
		Duration:        int(entry.Duration),
		Firstcreated:    time.UnixMilli(entry.Added).UTC(),
		Versioncreated:  time.UnixMilli(entry.Updated).UTC(),
		Renditions: map[string]ingest.Rendition{
			"original":  original,
			"viewImage": poster,
			"baseImage": poster,
			"thumbnail": poster,
		},
		Fetchable: false,
	}
}
