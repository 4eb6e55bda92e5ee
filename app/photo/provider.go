package photo

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kolo/xmlrpc"
	"github.com/lysyi3m/anp-comb/app/ingest"
	"github.com/lysyi3m/anp-comb/app/search"
)

// Name is the registry name of the ANP photo search provider.
const Name = "anp"

const timezone = "Europe/Amsterdam"

// Return field bitmask of the vendor search call.
const (
	fieldThumbnail = 1 << iota
	fieldPreview
	fieldTitle
	fieldDescription
	fieldKeywords
)

const searchFields = fieldThumbnail | fieldPreview | fieldTitle | fieldDescription

const (
	sortAsc  = 0
	sortDesc = 1
)

var objectTypes = map[int64]ingest.ItemType{
	0: ingest.ItemTypePicture,
	1: ingest.ItemTypeVideo,
	2: ingest.ItemTypeGraphic,
	3: ingest.ItemTypePicture,
	4: ingest.ItemTypeGraphic,
}

// RenditionUpdater downloads a media asset and attaches its renditions to an
// item.
type RenditionUpdater interface {
	UpdateRenditions(ctx context.Context, item *ingest.Item, href, username, password string) error
}

// MediaGetter retrieves a previously stored media binary.
type MediaGetter interface {
	Get(mediaID string) ([]byte, error)
}

var (
	_ search.Provider    = (*Provider)(nil)
	_ search.Fetcher     = (*Provider)(nil)
	_ search.FileFetcher = (*Provider)(nil)
)

// Provider searches the ANP photo catalog over XML-RPC.
type Provider struct {
	url        string
	apiKey     string
	source     string
	renditions RenditionUpdater
	media      MediaGetter
	httpClient *http.Client
	location   *time.Location

	client *xmlrpc.Client
}

func NewProvider(url, apiKey string, renditions RenditionUpdater, media MediaGetter) (*Provider, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load location %s: %w", timezone, err)
	}

	return &Provider{
		url:        url,
		apiKey:     apiKey,
		source:     "ANP",
		renditions: renditions,
		media:      media,
		httpClient: &http.Client{Timeout: 25 * time.Second},
		location:   location,
	}, nil
}

// proxy lazily creates the XML-RPC client.
func (p *Provider) proxy() (*xmlrpc.Client, error) {
	if p.client != nil {
		return p.client, nil
	}

	client, err := xmlrpc.NewClient(p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	p.client = client
	return client, nil
}

func (p *Provider) Find(ctx context.Context, query search.Query, params map[string]string) (*search.Cursor, error) {
	callParams := p.buildSearchParams(query, params)

	client, err := p.proxy()
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := client.Call("search", callParams, &data); err != nil {
		return nil, fmt.Errorf("failed to search photos: %w", err)
	}

	pagesize := callParams["pagesize"].(int)
	items := make([]ingest.Item, 0, pagesize)
	for i := 0; i < pagesize; i++ {
		slot, ok := data[strconv.Itoa(i+1)].(map[string]interface{})
		if !ok {
			// vendor pages are sparse, unpopulated slots are skipped
			continue
		}
		items = append(items, p.parseItem(slot))
	}

	return &search.Cursor{Items: items, Total: intValue(data["totalresults"])}, nil
}

func (p *Provider) buildSearchParams(query search.Query, params map[string]string) map[string]interface{} {
	pagesize := query.PageSize()

	sortorder := sortDesc
	if query.SortVersionCreated == "asc" {
		sortorder = sortAsc
	}

	callParams := map[string]interface{}{
		"api_key":      p.apiKey,
		"page":         int(math.Ceil(float64(query.From)/float64(pagesize))) + 1,
		"pagesize":     pagesize,
		"sortfield":    0,
		"sortorder":    sortorder,
		"returnfields": searchFields,
	}

	if params["orientation"] != "" {
		callParams["orientations"] = params["orientation"]
	}
	if params["reference"] != "" {
		callParams["reference"] = params["reference"]
	}
	if params["filename"] != "" {
		callParams["filename"] = params["filename"]
	}
	if params["firstdate"] != "" {
		// date part only; a lower bound forces ascending sort
		callParams["firstdate"] = strings.SplitN(params["firstdate"], "T", 2)[0]
		callParams["sortorder"] = sortAsc
	}

	if query.Text != "" {
		callParams["keywords"] = query.Text
	}

	return callParams
}

func (p *Provider) parseItem(data map[string]interface{}) ingest.Item {
	firstcreated, err := p.parseDate(stringValue(data["picturedate"]))
	if err != nil {
		// picture dates outside the representable range fall back to the
		// entry date
		firstcreated, _ = p.parseDate(stringValue(data["entrydate"]))
	}
	versioncreated, _ := p.parseDate(stringValue(data["entrydate"]))

	source := stringValue(data["reference2"])
	if source == "" {
		source = p.source
	}

	preview := ingest.Rendition{Href: stringValue(data["preview_url"])}

	return ingest.Item{
		GUID:            fmt.Sprintf("urn:anp:%s", idValue(data["id"])),
		Type:            objectTypes[intValue64(data["objecttype"])],
		Source:          source,
		Credit:          source,
		Byline:          source,
		CopyrightNotice: source,
		Headline:        stringValue(data["title"]),
		DescriptionText: stringValue(data["description"]),
		Firstcreated:    firstcreated,
		Versioncreated:  versioncreated,
		Renditions: map[string]ingest.Rendition{
			"thumbnail": {Href: stringValue(data["thumbnail_url"])},
			"viewImage": preview,
			"baseImage": preview,
			"original":  preview,
		},
		Fetchable: true,
	}
}

func (p *Provider) parseDate(value string) (time.Time, error) {
	local, err := time.ParseInLocation("20060102 15:04:05", value, p.location)
	if err != nil {
		return time.Time{}, err
	}
	return local.UTC(), nil
}

// Fetch retrieves a single item by guid and resolves its download location.
func (p *Provider) Fetch(ctx context.Context, guid string) (*ingest.Item, error) {
	idPart := guid[strings.LastIndex(guid, ":")+1:]
	id, err := strconv.Atoi(idPart)
	if err != nil {
		return nil, fmt.Errorf("invalid photo guid '%s': %w", guid, err)
	}

	client, err := p.proxy()
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	err = client.Call("search", map[string]interface{}{
		"api_key":      p.apiKey,
		"pagesize":     1,
		"reference":    strconv.Itoa(id),
		"returnfields": searchFields,
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo %d: %w", id, err)
	}

	slot, ok := data["1"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("photo %d not found", id)
	}
	item := p.parseItem(slot)

	var location map[string]interface{}
	err = client.Call("getmedialocation", map[string]interface{}{
		"api_key": p.apiKey,
		"id":      id,
	}, &location)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media location of photo %d: %w", id, err)
	}

	if err := p.renditions.UpdateRenditions(ctx, &item, stringValue(location["url"]), "", ""); err != nil {
		return nil, err
	}

	return &item, nil
}

// FetchFile retrieves a rendition binary, preferring a previously stored
// local copy over a re-download.
func (p *Provider) FetchFile(ctx context.Context, href string, rendition ingest.Rendition, item *ingest.Item) ([]byte, error) {
	if rendition.Media != "" {
		return p.media.Get(rendition.Media)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", href, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// XML-RPC values arrive as interface{}; the vendor is loose about types.

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func intValue(v interface{}) int {
	return int(intValue64(v))
}

func intValue64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}

func idValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return strconv.FormatInt(intValue64(v), 10)
}
