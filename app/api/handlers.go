package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
	"github.com/lysyi3m/anp-comb/app/database"
	"github.com/lysyi3m/anp-comb/app/formatter"
	"github.com/lysyi3m/anp-comb/app/ingest"
	"github.com/lysyi3m/anp-comb/app/search"
	"github.com/lysyi3m/anp-comb/app/tasks"
	"github.com/lysyi3m/anp-comb/app/validate"
)

func NewHandler(configCache *ingest.ConfigCache, providerRepo database.ProviderRepository,
	itemRepo database.ItemRepository, mediaStore MediaGetter,
	validateBus *validate.Bus, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		providerRepo: providerRepo,
		itemRepo:     itemRepo,
		configCache:  configCache,
		mediaStore:   mediaStore,
		validateBus:  validateBus,
		scheduler:    scheduler,
	}
}

// resolveFormatter picks the output formatter for a request. The format
// query argument selects it, custom_ninjs is the default.
func resolveFormatter(c *gin.Context) (formatter.Formatter, bool) {
	outputFormatter, err := formatter.GetFormatter(c.DefaultQuery("format", formatter.FormatType))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return outputFormatter, true
}

// GetProviderItems returns the latest stored items of a provider as an array
// of NINJS documents.
func (h *Handler) GetProviderItems(c *gin.Context) {
	name := c.Param("name")

	outputFormatter, ok := resolveFormatter(c)
	if !ok {
		return
	}

	providerConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Provider configuration not found", "provider", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	provider, err := h.providerRepo.GetProvider(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_provider", "provider", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if provider == nil {
		slog.Error("Provider not found in database", "provider", name)
		c.Status(http.StatusNotFound)
		return
	}

	items, err := h.itemRepo.GetItems(provider.ID, providerConfig.Settings.MaxItems)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "provider", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	documents, err := formatItems(outputFormatter, items)
	if err != nil {
		slog.Error("Formatting error", "provider", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("X-Provider-Items", strconv.Itoa(len(items)))
	c.Header("X-Provider-Name", name)

	c.JSON(http.StatusOK, documents)
}

// GetProviderRSS renders the latest stored items of a provider as an RSS feed.
func (h *Handler) GetProviderRSS(c *gin.Context) {
	name := c.Param("name")

	providerConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	provider, err := h.providerRepo.GetProvider(name)
	if err != nil || provider == nil {
		c.Status(http.StatusNotFound)
		return
	}

	items, err := h.itemRepo.GetItems(provider.ID, providerConfig.Settings.MaxItems)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "provider", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	feed := &feeds.Feed{
		Title:       providerConfig.Label,
		Link:        &feeds.Link{Href: providerConfig.URL},
		Description: "Latest items ingested from " + name,
		Created:     provider.CreatedAt,
	}
	if feed.Title == "" {
		feed.Title = name
	}
	if provider.LastItemUpdate != nil {
		feed.Updated = *provider.LastItemUpdate
	}

	for i := range items {
		item := &items[i]
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          item.GUID,
			Title:       item.Headline,
			Link:        &feeds.Link{Href: providerConfig.URL},
			Description: item.DescriptionText,
			Content:     item.BodyHTML,
			Author:      &feeds.Author{Name: item.Byline},
			Created:     item.Firstcreated,
			Updated:     item.Versioncreated,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		slog.Error("RSS generation error", "provider", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, rss)
}

// GetItem returns one stored item as a NINJS document.
func (h *Handler) GetItem(c *gin.Context) {
	guid := c.Param("guid")

	outputFormatter, ok := resolveFormatter(c)
	if !ok {
		return
	}

	item, err := h.itemRepo.GetItem(guid)
	if err != nil {
		slog.Error("Database error", "operation", "get_item", "guid", guid, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if item == nil {
		c.Status(http.StatusNotFound)
		return
	}

	document, err := outputFormatter.Format(item)
	if err != nil {
		slog.Error("Formatting error", "guid", guid, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "application/json", document)
}

// GetMedia serves a stored media binary.
func (h *Handler) GetMedia(c *gin.Context) {
	id := c.Param("id")

	data, err := h.mediaStore.Get(id)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if providerCount, err := h.providerRepo.GetProviderCount(); err == nil {
		health["providers"] = providerCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()
	health["search_providers"] = search.RegisteredProviders()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	providers, err := h.providerRepo.GetProviders()
	if err != nil {
		slog.Error("Database error", "operation", "get_providers", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	stats := make([]map[string]interface{}, 0, len(providers))
	for _, provider := range providers {
		entry := map[string]interface{}{
			"name":             provider.Name,
			"feeding_service":  provider.FeedingService,
			"enabled":          provider.Enabled,
			"last_updated":     provider.LastUpdated,
			"last_item_update": provider.LastItemUpdate,
		}
		if count, err := h.itemRepo.GetItemCount(provider.ID); err == nil {
			entry["items"] = count
		}
		stats = append(stats, entry)
	}

	c.JSON(http.StatusOK, gin.H{"providers": stats})
}

func (h *Handler) APIListProviders(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	providers := make([]map[string]interface{}, 0, len(configs))

	for _, providerConfig := range configs {
		providerInfo := map[string]interface{}{
			"name":              providerConfig.Name,
			"label":             providerConfig.Label,
			"feeding_service":   providerConfig.FeedingService,
			"url":               providerConfig.URL,
			"enabled":           providerConfig.Settings.Enabled,
			"max_items":         providerConfig.Settings.MaxItems,
			"schedule_interval": (time.Duration(providerConfig.Settings.ScheduleInterval) * time.Second).String(),
		}

		if provider, err := h.providerRepo.GetProvider(providerConfig.Name); err == nil && provider != nil {
			providerInfo["last_updated"] = provider.LastUpdated
			providerInfo["last_item_update"] = provider.LastItemUpdate
		}

		providers = append(providers, providerInfo)
	}

	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

func (h *Handler) APIGetProviderDetails(c *gin.Context) {
	name := c.Param("name")

	providerConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}

	provider, err := h.providerRepo.GetProvider(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_provider", "provider", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	details := gin.H{
		"name":            providerConfig.Name,
		"label":           providerConfig.Label,
		"feeding_service": providerConfig.FeedingService,
		"url":             providerConfig.URL,
		"source_titles":   providerConfig.SourceTitles,
		"settings":        providerConfig.Settings,
	}

	if provider != nil {
		details["registered"] = true
		details["last_updated"] = provider.LastUpdated
		details["last_item_update"] = provider.LastItemUpdate
		if count, err := h.itemRepo.GetItemCount(provider.ID); err == nil {
			details["items"] = count
		}
	} else {
		details["registered"] = false
	}

	c.JSON(http.StatusOK, details)
}

// APIIngestProvider queues a manual ingestion run.
func (h *Handler) APIIngestProvider(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}

	if err := h.scheduler.EnqueueIngest(name); err != nil {
		slog.Error("Failed to enqueue ingestion", "provider", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to queue ingestion"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "provider": name})
}

// APISearch proxies a search request to a registered search provider.
func (h *Handler) APISearch(c *gin.Context) {
	providerName := c.Param("provider")

	outputFormatter, ok := resolveFormatter(c)
	if !ok {
		return
	}

	provider, err := search.GetProvider(providerName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	query := search.Query{
		From:               intQuery(c, "from"),
		Size:               intQuery(c, "size"),
		SortVersionCreated: c.Query("sort"),
		Text:               c.Query("q"),
	}

	params := map[string]string{}
	if raw := c.Query("params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid params"})
			return
		}
	}

	cursor, err := provider.Find(c.Request.Context(), query, params)
	if err != nil {
		slog.Error("Search failed", "provider", providerName, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search failed"})
		return
	}

	documents, err := formatItems(outputFormatter, cursor.Items)
	if err != nil {
		slog.Error("Formatting error", "provider", providerName, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"_items": documents,
		"_meta":  gin.H{"total": cursor.Count()},
	})
}

// APISearchFetch retrieves a single item from a search provider.
func (h *Handler) APISearchFetch(c *gin.Context) {
	providerName := c.Param("provider")
	guid := c.Param("guid")

	outputFormatter, ok := resolveFormatter(c)
	if !ok {
		return
	}

	provider, err := search.GetProvider(providerName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	fetcher, ok := provider.(search.Fetcher)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider does not support item retrieval"})
		return
	}

	item, err := fetcher.Fetch(c.Request.Context(), guid)
	if err != nil {
		slog.Error("Fetch failed", "provider", providerName, "guid", guid, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fetch failed"})
		return
	}

	document, err := outputFormatter.Format(item)
	if err != nil {
		slog.Error("Formatting error", "guid", guid, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "application/json", document)
}

// APISearchFetchFile downloads a rendition binary of a search result.
func (h *Handler) APISearchFetchFile(c *gin.Context) {
	providerName := c.Param("provider")
	guid := c.Param("guid")

	provider, err := search.GetProvider(providerName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	fetcher, ok := provider.(search.Fetcher)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider does not support item retrieval"})
		return
	}

	fileFetcher, ok := provider.(search.FileFetcher)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider does not support file retrieval"})
		return
	}

	item, err := fetcher.Fetch(c.Request.Context(), guid)
	if err != nil {
		slog.Error("Fetch failed", "provider", providerName, "guid", guid, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fetch failed"})
		return
	}

	renditionName := c.DefaultQuery("rendition", "original")
	rendition, ok := item.Renditions[renditionName]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rendition not found"})
		return
	}

	data, err := fileFetcher.FetchFile(c.Request.Context(), rendition.Href, rendition, item)
	if err != nil {
		slog.Error("File fetch failed", "provider", providerName, "guid", guid, "rendition", renditionName, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "File fetch failed"})
		return
	}

	contentType := rendition.Mimetype
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	c.Data(http.StatusOK, contentType, data)
}

// APIValidate runs publish-validation rules against a submitted item.
func (h *Handler) APIValidate(c *gin.Context) {
	var item ingest.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item payload"})
		return
	}

	response, err := h.validateBus.Validate(&item)
	if err != nil {
		slog.Error("Validation failed", "guid", item.GUID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"publishable": len(response) == 0,
		"errors":      response,
	})
}

func formatItems(outputFormatter formatter.Formatter, items []ingest.Item) ([]json.RawMessage, error) {
	documents := make([]json.RawMessage, 0, len(items))
	for i := range items {
		document, err := outputFormatter.Format(&items[i])
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}
	return documents, nil
}

func intQuery(c *gin.Context, name string) int {
	value, _ := strconv.Atoi(c.Query(name))
	return value
}
