package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/anp-comb/app/database"
	"github.com/lysyi3m/anp-comb/app/ingest"
)

type IngestProviderTask struct {
	Task
	ProviderConfig *ingest.Config
	providerRepo   database.ProviderRepository
	cursorRepo     database.CursorRepository
	itemRepo       database.ItemRepository
}

func NewIngestProviderTask(providerName string, providerConfig *ingest.Config,
	providerRepo database.ProviderRepository, cursorRepo database.CursorRepository,
	itemRepo database.ItemRepository) *IngestProviderTask {
	return &IngestProviderTask{
		Task:           NewTask(TaskTypeIngestProvider, providerName),
		ProviderConfig: providerConfig,
		providerRepo:   providerRepo,
		cursorRepo:     cursorRepo,
		itemRepo:       itemRepo,
	}
}

func (t *IngestProviderTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.ProviderConfig.Settings.Enabled {
		slog.Debug("Provider disabled, skipping", "provider", t.ProviderName)
		return nil
	}

	provider, err := t.providerRepo.GetProvider(t.ProviderName)
	if err != nil {
		return fmt.Errorf("failed to get provider: %w", err)
	}
	if provider == nil {
		return fmt.Errorf("provider '%s' not registered in database", t.ProviderName)
	}

	service, err := ingest.NewFeedingService(t.ProviderConfig)
	if err != nil {
		return err
	}

	state, err := t.cursorRepo.GetCursors(provider.ID)
	if err != nil {
		return fmt.Errorf("failed to load cursors: %w", err)
	}

	items, updateErr := service.Update(ctx, t.ProviderConfig, state)

	// Bookmarks advance as items are fetched, so they are persisted even
	// when the run failed partway through.
	if err := t.cursorRepo.SaveCursors(provider.ID, state); err != nil {
		return fmt.Errorf("failed to save cursors: %w", err)
	}

	storedCount := 0
	for i := range items {
		if err := t.itemRepo.StoreItem(provider.ID, items[i]); err != nil {
			return fmt.Errorf("failed to store item %s: %w", items[i].GUID, err)
		}
		storedCount++
	}

	if err := t.providerRepo.UpdateProviderRun(t.ProviderName, time.Now().UTC(), storedCount > 0); err != nil {
		return fmt.Errorf("failed to update provider run: %w", err)
	}

	if updateErr != nil {
		slog.Error("Task failed", "type", "IngestProvider", "provider", t.ProviderName, "stored", storedCount, "error", updateErr)
		return fmt.Errorf("failed to update provider: %w", updateErr)
	}

	slog.Info("Task completed",
		"type", "IngestProvider",
		"provider", t.ProviderName,
		"stored", storedCount,
		"duration", t.GetDuration())

	return nil
}
