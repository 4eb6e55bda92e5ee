package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/anp-comb/app/database"
	"github.com/lysyi3m/anp-comb/app/ingest"
)

type SyncProviderConfigTask struct {
	Task
	ProviderConfig *ingest.Config
	providerRepo   database.ProviderRepository
}

func NewSyncProviderConfigTask(providerName string, providerConfig *ingest.Config, providerRepo database.ProviderRepository) *SyncProviderConfigTask {
	return &SyncProviderConfigTask{
		Task:           NewTask(TaskTypeSyncProviderConfig, providerName),
		ProviderConfig: providerConfig,
		providerRepo:   providerRepo,
	}
}

func (t *SyncProviderConfigTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := t.providerRepo.UpsertProvider(t.ProviderConfig)
	if err != nil {
		slog.Error("Task failed", "type", "SyncProviderConfig", "provider", t.ProviderName, "error", err)
		return fmt.Errorf("failed to sync provider config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncProviderConfig",
		"provider", t.ProviderName,
		"duration", t.GetDuration())

	return nil
}
