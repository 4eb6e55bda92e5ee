package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/anp-comb/app/cfg"
	"github.com/lysyi3m/anp-comb/app/database"
	"github.com/lysyi3m/anp-comb/app/ingest"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	providerRepo database.ProviderRepository
	cursorRepo   database.CursorRepository
	itemRepo     database.ItemRepository
	configCache  *ingest.ConfigCache
	interval     time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface

	inFlightMu sync.Mutex
	inFlight   map[string]bool
}

func NewScheduler(configCache *ingest.ConfigCache, providerRepo database.ProviderRepository,
	cursorRepo database.CursorRepository, itemRepo database.ItemRepository) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		providerRepo: providerRepo,
		cursorRepo:   cursorRepo,
		itemRepo:     itemRepo,
		configCache:  configCache,
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:  cfg.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
		inFlight:     make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueIngest queues an ingestion run for one provider. A provider with a
// run already queued or executing is skipped, so runs for the same provider
// never overlap.
func (s *Scheduler) EnqueueIngest(providerName string) error {
	providerConfig, err := s.configCache.GetConfig(providerName)
	if err != nil {
		return err
	}

	if !s.tryAcquire(providerName) {
		slog.Debug("Provider ingestion already in flight, skipping", "provider", providerName)
		return nil
	}

	task := NewIngestProviderTask(providerName, providerConfig, s.providerRepo, s.cursorRepo, s.itemRepo)
	if err := s.EnqueueTask(task); err != nil {
		s.release(providerName)
		return err
	}

	return nil
}

func (s *Scheduler) enqueueStartupTasks() {
	providerConfigs := s.configCache.GetConfigs()
	if len(providerConfigs) == 0 {
		slog.Debug("No provider configurations found")
		return
	}

	slog.Debug("Processing provider configurations", "count", len(providerConfigs))

	for _, providerConfig := range providerConfigs {
		syncTask := NewSyncProviderConfigTask(providerConfig.Name, providerConfig, s.providerRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncProviderConfigTask", "provider", providerConfig.Name, "error", err)
			continue
		}

		if !providerConfig.Settings.Enabled {
			slog.Debug("Provider disabled, skipping IngestProviderTask", "provider", providerConfig.Name)
			continue
		}

		if err := s.EnqueueIngest(providerConfig.Name); err != nil {
			slog.Warn("Failed to enqueue IngestProviderTask", "provider", providerConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	providerConfigs := s.configCache.GetEnabledConfigs()
	if len(providerConfigs) == 0 {
		slog.Debug("No enabled provider configurations found")
		return
	}

	slog.Debug("Processing enabled provider configurations for task scheduling", "count", len(providerConfigs))

	for _, providerConfig := range providerConfigs {
		provider, err := s.providerRepo.GetProvider(providerConfig.Name)
		if err != nil {
			slog.Warn("Failed to get provider from database, skipping", "provider", providerConfig.Name, "error", err)
			continue
		}
		if provider == nil {
			slog.Warn("Provider not found in database, skipping", "provider", providerConfig.Name)
			continue
		}

		now := time.Now().UTC()
		scheduleInterval := time.Duration(providerConfig.Settings.ScheduleInterval) * time.Second
		if provider.LastUpdated != nil && now.Sub(*provider.LastUpdated) < scheduleInterval {
			slog.Debug("Provider not due for ingestion yet", "provider", providerConfig.Name, "last_updated", provider.LastUpdated)
			continue
		}

		if err := s.EnqueueIngest(providerConfig.Name); err != nil {
			slog.Warn("Failed to enqueue IngestProviderTask", "provider", providerConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) tryAcquire(providerName string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()

	if s.inFlight[providerName] {
		return false
	}
	s.inFlight[providerName] = true
	return true
}

func (s *Scheduler) release(providerName string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()

	delete(s.inFlight, providerName)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err == nil {
		s.finishTask(task)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if task.CanRetry() {
		task.IncrementRetryCount()
		retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}

		slog.Warn("Task retry scheduled", "type", string(task.GetType()), "provider", task.GetProviderName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

		go func() {
			time.Sleep(retryDelay)
			select {
			case <-s.ctx.Done():
				slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
				s.finishTask(task)
				return
			default:
				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					s.finishTask(task)
				}
			}
		}()
	} else {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		s.finishTask(task)
	}
}

// finishTask releases the per-provider guard once an ingest task leaves the
// queue for good
func (s *Scheduler) finishTask(task TaskInterface) {
	if task.GetType() == TaskTypeIngestProvider {
		s.release(task.GetProviderName())
	}
}
