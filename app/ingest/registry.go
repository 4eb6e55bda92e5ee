package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// FeedingService retrieves new items from a vendor for one provider. Update
// mutates state in place as it advances per-source bookmarks, so the caller
// sees every advance even when the run fails partway through.
type FeedingService interface {
	Update(ctx context.Context, provider *Config, state CursorState) ([]Item, error)
}

// NewFeedingServiceFunc constructs a feeding service bound to one provider.
type NewFeedingServiceFunc func(provider *Config) FeedingService

var (
	feedingServicesMu sync.RWMutex
	feedingServices   = make(map[string]NewFeedingServiceFunc)
)

// RegisterFeedingService makes a feeding service kind available to provider
// configurations. Called from main wiring, so constructors can close over
// repositories and services built at startup.
func RegisterFeedingService(name string, fn NewFeedingServiceFunc) {
	feedingServicesMu.Lock()
	defer feedingServicesMu.Unlock()

	if _, exists := feedingServices[name]; exists {
		panic(fmt.Sprintf("feeding service '%s' registered twice", name))
	}
	feedingServices[name] = fn
}

func NewFeedingService(provider *Config) (FeedingService, error) {
	feedingServicesMu.RLock()
	fn, ok := feedingServices[provider.FeedingService]
	feedingServicesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown feeding service: %s", provider.FeedingService)
	}
	return fn(provider), nil
}

func feedingServiceRegistered(name string) bool {
	feedingServicesMu.RLock()
	defer feedingServicesMu.RUnlock()

	_, ok := feedingServices[name]
	return ok
}

func RegisteredFeedingServices() []string {
	feedingServicesMu.RLock()
	defer feedingServicesMu.RUnlock()

	names := make([]string, 0, len(feedingServices))
	for name := range feedingServices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
