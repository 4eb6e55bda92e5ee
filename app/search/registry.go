package search

import (
	"fmt"
	"sort"
	"sync"
)

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Provider)
)

// RegisterProvider makes a search provider available under a name.
func RegisterProvider(name string, provider Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()

	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("search provider '%s' registered twice", name))
	}
	providers[name] = provider
}

func GetProvider(name string) (Provider, error) {
	providersMu.RLock()
	defer providersMu.RUnlock()

	provider, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("search provider '%s' not found", name)
	}
	return provider, nil
}

func RegisteredProviders() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
