package validate

import (
	"sync"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

// Rule inspects an item on publish-validation and returns blocking error
// messages.
type Rule interface {
	Validate(item *ingest.Item) ([]string, error)
}

// Bus fans a publish-validation request out to all connected rules.
type Bus struct {
	mu    sync.RWMutex
	rules []Rule
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Connect(rule Rule) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rules = append(b.rules, rule)
}

// Validate runs every connected rule and collects their error messages. An
// empty result means the item may be published.
func (b *Bus) Validate(item *ingest.Item) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var response []string
	for _, rule := range b.rules {
		messages, err := rule.Validate(item)
		if err != nil {
			return nil, err
		}
		response = append(response, messages...)
	}

	return response, nil
}
