package formatter

import (
	"fmt"
	"sync"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

// Formatter renders a canonical item into an output document.
type Formatter interface {
	CanFormat(formatType string) bool
	Format(item *ingest.Item) ([]byte, error)
}

var (
	formattersMu sync.RWMutex
	formatters   []Formatter
)

// RegisterFormatter makes an output formatter resolvable by format type.
func RegisterFormatter(formatter Formatter) {
	formattersMu.Lock()
	defer formattersMu.Unlock()

	formatters = append(formatters, formatter)
}

// GetFormatter returns the first registered formatter that claims the
// format type.
func GetFormatter(formatType string) (Formatter, error) {
	formattersMu.RLock()
	defer formattersMu.RUnlock()

	for _, formatter := range formatters {
		if formatter.CanFormat(formatType) {
			return formatter, nil
		}
	}
	return nil, fmt.Errorf("formatter for format type '%s' not found", formatType)
}
