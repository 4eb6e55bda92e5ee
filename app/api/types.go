package api

import (
	"github.com/lysyi3m/anp-comb/app/database"
	"github.com/lysyi3m/anp-comb/app/ingest"
	"github.com/lysyi3m/anp-comb/app/media"
	"github.com/lysyi3m/anp-comb/app/tasks"
	"github.com/lysyi3m/anp-comb/app/validate"
)

type MediaGetter interface {
	Get(mediaID string) ([]byte, error)
}

var _ MediaGetter = (*media.Service)(nil)

type Handler struct {
	providerRepo database.ProviderRepository
	itemRepo     database.ItemRepository
	configCache  *ingest.ConfigCache
	mediaStore   MediaGetter
	validateBus  *validate.Bus
	scheduler    tasks.TaskSchedulerInterface
}
