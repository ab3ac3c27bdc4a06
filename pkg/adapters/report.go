package adapters

import (
	"github.com/de-tools/ad-atlas/pkg/models/api"
	"github.com/de-tools/ad-atlas/pkg/models/store"
)

func MapStoreRunToAPISummary(run store.Run) api.RunSummary {
	return api.RunSummary{
		ID:          run.ID,
		GeneratedAt: run.GeneratedAt,
	}
}
