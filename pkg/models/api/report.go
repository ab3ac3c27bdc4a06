package api

import "time"

// RunSummary lists a finalized run without its payload.
type RunSummary struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
}

type Error struct {
	Message string `json:"message"`
}
