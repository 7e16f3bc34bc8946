package entities

import "time"

// RatingEntry records a single score given by a requester to a provider.
// Only the numeric score feeds the provider's running mean; entries are
// append-only and never edited.
type RatingEntry struct {
	ID          string    `json:"id" db:"id"`
	RequesterID string    `json:"requester_id" db:"requester_id"`
	ProviderID  string    `json:"provider_id" db:"provider_id"`
	Score       float64   `json:"score" db:"score"`
	Comment     string    `json:"comment" db:"comment"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RatingSummary is the provider aggregate after applying a rating
type RatingSummary struct {
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"rating_count"`
}
