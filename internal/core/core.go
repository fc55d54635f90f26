// Package core defines the domain types shared across the ranking engine:
// the article record the ingestion pipeline produces, the per-user state the
// engine mutates, and the result shapes returned by its operations.
package core

import "time"

// InteractionKind is the closed vocabulary of feedback events the engine
// accepts. The only string form is the database column value; everywhere
// else this is a typed enum (see internal/engine for the alpha lookup table).
type InteractionKind string

const (
	View          InteractionKind = "view"
	DeepDive      InteractionKind = "deep_dive"
	NotInterested InteractionKind = "not_interested"
)

// Valid reports whether k is one of the three recognized kinds.
func (k InteractionKind) Valid() bool {
	switch k {
	case View, DeepDive, NotInterested:
		return true
	default:
		return false
	}
}

// Article is a shared, read-only (to the engine) record of a collected item.
// ID is deterministic from Link (first 16 hex chars of SHA-256); a nil
// Embedding marks a "pending" row that similarity search must skip but that
// latest-only and random-pick views may still surface.
type Article struct {
	ID             string    `json:"id"`
	Link           string    `json:"link"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	Published      string    `json:"published"`
	Category       string    `json:"category"` // comma-joined coarse tags as emitted by the feed
	ImageURL       string    `json:"image_url"`
	Embedding      []float64 `json:"embedding,omitempty"`
	CategoryMedium string    `json:"category_medium,omitempty"`
	CategoryMinor  []string  `json:"category_minor,omitempty"`
	CollectedAt    time.Time `json:"collected_at"`
}

// HasEmbedding reports whether the article carries a usable dense vector.
func (a Article) HasEmbedding() bool {
	return len(a.Embedding) > 0
}

// UserVector is the single dense interest vector maintained per user. Its
// dimension must equal the corpus's Article embedding dimension, and it must
// never contain NaN.
type UserVector struct {
	UserID string    `json:"user_id"`
	Vector []float64 `json:"vector"`
}

// Interaction is a (user, article, kind) fact. Uniqueness is enforced on
// (UserID, ArticleID, Kind); re-upserts only refresh CreatedAt.
type Interaction struct {
	UserID    string          `json:"user_id"`
	ArticleID string          `json:"article_id"`
	Kind      InteractionKind `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}

// UserProfile is the single per-user onboarding row.
type UserProfile struct {
	UserID      string `json:"user_id"`
	Onboarded   bool   `json:"onboarded"`
	DisplayName string `json:"display_name"`
}

// HealthDetail is the hierarchical breakdown attached to a HealthSnapshot.
type HealthDetail struct {
	Major  HealthRecord `json:"major"`
	Medium HealthRecord `json:"medium"`
	Minor  HealthRecord `json:"minor"`
}

// HealthSnapshot is one upserted row per user per calendar day.
type HealthSnapshot struct {
	UserID      string       `json:"user_id"`
	ScoreDate   string       `json:"score_date"` // YYYY-MM-DD
	Diversity   int          `json:"diversity"`
	BiasRatio   float64      `json:"bias_ratio"`
	TopCategory string       `json:"top_category"`
	Detail      HealthDetail `json:"detail"`
}

// RankedArticle is an Article annotated with a similarity score and a
// human-readable reason, the wire shape rank() returns.
type RankedArticle struct {
	Article
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
}

// ArticleGroup is the output of near-duplicate grouping: a representative and
// the articles absorbed into it. Related is nil for a singleton group.
type ArticleGroup struct {
	Representative Article   `json:"representative"`
	Related        []Article `json:"related"`
}

// CategoryCount is one entry of a HealthRecord's label distribution.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// HealthRecord is the single-level diversity/bias result described in
// spec §4.8: a label distribution, its normalized entropy, and the
// dominant-label bias classification.
type HealthRecord struct {
	Distribution      []CategoryCount `json:"distribution"` // ordered by descending count
	DiversityScore    int             `json:"diversity_score"`
	DominantCategory  string          `json:"dominant_category"`
	DominantRatio     float64         `json:"dominant_ratio"`
	BiasLevel         string          `json:"bias_level"`
	MissingCategories []string        `json:"missing_categories,omitempty"` // major level only
}

// HierarchicalHealth is the {major,medium,minor,total_viewed} result of
// getHierarchicalHealth.
type HierarchicalHealth struct {
	Major       HealthRecord `json:"major"`
	Medium      HealthRecord `json:"medium"`
	Minor       HealthRecord `json:"minor"`
	TotalViewed int          `json:"total_viewed"`
}

// InteractionHistoryEntry is an Interaction enriched with the referenced
// article, substituting a "(deleted)" placeholder when the article no
// longer exists in the store (spec §7 consistency anomaly handling).
type InteractionHistoryEntry struct {
	Interaction
	Article Article `json:"article"`
	Deleted bool    `json:"deleted"`
}

// Stats is the result of getStats(): totals plus category and daily counts.
type Stats struct {
	TotalInteractions int            `json:"total_interactions"`
	ByKind            map[string]int `json:"by_kind"`
	ByCategory        map[string]int `json:"by_category"`
	ByDay             map[string]int `json:"by_day"`
}

// Feed represents an RSS/Atom feed source.
type Feed struct {
	ID           string    `json:"id"`            // Unique identifier for the feed
	URL          string    `json:"url"`           // Feed URL
	Title        string    `json:"title"`         // Feed title
	Description  string    `json:"description"`   // Feed description
	LastFetched  time.Time `json:"last_fetched"`  // Last time the feed was fetched
	LastModified string    `json:"last_modified"` // Last-Modified header from the feed
	ETag         string    `json:"etag"`          // ETag header from the feed
	Active       bool      `json:"active"`        // Whether the feed is active for polling
	ErrorCount   int       `json:"error_count"`   // Number of consecutive errors
	LastError    string    `json:"last_error"`    // Last error encountered
	DateAdded    time.Time `json:"date_added"`    // When the feed was added
}

// FeedItem represents an item discovered in an RSS/Atom feed, before it has
// been fetched, deduplicated and turned into an Article.
type FeedItem struct {
	ID             string    `json:"id"`              // Unique identifier for the feed item
	FeedID         string    `json:"feed_id"`         // ID of the parent feed
	Title          string    `json:"title"`           // Item title
	Link           string    `json:"link"`            // Item URL
	Description    string    `json:"description"`     // Item description/summary
	Category       string    `json:"category"`        // Comma-joined category tags as emitted by the feed
	Published      string    `json:"published"`       // Source-provided publication date string
	GUID           string    `json:"guid"`             // Unique identifier from the feed
	Processed      bool      `json:"processed"`        // Whether the item has been processed
	DateDiscovered time.Time `json:"date_discovered"`  // When the item was discovered
}
