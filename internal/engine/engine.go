// Package engine is the ranking engine: the stateless per-request orchestrator
// that sits between the store (internal/persistence) and a UI adapter
// (internal/server). It holds no in-process cache that requires invalidation
// and performs no internal retries — every external call is blocking I/O with
// a caller-supplied context, per spec §5.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"newsengine/internal/core"
	"newsengine/internal/grouping"
	"newsengine/internal/health"
	"newsengine/internal/logger"
	"newsengine/internal/persistence"
	"newsengine/internal/reason"
	"newsengine/internal/vectormath"
)

// alphaTable is the closed feedback-rate lookup (spec §4.5); the only string
// form of an InteractionKind is the database column value.
var alphaTable = map[core.InteractionKind]float64{
	core.View:          0.03,
	core.DeepDive:      0.15,
	core.NotInterested: -0.20,
}

const (
	// bootstrapSampleSize is the number of article embeddings averaged to
	// seed a user vector lazily (spec §4.3).
	bootstrapSampleSize = 100

	// topCategoryWindow is how many of the user's most recent positive
	// interactions feed the top-3 category computation for reason
	// annotation (spec §4.7).
	topCategoryWindow = 200

	// healthHistoryWindow bounds how many positive interactions feed
	// diversity/bias analytics (spec §4.8) — effectively "all" in practice.
	healthHistoryWindow = 5000

	// defaultHealthHistoryDays is used when getHealthHistory is called with
	// a non-positive days argument.
	defaultHealthHistoryDays = 30

	// onboardingMinCategorySample is the floor on how many articles are
	// pulled per requested onboarding category (spec §4.2).
	onboardingMinCategorySample = 3

	// randomPadding is how many extra random articles are requested beyond
	// what's strictly needed, to absorb collisions with the similarity set
	// (spec §4.4 step 3).
	randomPadding = 10
)

// Engine is the ranking engine. It is safe for concurrent use by multiple
// goroutines handling different users; it holds no per-user state itself.
type Engine struct {
	store persistence.Store
	log   *slog.Logger
}

// New builds an Engine backed by store.
func New(store persistence.Store) *Engine {
	return &Engine{store: store, log: logger.Get()}
}

// Ping checks that the underlying store is reachable, for use by an HTTP
// server's health-check endpoint.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// IsOnboarded reports whether userID has completed onboarding.
func (e *Engine) IsOnboarded(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrEmptyUserID
	}
	profile, ok, err := e.store.Profiles().Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("engine: load profile: %w", err)
	}
	if !ok {
		return false, nil
	}
	return profile.Onboarded, nil
}

// OnboardingArticles selects sample articles for onboarding voting: for each
// requested category, it pulls up to max(3, ceil(n/len(cats))) matches, then
// pads to n via the random-pick procedure, deduplicating by id (spec §4.2).
func (e *Engine) OnboardingArticles(ctx context.Context, categories []string, n int) ([]core.Article, error) {
	if n <= 0 {
		return nil, nil
	}

	denom := len(categories)
	if denom == 0 {
		denom = 1
	}
	perCategory := int(math.Ceil(float64(n) / float64(denom)))
	if perCategory < onboardingMinCategorySample {
		perCategory = onboardingMinCategorySample
	}

	seen := map[string]bool{}
	var out []core.Article

	for _, cat := range categories {
		if len(out) >= n {
			break
		}
		matches, err := e.store.Articles().SampleByCategory(ctx, cat, perCategory)
		if err != nil {
			return nil, fmt.Errorf("engine: sample category %q: %w", cat, err)
		}
		for _, a := range matches {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, a)
			if len(out) >= n {
				break
			}
		}
	}

	if len(out) < n {
		pad, err := e.store.Articles().RandomArticles(ctx, (n-len(out))+randomPadding)
		if err != nil {
			return nil, fmt.Errorf("engine: pad onboarding sample: %w", err)
		}
		for _, a := range pad {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, a)
			if len(out) >= n {
				break
			}
		}
	}

	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// CompleteOnboarding seeds userID's interest vector from liked/disliked
// sample votes and marks the profile onboarded (spec §4.2). Re-running it
// for an already-onboarded user is allowed and re-seeds the vector — spec.md
// does not forbid it (see DESIGN.md Open Question decisions).
func (e *Engine) CompleteOnboarding(ctx context.Context, userID string, likedIDs, dislikedIDs []string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if len(likedIDs)+len(dislikedIDs) < 3 {
		return ErrInsufficientVotes
	}

	liked, err := e.store.Articles().GetMany(ctx, likedIDs)
	if err != nil {
		return fmt.Errorf("engine: load liked articles: %w", err)
	}
	likedVecs := embeddingsOf(liked)
	if len(likedVecs) == 0 {
		return ErrNoUsableEmbeddings
	}
	muPlus := vectormath.Mean(likedVecs)

	seed := muPlus
	if len(dislikedIDs) > 0 {
		disliked, err := e.store.Articles().GetMany(ctx, dislikedIDs)
		if err != nil {
			return fmt.Errorf("engine: load disliked articles: %w", err)
		}
		if dislikedVecs := embeddingsOf(disliked); len(dislikedVecs) > 0 {
			muMinus := vectormath.Mean(dislikedVecs)
			prelim := vectormath.Sub(muPlus, vectormath.Scale(muMinus, 0.3))
			seed = vectormath.RescaleToNorm(prelim, vectormath.Norm(muPlus))
		}
	}

	if err := e.validateDimension(ctx, seed); err != nil {
		return err
	}
	if err := e.store.UserVectors().Upsert(ctx, core.UserVector{UserID: userID, Vector: seed}); err != nil {
		return fmt.Errorf("engine: persist user vector: %w", err)
	}

	profile, _, err := e.store.Profiles().Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("engine: load profile: %w", err)
	}
	profile.UserID = userID
	profile.Onboarded = true
	if err := e.store.Profiles().Upsert(ctx, profile); err != nil {
		return fmt.Errorf("engine: persist profile: %w", err)
	}
	return nil
}

func embeddingsOf(articles []core.Article) [][]float64 {
	var out [][]float64
	for _, a := range articles {
		if a.HasEmbedding() {
			out = append(out, a.Embedding)
		}
	}
	return out
}

// ensureUserVector returns the user's vector, lazily initializing it from the
// mean of the first bootstrapSampleSize article embeddings if absent (spec
// §4.3). ok is false only when the corpus has no embeddings at all, in which
// case the caller must fall back to a latest-only view.
func (e *Engine) ensureUserVector(ctx context.Context, userID string) (core.UserVector, bool, error) {
	uv, found, err := e.store.UserVectors().Get(ctx, userID)
	if err != nil {
		return core.UserVector{}, false, fmt.Errorf("engine: load user vector: %w", err)
	}
	if found {
		return uv, true, nil
	}

	seedArticles, err := e.store.Articles().FirstN(ctx, bootstrapSampleSize)
	if err != nil {
		return core.UserVector{}, false, fmt.Errorf("engine: load bootstrap sample: %w", err)
	}
	if len(seedArticles) == 0 {
		return core.UserVector{}, false, nil
	}

	uv = core.UserVector{UserID: userID, Vector: vectormath.Mean(embeddingsOf(seedArticles))}
	if err := e.store.UserVectors().Upsert(ctx, uv); err != nil {
		return core.UserVector{}, false, fmt.Errorf("engine: persist bootstrap vector: %w", err)
	}
	return uv, true, nil
}

// Rank returns up to topN annotated articles blending similarity and random
// exploration per filterStrength (spec §4.4).
func (e *Engine) Rank(ctx context.Context, userID string, filterStrength float64, topN int) ([]core.RankedArticle, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if filterStrength < 0 || filterStrength > 1 {
		return nil, ErrFilterStrengthOutOfRange
	}
	if topN < 1 {
		return nil, ErrTopNOutOfRange
	}

	top3, err := e.topCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	uv, haveVector, err := e.ensureUserVector(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !haveVector {
		latest, err := e.store.Articles().Latest(ctx, topN)
		if err != nil {
			return nil, fmt.Errorf("engine: latest-only fallback: %w", err)
		}
		return e.annotateAll(latest, 0, top3), nil
	}

	kSim := int(math.Floor(float64(topN) * filterStrength))
	if kSim < 1 {
		kSim = 1
	}
	if kSim > topN {
		kSim = topN
	}
	kRand := topN - kSim

	result := make([]core.RankedArticle, 0, topN)
	seen := map[string]bool{}

	simArticles, sims, err := e.store.Articles().MatchArticles(ctx, uv.Vector, kSim)
	if err != nil {
		return nil, fmt.Errorf("engine: similarity retrieval: %w", err)
	}
	for i, a := range simArticles {
		if seen[a.ID] || len(result) >= topN {
			continue
		}
		seen[a.ID] = true
		s := 0.0
		if i < len(sims) {
			s = sims[i]
		}
		result = append(result, e.annotate(a, s, top3))
	}

	if kRand > 0 && len(result) < topN {
		randArticles, err := e.store.Articles().RandomArticles(ctx, kRand+randomPadding)
		if err != nil {
			return nil, fmt.Errorf("engine: random retrieval: %w", err)
		}
		for _, a := range randArticles {
			if seen[a.ID] || len(result) >= topN {
				continue
			}
			seen[a.ID] = true
			result = append(result, e.annotate(a, 0, top3))
		}
	}

	return result, nil
}

func (e *Engine) annotate(a core.Article, similarity float64, top3 []string) core.RankedArticle {
	cats := reason.SplitCategories(a.Category)
	return core.RankedArticle{
		Article:    a,
		Similarity: similarity,
		Reason:     reason.Annotate(similarity, cats, top3),
	}
}

func (e *Engine) annotateAll(articles []core.Article, similarity float64, top3 []string) []core.RankedArticle {
	out := make([]core.RankedArticle, 0, len(articles))
	for _, a := range articles {
		out = append(out, e.annotate(a, similarity, top3))
	}
	return out
}

// topCategories computes the user's top-3 major categories from their last
// topCategoryWindow positive interactions (spec §4.7), most-frequent first.
func (e *Engine) topCategories(ctx context.Context, userID string) ([]string, error) {
	articles, err := e.loadPositiveArticles(ctx, userID, topCategoryWindow)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	var order []string
	for _, a := range articles {
		for _, c := range reason.SplitCategories(a.Category) {
			if _, ok := counts[c]; !ok {
				order = append(order, c)
			}
			counts[c]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > 3 {
		order = order[:3]
	}
	return order, nil
}

// loadPositiveArticles resolves a user's most recent positive interactions
// (View, DeepDive) to the articles they reference, preserving repeats —
// an article interacted with twice contributes its labels twice to
// diversity/bias analytics (spec §4.8).
func (e *Engine) loadPositiveArticles(ctx context.Context, userID string, limit int) ([]core.Article, error) {
	interactions, err := e.store.Interactions().Positive(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("engine: load positive interactions: %w", err)
	}
	if len(interactions) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(interactions))
	seen := map[string]bool{}
	for _, in := range interactions {
		if !seen[in.ArticleID] {
			seen[in.ArticleID] = true
			ids = append(ids, in.ArticleID)
		}
	}

	articles, err := e.store.Articles().GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("engine: load interacted articles: %w", err)
	}
	byID := make(map[string]core.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}

	out := make([]core.Article, 0, len(interactions))
	for _, in := range interactions {
		if a, ok := byID[in.ArticleID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// RecordView records a "view" interaction and weakly nudges the user vector.
func (e *Engine) RecordView(ctx context.Context, userID, articleID string) error {
	return e.recordFeedback(ctx, userID, articleID, core.View)
}

// RecordDeepDive records a "deep_dive" interaction and strongly nudges the
// user vector toward the article.
func (e *Engine) RecordDeepDive(ctx context.Context, userID, articleID string) error {
	return e.recordFeedback(ctx, userID, articleID, core.DeepDive)
}

// RecordNotInterested records a "not_interested" interaction and pushes the
// user vector away from the article, preserving its prior magnitude.
func (e *Engine) RecordNotInterested(ctx context.Context, userID, articleID string) error {
	return e.recordFeedback(ctx, userID, articleID, core.NotInterested)
}

// recordFeedback implements spec §4.5. The interaction is durably recorded
// first; if the subsequent vector update fails, the error is returned to the
// caller but the interaction row stands (spec §7 propagation).
func (e *Engine) recordFeedback(ctx context.Context, userID, articleID string, kind core.InteractionKind) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if !kind.Valid() {
		return fmt.Errorf("engine: invalid interaction kind %q", kind)
	}

	in := core.Interaction{UserID: userID, ArticleID: articleID, Kind: kind, CreatedAt: time.Now().UTC()}
	if err := e.store.Interactions().Upsert(ctx, in); err != nil {
		return fmt.Errorf("engine: record interaction: %w", err)
	}

	article, found, err := e.store.Articles().Get(ctx, articleID)
	if err != nil {
		return fmt.Errorf("engine: load article: %w", err)
	}
	if !found || !article.HasEmbedding() {
		// Consistency anomaly / pending embedding: the interaction is
		// already durable; there is simply nothing to nudge the vector
		// toward (spec §7).
		return nil
	}
	v := article.Embedding

	alpha := alphaTable[kind]
	uv, hasVector, err := e.store.UserVectors().Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("engine: load user vector: %w", err)
	}

	var next []float64
	switch {
	case !hasVector && alpha > 0:
		next = append([]float64(nil), v...)
	case !hasVector:
		return nil
	case alpha >= 0:
		next = vectormath.Add(vectormath.Scale(uv.Vector, 1-alpha), vectormath.Scale(v, alpha))
	default:
		s := -alpha
		priorNorm := vectormath.Norm(uv.Vector)
		shifted := vectormath.Sub(vectormath.Scale(uv.Vector, 1+s), vectormath.Scale(v, s))
		next = vectormath.RescaleToNorm(shifted, priorNorm)
	}

	if err := e.validateDimension(ctx, next); err != nil {
		return err
	}
	if err := e.store.UserVectors().Upsert(ctx, core.UserVector{UserID: userID, Vector: next}); err != nil {
		return fmt.Errorf("engine: persist user vector: %w", err)
	}
	return nil
}

// validateDimension rejects a vector whose length disagrees with the
// corpus's fixed embedding dimension (spec §7 "Invalid input"). A corpus with
// no embeddings yet (dim == 0) has nothing to validate against.
func (e *Engine) validateDimension(ctx context.Context, v []float64) error {
	dim, err := e.store.Articles().EmbeddingDimension(ctx)
	if err != nil {
		return fmt.Errorf("engine: load embedding dimension: %w", err)
	}
	if dim > 0 && len(v) != dim {
		return ErrDimensionMismatch
	}
	return nil
}

// GetInteractedIDs returns the set of article ids the user has interacted
// with under any of the given kinds.
func (e *Engine) GetInteractedIDs(ctx context.Context, userID string, kinds []core.InteractionKind) (map[string]bool, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	ids, err := e.store.Interactions().InteractedIDs(ctx, userID, kinds)
	if err != nil {
		return nil, fmt.Errorf("engine: load interacted ids: %w", err)
	}
	return ids, nil
}

// GetInteractionHistory returns the user's interaction history enriched with
// the referenced article, substituting a "(deleted)" placeholder when the
// article no longer exists in the store (spec §7 consistency anomalies).
func (e *Engine) GetInteractionHistory(ctx context.Context, userID string, kinds []core.InteractionKind, limit int) ([]core.InteractionHistoryEntry, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	interactions, err := e.store.Interactions().History(ctx, userID, kinds, limit)
	if err != nil {
		return nil, fmt.Errorf("engine: load interaction history: %w", err)
	}

	ids := make([]string, 0, len(interactions))
	seen := map[string]bool{}
	for _, in := range interactions {
		if !seen[in.ArticleID] {
			seen[in.ArticleID] = true
			ids = append(ids, in.ArticleID)
		}
	}
	articles, err := e.store.Articles().GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("engine: load history articles: %w", err)
	}
	byID := make(map[string]core.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}

	out := make([]core.InteractionHistoryEntry, 0, len(interactions))
	for _, in := range interactions {
		entry := core.InteractionHistoryEntry{Interaction: in}
		if a, ok := byID[in.ArticleID]; ok {
			entry.Article = a
		} else {
			entry.Article = core.Article{ID: in.ArticleID, Title: "(deleted)"}
			entry.Deleted = true
		}
		out = append(out, entry)
	}
	return out, nil
}

// GetStats returns the user's interaction totals plus category and daily
// breakdowns.
func (e *Engine) GetStats(ctx context.Context, userID string) (core.Stats, error) {
	if userID == "" {
		return core.Stats{}, ErrEmptyUserID
	}
	stats, err := e.store.Interactions().Stats(ctx, userID)
	if err != nil {
		return core.Stats{}, fmt.Errorf("engine: load stats: %w", err)
	}
	return stats, nil
}

// GetInfoHealth returns the major-level diversity/bias record only (spec §6
// getInfoHealth).
func (e *Engine) GetInfoHealth(ctx context.Context, userID string) (core.HealthRecord, error) {
	if userID == "" {
		return core.HealthRecord{}, ErrEmptyUserID
	}
	articles, err := e.loadPositiveArticles(ctx, userID, healthHistoryWindow)
	if err != nil {
		return core.HealthRecord{}, err
	}
	return health.Hierarchical(articles).Major, nil
}

// GetHierarchicalHealth returns the full {major,medium,minor,total_viewed}
// diversity/bias breakdown (spec §4.8, §6).
func (e *Engine) GetHierarchicalHealth(ctx context.Context, userID string) (core.HierarchicalHealth, error) {
	if userID == "" {
		return core.HierarchicalHealth{}, ErrEmptyUserID
	}
	articles, err := e.loadPositiveArticles(ctx, userID, healthHistoryWindow)
	if err != nil {
		return core.HierarchicalHealth{}, err
	}
	return health.Hierarchical(articles), nil
}

// GroupSimilarArticles partitions articles into near-duplicate groups (spec
// §4.6). tau <= 0 uses grouping.DefaultThreshold.
func (e *Engine) GroupSimilarArticles(articles []core.Article, tau float64) []core.ArticleGroup {
	if tau <= 0 {
		tau = grouping.DefaultThreshold
	}
	return grouping.Group(articles, tau)
}

// RecordHealthSnapshot computes today's diversity/bias profile and upserts it
// keyed on (user_id, today) — idempotent within a calendar day (spec §4.9).
func (e *Engine) RecordHealthSnapshot(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	articles, err := e.loadPositiveArticles(ctx, userID, healthHistoryWindow)
	if err != nil {
		return err
	}
	h := health.Hierarchical(articles)

	snapshot := core.HealthSnapshot{
		UserID:      userID,
		ScoreDate:   time.Now().UTC().Format("2006-01-02"),
		Diversity:   h.Major.DiversityScore,
		BiasRatio:   h.Major.DominantRatio,
		TopCategory: h.Major.DominantCategory,
		Detail:      core.HealthDetail{Major: h.Major, Medium: h.Medium, Minor: h.Minor},
	}
	if err := e.store.Health().Upsert(ctx, snapshot); err != nil {
		return fmt.Errorf("engine: persist health snapshot: %w", err)
	}
	return nil
}

// GetHealthHistory returns the last days health snapshots, oldest first
// (spec §4.9). A non-positive days uses defaultHealthHistoryDays.
func (e *Engine) GetHealthHistory(ctx context.Context, userID string, days int) ([]core.HealthSnapshot, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if days <= 0 {
		days = defaultHealthHistoryDays
	}

	snapshots, err := e.store.Health().History(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("engine: load health history: %w", err)
	}
	for i, j := 0, len(snapshots)-1; i < j; i, j = i+1, j-1 {
		snapshots[i], snapshots[j] = snapshots[j], snapshots[i]
	}
	return snapshots, nil
}
