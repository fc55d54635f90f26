// Package grouping implements near-duplicate grouping over a ranked article
// list (spec §4.6): a deterministic, greedy pass seeded one representative
// at a time. Every later article is compared only against the open group's
// representative, never against articles already absorbed into it — so
// every non-representative member has cosine similarity >= tau with its
// representative (spec §8 property 5). It is NOT connected-component
// clustering and must not be "upgraded" to one.
package grouping

import (
	"newsengine/internal/core"
	"newsengine/internal/vectormath"
)

// DefaultThreshold is τ, the default cosine cutoff above which two articles
// are treated as near-duplicates.
const DefaultThreshold = 0.85

// Group partitions articles into near-duplicate groups in a single forward
// pass. Iterating in input order, the first unvisited article opens a new
// group as its representative. Every later unvisited article is absorbed
// into the open group if its cosine similarity to the representative (and
// only the representative — never to another absorbed member) is >= tau.
// Articles without an embedding form singleton groups.
func Group(articles []core.Article, tau float64) []core.ArticleGroup {
	visited := make([]bool, len(articles))
	var groups []core.ArticleGroup

	for i := range articles {
		if visited[i] {
			continue
		}
		visited[i] = true
		rep := articles[i]
		group := core.ArticleGroup{Representative: rep}

		if rep.HasEmbedding() {
			for j := i + 1; j < len(articles); j++ {
				if visited[j] {
					continue
				}
				other := articles[j]
				if !other.HasEmbedding() {
					continue
				}
				if vectormath.Cosine(rep.Embedding, other.Embedding) >= tau {
					visited[j] = true
					group.Related = append(group.Related, other)
				}
			}
		}

		groups = append(groups, group)
	}

	return groups
}
