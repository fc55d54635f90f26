// Package health computes the "informational health" diversity/bias profile
// described in spec §4.8–§4.9: per-level (major/medium/minor) label
// distributions over a user's positively-interacted articles, their
// normalized-entropy diversity score, and the dominant-category bias
// classification.
package health

import (
	"math"
	"sort"
	"strings"

	"newsengine/internal/core"
	"newsengine/internal/reason"
	"newsengine/internal/taxonomy"
)

// MajorLabels splits an article's comma-joined Category field into its
// coarse labels (spacing trimmed, case untouched per spec §9).
func MajorLabels(a core.Article) []string {
	return reason.SplitCategories(a.Category)
}

// MediumLabel returns the single medium-level label for an article: its
// precomputed CategoryMedium if present, else the keyword that matched while
// scanning the title — first against the article's own declared (major)
// category's keyword list, then against every category's list in taxonomy
// order — else "その他". The returned label is the matched KEYWORD itself,
// not the category name, so medium stays a finer granularity than major.
func MediumLabel(a core.Article) string {
	if a.CategoryMedium != "" {
		return a.CategoryMedium
	}

	title := a.Title
	declared := MajorLabels(a)
	if len(declared) > 0 {
		if kws := taxonomy.KeywordsFor(declared[0]); len(kws) > 0 {
			if hit := firstKeywordHit(title, kws); hit != "" {
				return hit
			}
		}
	}

	for _, cat := range taxonomy.Categories() {
		if hit := firstKeywordHit(title, cat.Keywords); hit != "" {
			return hit
		}
	}

	return "その他"
}

func firstKeywordHit(title string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			return kw
		}
	}
	return ""
}

// MinorLabels returns the minor-level keyword list for an article: its
// precomputed CategoryMinor if present, else katakana tokens of 3+
// characters and 「…」-bracketed substrings extracted from the title, with
// blocklisted common terms dropped.
func MinorLabels(a core.Article) []string {
	if len(a.CategoryMinor) > 0 {
		return a.CategoryMinor
	}

	var out []string
	seen := map[string]bool{}
	add := func(term string) {
		term = strings.TrimSpace(term)
		if term == "" || taxonomy.IsMinorBlocklisted(term) || seen[term] {
			return
		}
		seen[term] = true
		out = append(out, term)
	}

	for _, m := range taxonomy.KatakanaTokenPattern.FindAllString(a.Title, -1) {
		add(m)
	}
	for _, m := range taxonomy.BracketedPattern.FindAllStringSubmatch(a.Title, -1) {
		if len(m) > 1 {
			add(m[1])
		}
	}

	return out
}

// Record computes the HealthRecord for a label multiset. When
// onboardingCategories is non-nil, MissingCategories is populated (major
// level only, per spec §4.8); pass nil at the medium/minor levels.
func Record(labels []string, onboardingCategories []string) core.HealthRecord {
	counts := map[string]int{}
	for _, l := range labels {
		counts[l]++
	}

	distinct := make([]string, 0, len(counts))
	for l := range counts {
		distinct = append(distinct, l)
	}

	dist := make([]core.CategoryCount, 0, len(distinct))
	for _, l := range distinct {
		dist = append(dist, core.CategoryCount{Category: l, Count: counts[l]})
	}
	sort.Slice(dist, func(i, j int) bool {
		if dist[i].Count != dist[j].Count {
			return dist[i].Count > dist[j].Count
		}
		return dist[i].Category < dist[j].Category
	})

	rec := core.HealthRecord{Distribution: dist}

	total := len(labels)
	if len(distinct) <= 1 {
		rec.DiversityScore = 0
	} else {
		var entropy float64
		for _, l := range distinct {
			p := float64(counts[l]) / float64(total)
			entropy -= p * math.Log2(p)
		}
		hmax := math.Log2(float64(len(distinct)))
		rec.DiversityScore = int(100 * entropy / hmax)
	}

	if total > 0 && len(dist) > 0 {
		rec.DominantCategory = dist[0].Category
		rec.DominantRatio = float64(dist[0].Count) / float64(total)
	}

	switch {
	case rec.DominantRatio > 0.6:
		rec.BiasLevel = "偏食（強）"
	case rec.DominantRatio > 0.4:
		rec.BiasLevel = "やや偏り"
	default:
		rec.BiasLevel = "バランス良好"
	}

	if onboardingCategories != nil {
		observed := map[string]bool{}
		for _, l := range distinct {
			observed[l] = true
		}
		for _, c := range onboardingCategories {
			if !observed[c] {
				rec.MissingCategories = append(rec.MissingCategories, c)
			}
		}
	}

	return rec
}

// Hierarchical computes the {major,medium,minor,total_viewed} result from the
// user's positively-interacted articles (spec §4.8, §6 getHierarchicalHealth).
func Hierarchical(articles []core.Article) core.HierarchicalHealth {
	var majors, mediums []string
	var minors []string

	for _, a := range articles {
		majors = append(majors, MajorLabels(a)...)
		mediums = append(mediums, MediumLabel(a))
		minors = append(minors, MinorLabels(a)...)
	}

	return core.HierarchicalHealth{
		Major:       Record(majors, taxonomy.OnboardingCategories()),
		Medium:      Record(mediums, nil),
		Minor:       Record(minors, nil),
		TotalViewed: len(articles),
	}
}
