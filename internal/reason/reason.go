// Package reason derives the deterministic, one-line Japanese explanation
// attached to each ranked article (spec §4.7). It is pure string formatting
// over already-computed inputs — no LLM call, no randomness.
package reason

import (
	"fmt"
	"strings"
)

// Annotate returns the reason string for a result with similarity s,
// already-split (and trimmed) categories, and the user's top-3
// categories t, following the boundary rules in spec §4.7/§8-F in order:
//
//  1. s > 0.7            -> "あなたの関心と{pct}%マッチ"
//  2. categories ∩ t ≠ ∅ -> "よく読む「{first match}」カテゴリの記事"
//  3. s > 0.3            -> "関心に近い記事（{pct}%マッチ）"
//  4. categories ≠ ∅     -> "新しい視点: {first category}"
//  5. otherwise          -> "多様性のための提案"
func Annotate(s float64, categories []string, top []string) string {
	if s > 0.7 {
		return fmt.Sprintf("あなたの関心と%d%%マッチ", int(s*100))
	}

	if match := firstMatch(categories, top); match != "" {
		return fmt.Sprintf("よく読む「%s」カテゴリの記事", match)
	}

	if s > 0.3 {
		return fmt.Sprintf("関心に近い記事（%d%%マッチ）", int(s*100))
	}

	if len(categories) > 0 {
		return fmt.Sprintf("新しい視点: %s", categories[0])
	}

	return "多様性のための提案"
}

// firstMatch returns the first category (in categories' order) that also
// appears in top, or "" if none match.
func firstMatch(categories, top []string) string {
	topSet := make(map[string]bool, len(top))
	for _, t := range top {
		topSet[t] = true
	}
	for _, c := range categories {
		if topSet[c] {
			return c
		}
	}
	return ""
}

// SplitCategories splits a comma-joined category field into trimmed,
// non-empty labels. Spacing is normalized (trim both sides) but case is left
// untouched, since these are Japanese tags (spec §9 Open Questions).
func SplitCategories(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
