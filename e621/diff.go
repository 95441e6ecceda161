package e621

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// DiffList returns the elements of this that are absent from that, preserving
// this's order. Comparison is exact equality.
func DiffList(this, that []string) []string {
	var result []string
	for _, e := range this {
		if !slices.Contains(that, e) {
			result = append(result, e)
		}
	}
	return result
}

// GenerateDifference computes the e621 "added/removed" diff string between an
// original and an updated field value.
//
// Both arguments must share a representational shape: a free-text string
// (tokenized by whitespace), a flat []string, or a map[string][]string whose
// values are flattened across keys. Mismatched shapes fail with a
// ShapeMismatchError.
//
// Added tokens are space-joined; removed tokens follow, each prefixed with
// "-". No change yields an empty string.
func GenerateDifference(original, updated any) (string, error) {
	origList, origShape, err := flattenDiffable(original)
	if err != nil {
		return "", err
	}
	updList, updShape, err := flattenDiffable(updated)
	if err != nil {
		return "", err
	}
	if origShape != updShape {
		return "", &ShapeMismatchError{Original: origShape, Updated: updShape}
	}

	added := DiffList(updList, origList)
	removed := DiffList(origList, updList)

	var b strings.Builder
	b.WriteString(strings.Join(added, " "))
	if len(removed) > 0 {
		b.WriteString(" -")
		b.WriteString(strings.Join(removed, " -"))
	}
	return strings.TrimSpace(b.String()), nil
}

// flattenDiffable normalizes one of the three supported shapes into a flat
// token list, reporting the shape name for mismatch errors.
func flattenDiffable(v any) ([]string, string, error) {
	switch t := v.(type) {
	case string:
		return strings.Fields(t), "string", nil
	case []string:
		return t, "list", nil
	case map[string][]string:
		return flattenGrouped(t), "grouped", nil
	default:
		return nil, "", &ShapeMismatchError{
			Original: fmt.Sprintf("%T", v),
			Updated:  "string, []string or map[string][]string",
		}
	}
}

// flattenGrouped concatenates group values in a deterministic key order:
// known tag categories first in their canonical order, then any remaining
// keys sorted.
func flattenGrouped(groups map[string][]string) []string {
	var flat []string
	seen := make(map[string]bool, len(groups))
	for _, k := range tagCategoryOrder {
		if v, ok := groups[k]; ok {
			flat = append(flat, v...)
			seen[k] = true
		}
	}
	var rest []string
	for k := range groups {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		flat = append(flat, groups[k]...)
	}
	return flat
}
