package feed

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// FilterFields lists the item fields a filter rule may match against.
var FilterFields = []string{"title", "summary", "content", "authors", "link", "tags"}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run marks every item as filtered or visible. Items are returned in order
// and none are dropped.
func (f *Filterer) Run(items []Item, feedConfig *Config) []Item {
	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		item.IsFiltered, item.FilterReason = f.applyFilters(item, feedConfig.Filters)
		filtered = append(filtered, item)
	}

	return filtered
}

func (f *Filterer) applyFilters(item Item, filters []ConfigFilter) (bool, string) {
	// Caser is stateful, one per call keeps Run safe for concurrent tasks
	fold := cases.Fold()

	for _, filter := range filters {
		value := fold.String(f.getFieldValue(item, filter.Field))

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(fold, value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(fold, value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(fold cases.Caser, foldedValue, pattern string) bool {
	return strings.Contains(foldedValue, fold.String(pattern))
}

func (f *Filterer) getFieldValue(item Item, field string) string {
	switch field {
	case "title":
		return item.Title
	case "summary":
		return item.Summary
	case "content":
		return item.Content
	case "authors":
		return strings.Join(item.Authors, " ")
	case "link":
		return item.Link
	case "tags":
		return strings.Join(item.Categories, " ")
	default:
		return ""
	}
}
