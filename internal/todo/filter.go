package todo

import "fmt"

// FilterMode selects which items a view displays. It is transient UI state,
// never persisted.
type FilterMode int

const (
	// FilterAll displays every item.
	FilterAll FilterMode = iota
	// FilterActive displays items that are not completed.
	FilterActive
	// FilterCompleted displays items that are completed.
	FilterCompleted
)

// String returns the wire/URL form of the mode.
func (m FilterMode) String() string {
	switch m {
	case FilterAll:
		return "all"
	case FilterActive:
		return "active"
	case FilterCompleted:
		return "completed"
	default:
		return fmt.Sprintf("FilterMode(%d)", int(m))
	}
}

// ParseFilterMode parses the wire/URL form of a filter mode.
// The empty string parses as FilterAll so that a bare list URL works.
func ParseFilterMode(s string) (FilterMode, error) {
	switch s {
	case "", "all":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "completed":
		return FilterCompleted, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter mode %q", s)
	}
}

// Visible returns the subset of snapshot selected by mode.
//
// The input is never mutated and its order is preserved: snapshots arrive
// ordered by CreatedSeq descending and Visible keeps that order. For
// FilterAll the result is a copy, not an alias, so callers may retain it
// across snapshot replacements.
func Visible(snapshot []Item, mode FilterMode) []Item {
	out := make([]Item, 0, len(snapshot))
	for _, it := range snapshot {
		switch mode {
		case FilterActive:
			if it.Completed {
				continue
			}
		case FilterCompleted:
			if !it.Completed {
				continue
			}
		}
		out = append(out, it)
	}
	return out
}
