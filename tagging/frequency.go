package tagging

import (
	"context"
	"fmt"
	"sort"

	treeline "github.com/zack-schrag/treeline-money-sub002"
)

// TagCounter is the slice of the store the frequency suggester reads.
type TagCounter interface {
	TagCounts(ctx context.Context) (map[string]int, error)
}

// Frequency suggests the tags used most often across the whole store. It
// knows nothing about the transaction beyond which tags it already has, so
// it works from the first tagged row onward.
type Frequency struct {
	counts TagCounter
}

var _ Suggester = (*Frequency)(nil)

// NewFrequency builds a frequency suggester over the given counts source,
// usually the store itself.
func NewFrequency(counts TagCounter) *Frequency {
	return &Frequency{counts: counts}
}

// Suggest implements Suggester: most-used tags first, ties broken
// alphabetically so runs are reproducible.
func (f *Frequency) Suggest(ctx context.Context, tx treeline.Transaction, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	stats, err := f.counts.TagCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("tag counts: %w", err)
	}

	ranked := make([]string, 0, len(stats))
	for tag := range stats {
		ranked = append(ranked, tag)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if stats[ranked[i]] != stats[ranked[j]] {
			return stats[ranked[i]] > stats[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	return filterCurrent(ranked, tx, limit), nil
}
