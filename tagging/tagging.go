// Package tagging proposes and persists transaction tags.
//
// Tags are the one mutable part of a stored transaction: sync writes them
// at insert time and never again, everything after that goes through this
// package. Two suggesters are provided, a frequency ranker that needs no
// training and a naive-Bayes classifier over description tokens that gets
// better as more history is tagged. Callers pick one (or chain them) and
// persist the user's final choice with Apply.
package tagging

import (
	"context"
	"fmt"
	"strings"

	treeline "github.com/zack-schrag/treeline-money-sub002"
)

// DefaultLimit caps suggestions when the caller passes no limit.
const DefaultLimit = 5

// Suggester proposes tags for one transaction. Tags already on the
// transaction are never suggested again.
type Suggester interface {
	Suggest(ctx context.Context, tx treeline.Transaction, limit int) ([]string, error)
}

// Normalize trims each tag, drops empties, and removes duplicates while
// keeping the first occurrence's position. Case is preserved: "Coffee" and
// "coffee" are distinct tags and conflating them is the user's call, not
// ours.
func Normalize(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// TagWriter is the slice of the store Apply writes through.
type TagWriter interface {
	UpdateTransactionTags(ctx context.Context, txID string, tags []string) error
}

// Apply replaces a transaction's tag list with the normalized form of tags.
// Passing an empty or all-blank list clears the transaction's tags.
func Apply(ctx context.Context, w TagWriter, txID string, tags []string) error {
	if err := w.UpdateTransactionTags(ctx, txID, Normalize(tags)); err != nil {
		return fmt.Errorf("update tags for %s: %w", txID, err)
	}
	return nil
}

// tokens splits a description into lower-cased words for the classifier.
func tokens(description string) []string {
	return strings.Fields(strings.ToLower(description))
}

// filterCurrent drops candidates already tagged on the transaction and caps
// the result at limit.
func filterCurrent(candidates []string, tx treeline.Transaction, limit int) []string {
	current := make(map[string]bool, len(tx.Tags))
	for _, tag := range tx.Tags {
		current[tag] = true
	}
	out := make([]string, 0, limit)
	for _, tag := range candidates {
		if current[tag] {
			continue
		}
		out = append(out, tag)
		if len(out) == limit {
			break
		}
	}
	return out
}
