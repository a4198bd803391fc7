package tagging

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jbrukh/bayesian"

	treeline "github.com/zack-schrag/treeline-money-sub002"
)

// ErrInsufficientHistory means the tagged history spans fewer than two
// distinct tags, which is not enough to train a classifier on.
var ErrInsufficientHistory = errors.New("tagging: need history tagged with at least two distinct tags")

// Bayes suggests tags with a naive-Bayes TF-IDF classifier trained on the
// descriptions of already-tagged transactions. Each tag is a class; a
// transaction tagged twice trains both classes.
type Bayes struct {
	classes []bayesian.Class
	cl      *bayesian.Classifier
}

var _ Suggester = (*Bayes)(nil)

// TrainBayes builds a classifier from tagged history. Untagged rows and
// rows with blank descriptions teach nothing and are skipped.
func TrainBayes(history []treeline.Transaction) (*Bayes, error) {
	classSet := make(map[string]bool)
	for _, tx := range history {
		if len(tokens(tx.Description)) == 0 {
			continue
		}
		for _, tag := range tx.Tags {
			classSet[tag] = true
		}
	}
	if len(classSet) < 2 {
		return nil, ErrInsufficientHistory
	}

	// Classes are sorted so score indexes are stable run to run.
	classes := make([]bayesian.Class, 0, len(classSet))
	for tag := range classSet {
		classes = append(classes, bayesian.Class(tag))
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	cl := bayesian.NewClassifierTfIdf(classes...)
	for _, tx := range history {
		doc := tokens(tx.Description)
		if len(doc) == 0 {
			continue
		}
		for _, tag := range tx.Tags {
			cl.Learn(doc, bayesian.Class(tag))
		}
	}
	cl.ConvertTermsFreqToTfIdf()

	return &Bayes{classes: classes, cl: cl}, nil
}

// HistorySource is the slice of the store the trainer reads.
type HistorySource interface {
	Accounts(ctx context.Context) ([]treeline.Account, error)
	TransactionHistory(ctx context.Context, accountID string) ([]treeline.Transaction, error)
}

// TrainBayesFromStore trains on the full tagged history of every account.
func TrainBayesFromStore(ctx context.Context, src HistorySource) (*Bayes, error) {
	accounts, err := src.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	var history []treeline.Transaction
	for _, acc := range accounts {
		txs, err := src.TransactionHistory(ctx, acc.ID)
		if err != nil {
			return nil, fmt.Errorf("history of %s: %w", acc.DisplayName(), err)
		}
		history = append(history, txs...)
	}
	return TrainBayes(history)
}

// Suggest implements Suggester. Classes are ranked by log score and the
// list is cut where the score falls more than one standard deviation below
// the previous entry, so a clear winner suggests alone and a murky
// transaction yields several near-ties.
func (b *Bayes) Suggest(ctx context.Context, tx treeline.Transaction, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	terms := tokens(tx.Description)
	if len(terms) == 0 {
		return nil, nil
	}
	scores, _, _ := b.cl.LogScores(terms)

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })

	var mean, stddev float64
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	for _, s := range scores {
		stddev += (s - mean) * (s - mean)
	}
	stddev = math.Sqrt(stddev / float64(len(scores)-1))

	candidates := make([]string, 0, len(order))
	last := scores[order[0]]
	for _, pos := range order {
		if last-scores[pos] > stddev {
			break
		}
		candidates = append(candidates, string(b.classes[pos]))
		last = scores[pos]
	}
	return filterCurrent(candidates, tx, limit), nil
}
