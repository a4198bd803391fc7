package csvimport

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strings"
)

var (
	datePatterns   = []string{"date", "transaction date", "trans date", "txn date", "txndate", "posted", "post date", "dt"}
	descPatterns   = []string{"description", "desc", "memo", "payee", "merchant", "details", "narration"}
	amountPatterns = []string{"amount", "amt", "total", "transaction amount"}
	debitPatterns  = []string{"debit", "dr", "withdrawal", "debit amount"}
	creditPatterns = []string{"credit", "cr", "deposit", "credit amount"}
	postedPatterns = []string{"posted", "post date", "settlement"}
	// when nothing looks like a description, settle for these
	descFallbacks = []string{"name", "type", "ref", "reference", "category"}

	currencySuffix = regexp.MustCompile(`\s+(usd|eur|gbp|cad|aud)$`)
)

// matchesAny reports whether the lowercased header matches a pattern.
// Two-letter abbreviations (dr, cr, dt) must match the whole header, or
// "address" would read as a debit column.
func matchesAny(header string, patterns []string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, p := range patterns {
		if len(p) < 3 {
			if h == p {
				return true
			}
			continue
		}
		if strings.Contains(h, p) {
			return true
		}
	}
	return false
}

func firstMatch(header []string, patterns []string, skip string) string {
	for _, h := range header {
		if h == skip {
			continue
		}
		if matchesAny(h, patterns) {
			return h
		}
	}
	return ""
}

// DetectColumns guesses a Mapping from the header row. The guess prefers a
// single amount column over a debit/credit pair and never claims the date
// column for anything else. Fields it cannot place stay empty for the user
// to fill in.
func DetectColumns(header []string) Mapping {
	var m Mapping

	m.Date = firstMatch(header, datePatterns, "")

	for _, h := range header {
		cleaned := currencySuffix.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), "")
		if matchesAny(cleaned, amountPatterns) {
			m.Amount = h
			break
		}
	}
	if m.Amount == "" {
		m.Debit = firstMatch(header, debitPatterns, m.Date)
		m.Credit = firstMatch(header, creditPatterns, m.Date)
	}

	m.Description = firstMatch(header, descPatterns, m.Date)
	if m.Description == "" {
		m.Description = firstMatch(header, descFallbacks, m.Date)
	}

	if posted := firstMatch(header, postedPatterns, m.Date); posted != "" && posted != m.Date {
		m.PostedDate = posted
	}
	return m
}

// SuggestDebitNegative samples the first rows of the file and reports
// whether the debit column looks unsigned (all positive), in which case
// DebitNegative should be turned on. Under two samples is not enough to
// call it.
func SuggestDebitNegative(r io.Reader, m Mapping) (bool, error) {
	if m.Debit == "" {
		return false, nil
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return false, err
	}
	debitCol := -1
	for i, h := range header {
		if strings.TrimSpace(h) == strings.TrimSpace(m.Debit) {
			debitCol = i
			break
		}
	}
	if debitCol < 0 {
		return false, nil
	}

	samples := 0
	for read := 0; read < 10; read++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		if debitCol >= len(record) {
			continue
		}
		s := strings.TrimSpace(record[debitCol])
		if s == "" {
			continue
		}
		d, err := ParseAmount(s)
		if err != nil {
			continue
		}
		if !d.IsPositive() {
			return false, nil
		}
		samples++
	}
	return samples >= 2, nil
}
