// Package csvimport turns bank CSV exports into source transactions.
//
// Banks disagree on everything: column names, date layouts, whether debits
// are signed or live in their own column. A Mapping captures those choices
// per file; DetectColumns guesses one from the header so the user mostly
// confirms instead of typing. Rows that cannot be parsed become warnings
// and the rest of the file survives.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/date"
)

// ProviderName is the registry name integrations dispatch on.
const ProviderName = "csv"

// Mapping names the CSV columns feeding each transaction field, plus how to
// read them. Date is required; either Amount or at least one of
// Debit/Credit must be set.
type Mapping struct {
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
	PostedDate  string `json:"postedDate,omitempty"`

	// DateFormat is a named layout (YYYY-MM-DD, MM/DD/YYYY, DD/MM/YYYY,
	// YYYY/MM/DD); empty or "auto" tries the common ones in order.
	DateFormat string `json:"dateFormat,omitempty"`
	// FlipSigns negates every amount, for exports that report spending as
	// positive.
	FlipSigns bool `json:"flipSigns,omitempty"`
	// DebitNegative negates positive debit-column values, for the
	// unsigned debit/credit convention.
	DebitNegative bool `json:"debitNegative,omitempty"`
}

func (m Mapping) validate() error {
	if m.Date == "" {
		return &treeline.MalformedDataError{Reason: "column mapping needs a date column"}
	}
	if m.Amount == "" && m.Debit == "" && m.Credit == "" {
		return &treeline.MalformedDataError{Reason: "column mapping needs an amount column, or debit/credit columns"}
	}
	return nil
}

// Parse reads the whole file into a FetchResult for one target account.
// account supplies the identity (native id, display name); Parse fills in
// its transactions and collects per-row problems as warnings.
func Parse(r io.Reader, m Mapping, account treeline.SourceAccount) (*treeline.FetchResult, error) {
	rows, warnings, err := parseRows(r, m, -1)
	if err != nil {
		return nil, err
	}
	account.Transactions = rows
	return &treeline.FetchResult{Accounts: []treeline.SourceAccount{account}, Warnings: warnings}, nil
}

// Preview parses at most n rows, for showing the user what an import would
// do before committing to it.
func Preview(r io.Reader, m Mapping, n int) ([]treeline.SourceTransaction, error) {
	rows, _, err := parseRows(r, m, n)
	return rows, err
}

func parseRows(r io.Reader, m Mapping, limit int) ([]treeline.SourceTransaction, []string, error) {
	if err := m.validate(); err != nil {
		return nil, nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, &treeline.MalformedDataError{Reason: "csv has no header row", Err: err}
	}
	cols, err := resolveColumns(header, m)
	if err != nil {
		return nil, nil, err
	}

	var rows []treeline.SourceTransaction
	var warnings []string
	line := 1
	for limit < 0 || len(rows) < limit {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		src, err := parseRow(record, cols, m)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		rows = append(rows, src)
	}
	return rows, warnings, nil
}

// columns holds the resolved header index of each mapped column; -1 means
// the field is unmapped.
type columns struct {
	date, description, amount, debit, credit, posted int
}

func resolveColumns(header []string, m Mapping) (columns, error) {
	find := func(name string) (int, error) {
		if name == "" {
			return -1, nil
		}
		for i, h := range header {
			if strings.TrimSpace(h) == strings.TrimSpace(name) {
				return i, nil
			}
		}
		return -1, &treeline.MalformedDataError{
			Reason: fmt.Sprintf("mapped column %q not in header %v", name, header)}
	}

	var cols columns
	var err error
	if cols.date, err = find(m.Date); err != nil {
		return cols, err
	}
	if cols.description, err = find(m.Description); err != nil {
		return cols, err
	}
	if cols.amount, err = find(m.Amount); err != nil {
		return cols, err
	}
	if cols.debit, err = find(m.Debit); err != nil {
		return cols, err
	}
	if cols.credit, err = find(m.Credit); err != nil {
		return cols, err
	}
	if cols.posted, err = find(m.PostedDate); err != nil {
		return cols, err
	}
	return cols, nil
}

func parseRow(record []string, cols columns, m Mapping) (treeline.SourceTransaction, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	dateStr := cell(cols.date)
	if dateStr == "" {
		return treeline.SourceTransaction{}, errors.New("missing date")
	}
	day, err := parseDate(dateStr, m.DateFormat)
	if err != nil {
		return treeline.SourceTransaction{}, err
	}

	posted := day
	if postedStr := cell(cols.posted); postedStr != "" {
		// an unreadable posted date falls back to the transaction date
		if p, err := parseDate(postedStr, m.DateFormat); err == nil {
			posted = p
		}
	}

	amount, err := rowAmount(cell, cols, m)
	if err != nil {
		return treeline.SourceTransaction{}, err
	}
	if m.FlipSigns {
		amount = amount.Neg()
	}

	return treeline.SourceTransaction{
		Amount:      treeline.M(amount, ""),
		Description: CleanDescription(cell(cols.description)),
		Date:        day,
		Posted:      posted,
	}, nil
}

func rowAmount(cell func(int) string, cols columns, m Mapping) (decimal.Decimal, error) {
	if cols.amount >= 0 {
		s := cell(cols.amount)
		if s == "" {
			return decimal.Decimal{}, errors.New("missing amount")
		}
		d, err := ParseAmount(s)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("unparseable amount %q", s)
		}
		return d, nil
	}

	debitStr, creditStr := cell(cols.debit), cell(cols.credit)
	if debitStr == "" && creditStr == "" {
		return decimal.Decimal{}, errors.New("both debit and credit are empty")
	}
	debit, debitErr := ParseAmount(debitStr)
	credit, creditErr := ParseAmount(creditStr)
	hasDebit := debitStr != "" && debitErr == nil
	hasCredit := creditStr != "" && creditErr == nil

	switch {
	case hasDebit && hasCredit:
		// both filled is unusual; keep whichever moves more money
		if debit.Abs().GreaterThan(credit.Abs()) {
			return debit, nil
		}
		return credit, nil
	case hasDebit:
		if m.DebitNegative && debit.IsPositive() {
			return debit.Neg(), nil
		}
		return debit, nil
	case hasCredit:
		return credit, nil
	}
	return decimal.Decimal{}, fmt.Errorf("unparseable debit/credit %q/%q", debitStr, creditStr)
}

// autoLayouts are the date layouts tried in order when no format is named.
// Ambiguous files (is 01/02 January 2nd or February 1st?) should name one.
var autoLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"01-02-2006",
	"02-01-2006",
}

var namedLayouts = map[string]string{
	"YYYY-MM-DD": "2006-01-02",
	"MM/DD/YYYY": "01/02/2006",
	"DD/MM/YYYY": "02/01/2006",
	"YYYY/MM/DD": "2006/01/02",
}

func parseDate(s, format string) (date.Date, error) {
	layouts := autoLayouts
	if format != "" && format != "auto" {
		layout, ok := namedLayouts[format]
		if !ok {
			return date.Date{}, fmt.Errorf("unknown date format %q", format)
		}
		layouts = []string{layout}
	}
	for _, layout := range layouts {
		if d, err := date.ParseLayout(layout, s); err == nil {
			return d, nil
		}
	}
	return date.Date{}, fmt.Errorf("unparseable date %q", s)
}

// ParseAmount reads a CSV money cell: currency symbols, thousands commas
// and spaces are stripped, and accounting parentheses mean negative.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + cleaned[1:len(cleaned)-1]
	}
	return decimal.NewFromString(cleaned)
}

var (
	nullWord  = regexp.MustCompile(`(?i)\bnull\b`)
	cardMask  = regexp.MustCompile(`(?i)x{10,}\d+`)
	spaceRuns = regexp.MustCompile(`\s+`)
)

// CleanDescription strips common CSV noise: literal "null" strings, masked
// card numbers (XXXXXXXXXXXX1234), and whitespace runs.
func CleanDescription(s string) string {
	if s == "" {
		return ""
	}
	s = nullWord.ReplaceAllString(s, "")
	s = cardMask.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
}
