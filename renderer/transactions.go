package renderer

// TransactionRow is one pre-formatted line of the transaction listing.
type TransactionRow struct {
	Day         string
	Account     string
	Description string
	Amount      string
	Tags        string
	ID          string
}

// RenderTransactions renders a transaction listing to markdown.
func RenderTransactions(rows []TransactionRow) string {
	data := struct{ Rows []TransactionRow }{Rows: rows}
	return renderTemplate("transactions", "transactions.md", nil, data)
}
