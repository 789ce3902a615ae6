package domain

// TransactionType distinguishes balance adjustments. The sign of the
// effect on the account balance is implied by the type; Amount is
// always stored positive.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// Transaction is a deposit into or withdrawal from the account,
// independent of any trade.
type Transaction struct {
	ID     string          `json:"id" firestore:"id"`
	Type   TransactionType `json:"type" firestore:"type"`
	Amount float64         `json:"amount" firestore:"amount"`
	Date   string          `json:"date" firestore:"date"`
	Notes  string          `json:"notes,omitempty" firestore:"notes"`
}

// AccountSettings is the single per-principal settings document.
type AccountSettings struct {
	InitialBalance float64 `json:"initialBalance" firestore:"initialBalance"`
}
