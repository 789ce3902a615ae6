package repository

import (
	"sort"

	"tradetrack-backend/internal/domain"
)

func sortTransactionsByDate(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date < txs[j].Date })
}
