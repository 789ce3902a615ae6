package usecase

import (
	"strconv"
	"strings"

	"tradetrack-backend/internal/domain"
)

// csvColumns is the fixed export column order consumers rely on.
var csvColumns = []string{"date", "instrument", "lot", "strategy", "riskReward", "status", "profit", "notes"}

// ExportCSV renders the ledger as a comma-separated table. The format
// is intentionally primitive: commas inside free-text fields become
// semicolons, and there is no quoting or escaping beyond that, because
// existing spreadsheet imports of this journal expect exactly this
// shape.
func ExportCSV(trades []domain.TradeRecord) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvColumns, ","))
	b.WriteByte('\n')

	for _, t := range trades {
		row := []string{
			csvField(t.Date),
			csvField(t.Instrument),
			csvField(t.LotSize),
			csvField(t.Strategy),
			formatFloat(t.RiskReward),
			string(t.Status),
			formatFloat(t.Profit),
			csvField(t.Notes),
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

func csvField(s string) string {
	s = strings.ReplaceAll(s, ",", ";")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
