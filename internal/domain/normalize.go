package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TradeInput is the loosely-typed shape a trade arrives in. Numeric
// fields may be JSON numbers or strings, the win/loss flag may arrive
// as either "status" or the legacy "result" field, and anything may be
// missing. Required-field validation is the delivery layer's job;
// Normalize never rejects.
type TradeInput struct {
	ID         string `json:"id,omitempty"`
	Instrument string `json:"instrument"`
	Direction  string `json:"direction"`
	LotSize    string `json:"lotSize"`
	EntryTime  string `json:"entryTime"`
	ExitTime   string `json:"exitTime"`
	RiskReward any    `json:"riskReward"`
	Strategy   string `json:"strategy"`
	Profit     any    `json:"profit"`
	Status     string `json:"status"`
	Result     string `json:"result"` // legacy alias for Status
	Date       string `json:"date"`
	Notes      string `json:"notes"`
	Screenshot string `json:"screenshot"`
}

// Normalize coerces raw input into a canonical TradeRecord. It is
// deliberately permissive: malformed fields degrade to safe defaults
// and no error is ever returned. An explicit "loss" flag wins over the
// profit sign and forces the stored profit negative, so the
// loss-implies-nonpositive-profit invariant holds on every record that
// passes through here.
func Normalize(in TradeInput) TradeRecord {
	return normalizeAt(in, time.Now())
}

func normalizeAt(in TradeInput, now time.Time) TradeRecord {
	profit := coerceFloat(in.Profit)

	flag := strings.ToLower(strings.TrimSpace(in.Status))
	if flag == "" {
		flag = strings.ToLower(strings.TrimSpace(in.Result))
	}
	if flag == string(OutcomeLoss) {
		profit = -math.Abs(profit)
	}

	var status Outcome
	switch {
	case flag == string(OutcomeLoss):
		status = OutcomeLoss
	case flag == string(OutcomeWin):
		status = OutcomeWin
	case profit < 0:
		status = OutcomeLoss
	default:
		status = OutcomeWin
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = now.Format(DateLayout)
	}

	rr := coerceFloat(in.RiskReward)
	if rr < 0 || math.IsNaN(rr) || math.IsInf(rr, 0) {
		rr = 0
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}

	return TradeRecord{
		ID:         id,
		Instrument: strings.TrimSpace(in.Instrument),
		Direction:  ParseDirection(in.Direction),
		LotSize:    strings.TrimSpace(in.LotSize),
		EntryTime:  strings.TrimSpace(in.EntryTime),
		ExitTime:   strings.TrimSpace(in.ExitTime),
		RiskReward: rr,
		Strategy:   strings.TrimSpace(in.Strategy),
		Profit:     profit,
		Status:     status,
		Date:       date,
		Notes:      in.Notes,
		Screenshot: in.Screenshot,
	}
}

// TransactionInput is the loose shape a balance adjustment arrives in.
type TransactionInput struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`
	Amount any    `json:"amount"`
	Date   string `json:"date"`
	Notes  string `json:"notes"`
}

// NormalizeTransaction coerces raw input into a canonical Transaction.
// Amounts are stored positive regardless of input sign; the effect on
// the balance is carried by the type alone. Anything that is not
// recognisably a withdrawal is a deposit.
func NormalizeTransaction(in TransactionInput) Transaction {
	return normalizeTransactionAt(in, time.Now())
}

func normalizeTransactionAt(in TransactionInput, now time.Time) Transaction {
	txType := TransactionDeposit
	if strings.EqualFold(strings.TrimSpace(in.Type), string(TransactionWithdrawal)) {
		txType = TransactionWithdrawal
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = now.Format(DateLayout)
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}

	return Transaction{
		ID:     id,
		Type:   txType,
		Amount: math.Abs(coerceFloat(in.Amount)),
		Date:   date,
		Notes:  in.Notes,
	}
}

// coerceFloat reads a number out of whatever the decoder produced.
// Non-numeric and missing values coerce to 0.
func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
