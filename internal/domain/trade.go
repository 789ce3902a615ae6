package domain

import (
	"sort"
	"strings"
	"time"
)

// Direction is the side a trade was taken on.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Outcome classifies a closed trade. Profit is the source of truth;
// the stored outcome only disagrees with the profit sign when the
// caller supplied an explicit override at normalization time.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// DateLayout is the calendar-date format used everywhere a trade or
// transaction date is stored. Dates compare as strings, so the layout
// must sort chronologically.
const DateLayout = "2006-01-02"

// clockLayout is the optional time-of-day format for entry/exit times.
const clockLayout = "15:04"

// TradeRecord is one journaled trade.
// Invariant: Status == OutcomeLoss implies Profit <= 0. Enforced by
// Normalize, not re-validated later.
type TradeRecord struct {
	ID         string    `json:"id" firestore:"id"`
	Instrument string    `json:"instrument" firestore:"instrument"`
	Direction  Direction `json:"direction" firestore:"direction"`
	LotSize    string    `json:"lotSize" firestore:"lotSize"`
	EntryTime  string    `json:"entryTime,omitempty" firestore:"entryTime"`
	ExitTime   string    `json:"exitTime,omitempty" firestore:"exitTime"`
	RiskReward float64   `json:"riskReward" firestore:"riskReward"`
	Strategy   string    `json:"strategy,omitempty" firestore:"strategy"`
	Profit     float64   `json:"profit" firestore:"profit"`
	Status     Outcome   `json:"status" firestore:"status"`
	Date       string    `json:"date" firestore:"date"`
	Notes      string    `json:"notes,omitempty" firestore:"notes"`
	Screenshot string    `json:"screenshot,omitempty" firestore:"screenshot"`
}

// Duration derives the held duration from the optional entry/exit
// times. Display-only data; an exit before the entry is read as
// crossing midnight. ok is false when either time is absent or
// malformed.
func (t TradeRecord) Duration() (d time.Duration, ok bool) {
	if t.EntryTime == "" || t.ExitTime == "" {
		return 0, false
	}
	entry, err := time.Parse(clockLayout, t.EntryTime)
	if err != nil {
		return 0, false
	}
	exit, err := time.Parse(clockLayout, t.ExitTime)
	if err != nil {
		return 0, false
	}
	d = exit.Sub(entry)
	if d < 0 {
		d += 24 * time.Hour
	}
	return d, true
}

// ParseDirection maps free-form input onto a Direction, defaulting to
// buy for anything that is not recognisably a sell.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(DirectionSell)) {
		return DirectionSell
	}
	return DirectionBuy
}

// SortTradesByDate orders trades chronologically in place. The sort is
// stable so trades on the same day keep their relative order.
func SortTradesByDate(trades []TradeRecord) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Date < trades[j].Date
	})
}
