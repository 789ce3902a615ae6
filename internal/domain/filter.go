package domain

// FilterCriteria is a sparse set of predicates over the ledger. Empty
// fields are not applied; populated ones are ANDed together.
type FilterCriteria struct {
	DateFrom   string    `json:"dateFrom,omitempty"`
	DateTo     string    `json:"dateTo,omitempty"`
	Instrument string    `json:"instrument,omitempty"`
	Outcome    Outcome   `json:"outcome,omitempty"`
	Direction  Direction `json:"direction,omitempty"`
}

// IsZero reports whether no predicate is set.
func (c FilterCriteria) IsZero() bool {
	return c == FilterCriteria{}
}

// Matches applies every populated predicate to a single trade.
// Outcome matching is defined on the profit value, not the stored
// status field: win means profit > 0, loss means profit <= 0.
func (c FilterCriteria) Matches(t TradeRecord) bool {
	if c.DateFrom != "" && t.Date < c.DateFrom {
		return false
	}
	if c.DateTo != "" && t.Date > c.DateTo {
		return false
	}
	if c.Instrument != "" && t.Instrument != c.Instrument {
		return false
	}
	if c.Direction != "" && t.Direction != c.Direction {
		return false
	}
	switch c.Outcome {
	case OutcomeWin:
		if t.Profit <= 0 {
			return false
		}
	case OutcomeLoss:
		if t.Profit > 0 {
			return false
		}
	}
	return true
}

// Filter returns the subset of trades matching the criteria,
// preserving the relative order of the input. The input slice is never
// mutated.
func Filter(trades []TradeRecord, c FilterCriteria) []TradeRecord {
	if c.IsZero() {
		out := make([]TradeRecord, len(trades))
		copy(out, trades)
		return out
	}
	out := make([]TradeRecord, 0, len(trades))
	for _, t := range trades {
		if c.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
