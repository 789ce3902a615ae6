// Package metrics derives aggregate statistics from ledger snapshots.
// Every function is pure, deterministic and safe on an empty input.
package metrics

import (
	"sort"

	"tradetrack-backend/internal/domain"
)

// profitFactorUnbounded is reported when there are gross profits but
// no gross losses. A finite sentinel keeps JSON encoders and chart
// consumers happy where +Inf would not.
const profitFactorUnbounded = 9999.0

// Summary is the headline stat block shown on the dashboard.
type Summary struct {
	Count         int     `json:"count"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	TotalProfit   float64 `json:"totalProfit"`
	WinRate       float64 `json:"winRate"` // percentage, 0 when Count is 0
	Best          float64 `json:"best"`
	Worst         float64 `json:"worst"`
	AvgRiskReward float64 `json:"avgRiskReward"`
	AvgProfit     float64 `json:"avgProfit"` // mean over winners only
	AvgLoss       float64 `json:"avgLoss"`   // mean over losers only, negative
}

// Summarize computes the Summary over a snapshot. A win here is any
// trade with profit strictly greater than zero, matching the filter
// engine's outcome predicate.
func Summarize(trades []domain.TradeRecord) Summary {
	var s Summary
	s.Count = len(trades)
	if s.Count == 0 {
		return s
	}

	var rrSum, winSum, lossSum float64
	s.Best = trades[0].Profit
	s.Worst = trades[0].Profit
	for _, t := range trades {
		s.TotalProfit += t.Profit
		rrSum += t.RiskReward
		if t.Profit > 0 {
			s.Wins++
			winSum += t.Profit
		} else if t.Profit < 0 {
			s.Losses++
			lossSum += t.Profit
		}
		if t.Profit > s.Best {
			s.Best = t.Profit
		}
		if t.Profit < s.Worst {
			s.Worst = t.Profit
		}
	}

	s.WinRate = float64(s.Wins) / float64(s.Count) * 100
	s.AvgRiskReward = rrSum / float64(s.Count)
	if s.Wins > 0 {
		s.AvgProfit = winSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = lossSum / float64(s.Losses)
	}
	return s
}

// AccountBalance folds the initial balance, trade results and balance
// transactions into the current account balance.
func AccountBalance(initial float64, trades []domain.TradeRecord, txs []domain.Transaction) float64 {
	balance := initial
	for _, t := range trades {
		balance += t.Profit
	}
	for _, tx := range txs {
		switch tx.Type {
		case domain.TransactionDeposit:
			balance += tx.Amount
		case domain.TransactionWithdrawal:
			balance -= tx.Amount
		}
	}
	return balance
}

// Advanced holds the path-dependent statistics. The equity path, and
// therefore the drawdown, depends on iteration order: callers must
// pass trades sorted by date ascending.
type Advanced struct {
	MaxDrawdown   float64   `json:"maxDrawdown"`
	ProfitFactor  float64   `json:"profitFactor"`
	MaxWinStreak  int       `json:"maxWinStreak"`
	MaxLossStreak int       `json:"maxLossStreak"`
	Equity        []float64 `json:"equity"` // running cumulative profit
}

// Analyze computes the advanced statistics over a snapshot in the
// order given. A zero-profit trade breaks both streaks without
// starting either.
func Analyze(trades []domain.TradeRecord) Advanced {
	adv := Advanced{Equity: make([]float64, 0, len(trades))}

	var (
		cum, peak             float64
		grossProfit           float64
		grossLoss             float64
		winStreak, lossStreak int
	)

	for _, t := range trades {
		cum += t.Profit
		adv.Equity = append(adv.Equity, cum)

		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > adv.MaxDrawdown {
			adv.MaxDrawdown = dd
		}

		switch {
		case t.Profit > 0:
			grossProfit += t.Profit
			winStreak++
			lossStreak = 0
		case t.Profit < 0:
			grossLoss += -t.Profit
			lossStreak++
			winStreak = 0
		default:
			winStreak = 0
			lossStreak = 0
		}
		if winStreak > adv.MaxWinStreak {
			adv.MaxWinStreak = winStreak
		}
		if lossStreak > adv.MaxLossStreak {
			adv.MaxLossStreak = lossStreak
		}
	}

	switch {
	case grossLoss > 0:
		adv.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		adv.ProfitFactor = profitFactorUnbounded
	default:
		adv.ProfitFactor = 0
	}
	return adv
}

// DayStats is the per-calendar-day aggregate the calendar view renders.
type DayStats struct {
	Date      string  `json:"date"`
	NetProfit float64 `json:"netProfit"`
	Trades    int     `json:"trades"`
}

// DailyBreakdown groups trades by calendar date and nets the profit
// per day. Days are returned in ascending date order; trades without a
// date are skipped.
func DailyBreakdown(trades []domain.TradeRecord) []DayStats {
	byDate := make(map[string]*DayStats)
	for _, t := range trades {
		if t.Date == "" {
			continue
		}
		day, ok := byDate[t.Date]
		if !ok {
			day = &DayStats{Date: t.Date}
			byDate[t.Date] = day
		}
		day.NetProfit += t.Profit
		day.Trades++
	}

	out := make([]DayStats, 0, len(byDate))
	for _, day := range byDate {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
