package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthKeyLayout formats a calendar month as "YYYY-MM".
const MonthKeyLayout = "2006-01"

// RecentLimit is how many transactions a summary carries.
const RecentLimit = 5

// TrendMonths is the width of the monthly expense trend window, current month included.
const TrendMonths = 6

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category string `json:"category"`
	Total    Money  `json:"total"`
}

// MonthAmount is the expense total of one calendar month.
type MonthAmount struct {
	Month string `json:"month"`
	Total Money  `json:"total"`
}

// DatedAmount is a single expense reduced to what the trend needs.
type DatedAmount struct {
	Date   time.Time
	Amount Money
}

// Summary is the dashboard view of one user's ledger.
type Summary struct {
	TotalIncome        Money            `json:"totalIncome"`
	TotalExpense       Money            `json:"totalExpense"`
	Balance            Money            `json:"balance"`
	RecentTransactions []Transaction    `json:"recentTransactions"`
	CategoryBreakdown  []CategoryAmount `json:"categoryBreakdown"`
	MonthlyTrend       []MonthAmount    `json:"monthlyTrend"`
}

// TrendWindow returns the half-open UTC interval [from, to) covering the
// current month of now and the TrendMonths-1 months before it.
func TrendWindow(now time.Time) (from, to time.Time) {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(TrendMonths - 1), 0), first.AddDate(0, 1, 0)
}

// MonthKey returns the "YYYY-MM" bucket of t in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

// BudgetStatus compares a monthly budget with what was spent this month.
// A zero budget means the user never set one.
type BudgetStatus struct {
	Configured     bool  `json:"configured"`
	MonthlyBudget  Money `json:"monthlyBudget"`
	SpentThisMonth Money `json:"spentThisMonth"`
	UsedPercent    int   `json:"usedPercent"`
	OverBudget     bool  `json:"overBudget"`
}

func NewBudgetStatus(budget, spent Money) BudgetStatus {
	s := BudgetStatus{MonthlyBudget: budget, SpentThisMonth: spent}
	if budget.Cents <= 0 {
		return s
	}
	s.Configured = true
	s.OverBudget = spent.Cents > budget.Cents
	if spent.Cents >= budget.Cents {
		s.UsedPercent = 100
		return s
	}
	pct, _ := decimal.NewFromInt(spent.Cents).Mul(decimal.NewFromInt(100)).QuoRem(decimal.NewFromInt(budget.Cents), 0)
	s.UsedPercent = int(pct.IntPart())
	return s
}
