package models

import "time"

// BorrowerFinancials финансовый профиль заёмщика — вход для скоринга.
type BorrowerFinancials struct {
	BorrowerUID        string   `json:"borrower_uid"`
	MonthlyIncome      *float64 `json:"monthly_income,omitempty"`
	MonthlyExpenses    *float64 `json:"monthly_expenses,omitempty"`
	DebtToIncomeRatio  *float64 `json:"debt_to_income_ratio,omitempty"`
	EmploymentStatus   *string  `json:"employment_status,omitempty"`
	JobTitle           *string  `json:"job_title,omitempty"`
	Employer           *string  `json:"employer,omitempty"`
	TotalLoans         int      `json:"total_loans"`
	SuccessfulPayments int      `json:"successful_payments"`
	LatePayments       int      `json:"late_payments"`
}

// IndicatorTag тональность индикатора из лингвистического анализа.
type IndicatorTag string

const (
	IndicatorPositive IndicatorTag = "positive"
	IndicatorNegative IndicatorTag = "negative"
	IndicatorNeutral  IndicatorTag = "neutral"
)

// Indicator один ключевой индикатор, выделенный лингвистическим анализом.
type Indicator struct {
	Text string       `json:"text"`
	Tag  IndicatorTag `json:"tag"`
}

// LinguisticAnalysis результат внешнего лингвистического анализа:
// оценка [0,100] и список индикаторов. Поступает асинхронно,
// может отсутствовать вовсе.
type LinguisticAnalysis struct {
	BorrowerUID string      `json:"borrower_uid"`
	Score       *int        `json:"score,omitempty"`
	Indicators  []Indicator `json:"indicators"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ScoreProfile кэшированный результат скоринга заёмщика. FinalScore —
// производное значение, пересчитываемое при изменении входов;
// источником истины для входов не является.
type ScoreProfile struct {
	BorrowerUID     string    `json:"borrower_uid"`
	FinancialScore  float64   `json:"financial_score"`
	LinguisticScore *int      `json:"linguistic_score,omitempty"`
	IndicatorBonus  float64   `json:"indicator_bonus"`
	FinalScore      float64   `json:"final_score"`
	ComputedAt      time.Time `json:"computed_at"`
}
