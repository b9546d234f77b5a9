// Package scoring реализует агрегатор скоринга заёмщика: финансовый
// подскор, лингвистический сигнал и бонус за индикаторы сводятся
// в единый итоговый балл [0,100].
package scoring

import (
	"strings"

	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

const (
	employmentEmployed     = "Empleado"
	employmentSelfEmployed = "Independiente"
)

// Бонусы за ключевые слова в индикаторах: надёжность, пунктуальность,
// стабильность. Начисляются по разу на категорию.
var (
	reliabilityKeywords = []string{"confiab", "reliab"}
	punctualityKeywords = []string{"puntual", "punctual"}
	stabilityKeywords   = []string{"estabil", "stabil"}
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FinancialScore считает финансовый подскор как сумму четырёх независимо
// ограниченных факторов: долговая нагрузка (до 30), занятость (до 25),
// платёжная история (до 25, новичку — фикс 10), полнота профиля (до 20).
// Результат ограничен диапазоном [0,100].
func FinancialScore(f models.BorrowerFinancials) float64 {
	var score float64

	if f.DebtToIncomeRatio != nil {
		switch dti := *f.DebtToIncomeRatio; {
		case dti <= 0.30:
			score += 30
		case dti <= 0.50:
			score += 20
		case dti <= 0.70:
			score += 10
		}
	}

	if f.EmploymentStatus != nil {
		switch *f.EmploymentStatus {
		case employmentEmployed:
			score += 25
		case employmentSelfEmployed:
			score += 15
		}
	}

	if f.TotalLoans > 0 {
		ratio := float64(f.SuccessfulPayments) / float64(f.TotalLoans)
		score += ratio * 25
	} else {
		// бонус новому заёмщику без истории
		score += 10
	}

	fields := []bool{
		f.MonthlyIncome != nil,
		f.MonthlyExpenses != nil,
		f.EmploymentStatus != nil,
		f.JobTitle != nil,
		f.Employer != nil,
	}
	var present int
	for _, ok := range fields {
		if ok {
			present++
		}
	}
	score += float64(present) / float64(len(fields)) * 20

	return clamp(score, 0, 100)
}

// IndicatorBonus считает бонус за индикаторы: +2.0 за позитивный,
// -1.0 за негативный, плюс ключевые слова (+1.5 надёжность,
// +1.5 пунктуальность, +1.0 стабильность). Промежуточная сумма не
// ограничивается, итог обрезается до [0,10] один раз в конце.
func IndicatorBonus(indicators []models.Indicator) float64 {
	var bonus float64
	var hasReliability, hasPunctuality, hasStability bool

	for _, ind := range indicators {
		switch ind.Tag {
		case models.IndicatorPositive:
			bonus += 2.0
		case models.IndicatorNegative:
			bonus -= 1.0
		}

		text := strings.ToLower(ind.Text)
		hasReliability = hasReliability || containsAny(text, reliabilityKeywords)
		hasPunctuality = hasPunctuality || containsAny(text, punctualityKeywords)
		hasStability = hasStability || containsAny(text, stabilityKeywords)
	}

	if hasReliability {
		bonus += 1.5
	}
	if hasPunctuality {
		bonus += 1.5
	}
	if hasStability {
		bonus += 1.0
	}

	return clamp(bonus, 0, 10)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// FinalScore сводит подскоры в итоговый балл. При наличии лингвистической
// оценки: financial*0.7 + (linguistic/100)*30 + bonus. Без неё
// лингвистическое слагаемое равно нулю — балл остаётся только финансовым,
// без перенормировки. Итог ограничен [0,100].
func FinalScore(financial float64, linguistic *int, bonus float64) float64 {
	score := financial * 0.7
	if linguistic != nil {
		score += float64(*linguistic) / 100 * 30
	}
	score += bonus
	return clamp(score, 0, 100)
}
