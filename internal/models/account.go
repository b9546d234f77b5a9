// Package models содержит доменные структуры маркетплейса займов:
// счета кредиторов с балансами кредитов, лиды, покупки лидов,
// платёжные события и скоринговые профили заёмщиков.
package models

import "time"

// Currency обозначает одну из двух независимых валют кредитов.
type Currency string

const (
	// CurrencyLead — кредиты на покупку лидов.
	CurrencyLead Currency = "lead_credits"
	// CurrencyAISearch — кредиты на AI-поиск.
	CurrencyAISearch Currency = "ai_search_credits"
)

// Valid сообщает, известна ли валюта.
func (c Currency) Valid() bool {
	return c == CurrencyLead || c == CurrencyAISearch
}

// SubscriptionStatus статус подписки кредитора.
type SubscriptionStatus string

const (
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// LenderAccount счёт кредитора: балансы в обеих валютах и состояние подписки.
// Балансы изменяются только операциями леджера и никогда не уходят ниже нуля.
type LenderAccount struct {
	UID                string             `json:"uid"`
	LeadCredits        int                `json:"lead_credits"`
	AISearchCredits    int                `json:"ai_search_credits"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	SubscriptionRef    *string            `json:"subscription_ref,omitempty"`
	CurrentPlan        *string            `json:"current_plan,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Balance возвращает баланс счёта в указанной валюте.
func (a *LenderAccount) Balance(c Currency) int {
	if c == CurrencyAISearch {
		return a.AISearchCredits
	}
	return a.LeadCredits
}
