package models

import "time"

// Purchase запись о том, что пара (кредитор, лид) выкуплена.
// Пара уникальна на всём множестве покупок — это гарантия эксклюзивности.
// Запись создаётся ровно один раз и не изменяется.
type Purchase struct {
	ID          string    `json:"id"`
	LenderUID   string    `json:"lender_uid"`
	LeadID      int       `json:"lead_id"`
	PurchasedAt time.Time `json:"purchased_at"`
}
