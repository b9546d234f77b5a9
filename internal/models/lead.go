package models

import "time"

// LeadStatus статус лида. Переходы только вперёд:
// new -> viewed -> contacted -> closed.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusViewed    LeadStatus = "viewed"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusClosed    LeadStatus = "closed"
)

// leadTransitions таблица допустимых переходов статуса.
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:       {LeadStatusViewed, LeadStatusContacted, LeadStatusClosed},
	LeadStatusViewed:    {LeadStatusContacted, LeadStatusClosed},
	LeadStatusContacted: {LeadStatusClosed},
	LeadStatusClosed:    {},
}

// Valid сообщает, известен ли статус.
func (s LeadStatus) Valid() bool {
	_, ok := leadTransitions[s]
	return ok
}

// CanTransitionTo проверяет допустимость перехода из текущего статуса в next.
func (s LeadStatus) CanTransitionTo(next LeadStatus) bool {
	for _, allowed := range leadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Lead одна публичная заявка на финансирование, доступная кредиторам.
type Lead struct {
	ID            int        `json:"id"`
	LoanRequestID int        `json:"loan_request_id"`
	BorrowerUID   string     `json:"borrower_uid"`
	Status        LeadStatus `json:"status"`
	ListPrice     float64    `json:"list_price"`
	ContactMade   bool       `json:"contact_made"`
	ContactDate   *time.Time `json:"contact_date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// LeadContact приватные контактные данные заёмщика. Отдаются кредитору
// только при наличии покупки пары (кредитор, лид).
type LeadContact struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// LeadListing строка листинга маркетплейса: лид, скоринговый сигнал
// и флаг покупки для запрашивающего кредитора.
type LeadListing struct {
	Lead        Lead         `json:"lead"`
	FinalScore  *float64     `json:"final_score,omitempty"`
	IsPurchased bool         `json:"is_purchased"`
	Contact     *LeadContact `json:"contact,omitempty"`
}
