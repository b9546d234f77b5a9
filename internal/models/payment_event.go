package models

import "time"

// PaymentEventType тип входящего события платёжного провайдера.
type PaymentEventType string

const (
	EventSubscriptionActivated PaymentEventType = "subscription_activated"
	EventSubscriptionRenewed   PaymentEventType = "subscription_renewed"
	EventOneTimePurchase       PaymentEventType = "one_time_purchase"
	EventSubscriptionCanceled  PaymentEventType = "subscription_canceled"
)

// Valid сообщает, известен ли тип события.
func (t PaymentEventType) Valid() bool {
	switch t {
	case EventSubscriptionActivated, EventSubscriptionRenewed, EventOneTimePurchase, EventSubscriptionCanceled:
		return true
	}
	return false
}

// PaymentEvent одно уведомление платёжного провайдера. ExternalID глобально
// уникален и служит ключом идемпотентности: таблица событий append-only,
// событие с processed = true никогда не обрабатывается повторно.
type PaymentEvent struct {
	ExternalID      string           `json:"external_id"`
	Type            PaymentEventType `json:"type"`
	PriceID         string           `json:"price_id"`
	Quantity        int              `json:"quantity"`
	CustomerRef     string           `json:"customer_ref"`
	SubscriptionRef string           `json:"subscription_ref,omitempty"`
	Processed       bool             `json:"processed"`
	ReceivedAt      time.Time        `json:"received_at"`
}
