// Package metrics объявляет счётчики Prometheus ядра маркетплейса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentEventsTotal события платёжного провайдера по исходам.
	PaymentEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_marketplace_payment_events_total",
		Help: "Processed payment provider events by outcome.",
	}, []string{"outcome"})

	// PurchasesTotal попытки покупки лида по результатам.
	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_marketplace_purchases_total",
		Help: "Lead purchase attempts by result.",
	}, []string{"result"})

	// CreditGrantsTotal начисленные кредиты по валютам.
	CreditGrantsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_marketplace_credit_grants_total",
		Help: "Credits granted by currency.",
	}, []string{"currency"})

	// CreditDebitsTotal списанные кредиты по валютам.
	CreditDebitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_marketplace_credit_debits_total",
		Help: "Credits debited by currency.",
	}, []string{"currency"})

	// HTTPRequestsTotal HTTP-запросы по маршруту и коду ответа.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_marketplace_http_requests_total",
		Help: "HTTP requests by path pattern and status code.",
	}, []string{"pattern", "code"})
)
