package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    LeadStatus
		to      LeadStatus
		allowed bool
	}{
		{"new -> viewed", LeadStatusNew, LeadStatusViewed, true},
		{"new -> contacted", LeadStatusNew, LeadStatusContacted, true},
		{"new -> closed", LeadStatusNew, LeadStatusClosed, true},
		{"viewed -> contacted", LeadStatusViewed, LeadStatusContacted, true},
		{"viewed -> closed", LeadStatusViewed, LeadStatusClosed, true},
		{"contacted -> closed", LeadStatusContacted, LeadStatusClosed, true},
		{"viewed -> new запрещён", LeadStatusViewed, LeadStatusNew, false},
		{"contacted -> viewed запрещён", LeadStatusContacted, LeadStatusViewed, false},
		{"closed терминальный", LeadStatusClosed, LeadStatusNew, false},
		{"closed -> contacted запрещён", LeadStatusClosed, LeadStatusContacted, false},
		{"переход в себя запрещён", LeadStatusViewed, LeadStatusViewed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestLeadStatusValid(t *testing.T) {
	assert.True(t, LeadStatusNew.Valid())
	assert.True(t, LeadStatusClosed.Valid())
	assert.False(t, LeadStatus("archived").Valid())
	assert.False(t, LeadStatus("").Valid())
}

func TestCurrencyValid(t *testing.T) {
	assert.True(t, CurrencyLead.Valid())
	assert.True(t, CurrencyAISearch.Valid())
	assert.False(t, Currency("gold").Valid())
}

func TestPaymentEventTypeValid(t *testing.T) {
	assert.True(t, EventSubscriptionActivated.Valid())
	assert.True(t, EventSubscriptionRenewed.Valid())
	assert.True(t, EventOneTimePurchase.Valid())
	assert.True(t, EventSubscriptionCanceled.Valid())
	assert.False(t, PaymentEventType("refund").Valid())
}
