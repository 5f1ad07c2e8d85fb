package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     EventStatus
		to       EventStatus
		expected bool
	}{
		{EventStatusPendingReview, EventStatusOpenForBetting, true},
		{EventStatusPendingReview, EventStatusRejected, true},
		{EventStatusPendingReview, EventStatusSettled, false},
		{EventStatusOpenForBetting, EventStatusSettled, true},
		{EventStatusOpenForBetting, EventStatusRemoved, true},
		{EventStatusOpenForBetting, EventStatusRejected, false},
		{EventStatusSettled, EventStatusOpenForBetting, false},
		{EventStatusRemoved, EventStatusSettled, false},
		{EventStatusRejected, EventStatusOpenForBetting, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEventStatus_IsTerminal(t *testing.T) {
	assert.False(t, EventStatusPendingReview.IsTerminal())
	assert.False(t, EventStatusOpenForBetting.IsTerminal())
	assert.True(t, EventStatusRejected.IsTerminal())
	assert.True(t, EventStatusSettled.IsTerminal())
	assert.True(t, EventStatusRemoved.IsTerminal())
}

func TestEventStatus_IsValid(t *testing.T) {
	assert.True(t, EventStatusSettled.IsValid())
	assert.False(t, EventStatus("aprovado").IsValid())
}

func TestCardDetails_Last4(t *testing.T) {
	card := CardDetails{Number: "4111111111111111"}
	assert.Equal(t, "1111", card.Last4())

	short := CardDetails{Number: "12"}
	assert.Equal(t, "12", short.Last4())
}

func TestSettlement_TotalPaid(t *testing.T) {
	s := &Settlement{
		Payouts: []Payout{
			{BetID: 1, Amount: 60},
			{BetID: 2, Amount: 40},
		},
	}
	assert.Equal(t, int64(100), s.TotalPaid())
	assert.Equal(t, int64(40), s.PayoutFor(2))
	assert.Equal(t, int64(0), s.PayoutFor(3))
}
