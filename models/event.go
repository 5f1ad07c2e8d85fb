package models

import (
	"time"
)

// EventStatus represents the lifecycle state of a betting event
type EventStatus string

const (
	EventStatusPendingReview  EventStatus = "PENDING_REVIEW"
	EventStatusOpenForBetting EventStatus = "OPEN_FOR_BETTING"
	EventStatusRejected       EventStatus = "REJECTED"
	EventStatusSettled        EventStatus = "SETTLED"
	EventStatusRemoved        EventStatus = "REMOVED"
)

var eventTransitions = map[EventStatus][]EventStatus{
	EventStatusPendingReview:  {EventStatusOpenForBetting, EventStatusRejected},
	EventStatusOpenForBetting: {EventStatusSettled, EventStatusRemoved},
}

// CanTransitionTo reports whether the state machine allows moving to next
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s EventStatus) IsTerminal() bool {
	return len(eventTransitions[s]) == 0
}

// IsValid reports whether s is a known status
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusPendingReview, EventStatusOpenForBetting, EventStatusRejected, EventStatusSettled, EventStatusRemoved:
		return true
	}
	return false
}

// ReviewDecision is the moderator verdict on a submitted event
type ReviewDecision string

const (
	ReviewDecisionApprove ReviewDecision = "approve"
	ReviewDecisionReject  ReviewDecision = "reject"
)

// Event is a wagering market that accepts bets on free-form outcomes
type Event struct {
	ID               int64       `db:"id"`
	OwnerAccountID   int64       `db:"owner_account_id"`
	Title            string      `db:"title"`
	Description      string      `db:"description"`
	Category         string      `db:"category"`
	QuotaPrice       int64       `db:"quota_price"`
	StartTime        time.Time   `db:"start_time"`
	EndTime          time.Time   `db:"end_time"`
	EventDate        time.Time   `db:"event_date"`
	Status           EventStatus `db:"status"`
	WinningOutcome   *string     `db:"winning_outcome"`
	RejectionMessage *string     `db:"rejection_message"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
	SettledAt        *time.Time  `db:"settled_at"`
}

// IsOpenForBetting checks if bets may currently be placed on the event
func (e *Event) IsOpenForBetting() bool {
	return e.Status == EventStatusOpenForBetting
}

// StakeFor returns the cost of the given number of quotas at the event price
func (e *Event) StakeFor(quotaCount int64) int64 {
	return quotaCount * e.QuotaPrice
}
