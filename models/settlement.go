package models

// Payout is the amount credited to one winning bet
type Payout struct {
	BetID     int64
	AccountID int64
	WalletID  int64
	Stake     int64
	Amount    int64
}

// Settlement describes how an event pool is distributed across winning bets
type Settlement struct {
	EventID        int64
	WinningOutcome string
	Pool           int64
	WinnerPool     int64
	Payouts        []Payout // ordered by ascending bet ID
	Losers         []*Bet
}

// TotalPaid returns the sum of all payouts
func (s *Settlement) TotalPaid() int64 {
	var total int64
	for _, p := range s.Payouts {
		total += p.Amount
	}
	return total
}

// PayoutFor returns the payout of a bet, or zero if it did not win
func (s *Settlement) PayoutFor(betID int64) int64 {
	for _, p := range s.Payouts {
		if p.BetID == betID {
			return p.Amount
		}
	}
	return 0
}
