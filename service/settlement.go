package service

import (
	"fmt"
	"math/big"
	"sort"

	"betpool/models"
)

// ComputeSettlement splits the pool of all stakes between the bets on
// winningOutcome in proportion to their stake. Each share is rounded down and
// the remainder goes to the winner with the highest bet ID, so the payouts
// always sum to the pool exactly.
func ComputeSettlement(eventID int64, quotaPrice int64, bets []*models.Bet, winningOutcome string) (*models.Settlement, error) {
	if len(bets) == 0 {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNoBetsFound)
	}

	pool := new(big.Int)
	winnerPool := new(big.Int)
	price := big.NewInt(quotaPrice)

	var winners []*models.Bet
	var losers []*models.Bet
	for _, bet := range bets {
		stake := new(big.Int).Mul(big.NewInt(bet.QuotaCount), price)
		pool.Add(pool, stake)

		if bet.ChosenOutcome == winningOutcome {
			winnerPool.Add(winnerPool, stake)
			winners = append(winners, bet)
		} else {
			losers = append(losers, bet)
		}
	}

	if len(winners) == 0 {
		return nil, fmt.Errorf("event %d outcome %q: %w", eventID, winningOutcome, ErrNoWinningBets)
	}
	if !pool.IsInt64() {
		return nil, fmt.Errorf("event %d pool exceeds ledger range", eventID)
	}

	sort.Slice(winners, func(i, j int) bool { return winners[i].ID < winners[j].ID })

	payouts := make([]models.Payout, len(winners))
	distributed := new(big.Int)
	for i, bet := range winners {
		stake := new(big.Int).Mul(big.NewInt(bet.QuotaCount), price)
		share := new(big.Int).Mul(pool, stake)
		share.Quo(share, winnerPool)
		distributed.Add(distributed, share)

		payouts[i] = models.Payout{
			BetID:     bet.ID,
			AccountID: bet.AccountID,
			WalletID:  bet.WalletID,
			Stake:     stake.Int64(),
			Amount:    share.Int64(),
		}
	}

	remainder := new(big.Int).Sub(pool, distributed)
	payouts[len(payouts)-1].Amount += remainder.Int64()

	return &models.Settlement{
		EventID:        eventID,
		WinningOutcome: winningOutcome,
		Pool:           pool.Int64(),
		WinnerPool:     winnerPool.Int64(),
		Payouts:        payouts,
		Losers:         losers,
	}, nil
}

// settlementFromBook rebuilds a settlement from payouts already stored on the bets
func settlementFromBook(event *models.Event, bets []*models.Bet) *models.Settlement {
	s := &models.Settlement{EventID: event.ID}
	if event.WinningOutcome != nil {
		s.WinningOutcome = *event.WinningOutcome
	}

	sorted := make([]*models.Bet, len(bets))
	copy(sorted, bets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, bet := range sorted {
		stake := event.StakeFor(bet.QuotaCount)
		s.Pool += stake
		if bet.ChosenOutcome != s.WinningOutcome {
			s.Losers = append(s.Losers, bet)
			continue
		}
		s.WinnerPool += stake
		var amount int64
		if bet.Payout != nil {
			amount = *bet.Payout
		}
		s.Payouts = append(s.Payouts, models.Payout{
			BetID:     bet.ID,
			AccountID: bet.AccountID,
			WalletID:  bet.WalletID,
			Stake:     stake,
			Amount:    amount,
		})
	}
	return s
}
