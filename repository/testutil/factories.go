package testutil

import (
	"fmt"
	"time"

	"betpool/models"
)

// CreateTestAccount returns an unsaved account bound to walletID. The email is
// derived from name so several accounts can coexist.
func CreateTestAccount(walletID int64, name string) *models.Account {
	return &models.Account{
		DisplayName:    name,
		Email:          fmt.Sprintf("%s@example.com", name),
		CredentialHash: "$2a$04$placeholderhashplaceholderhashplaceholderhashpla",
		BirthDate:      time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		WalletID:       walletID,
	}
}

// CreateTestEvent returns an unsaved event in the given status
func CreateTestEvent(ownerID int64, title string, status models.EventStatus, quotaPrice int64) *models.Event {
	start := time.Date(2030, 6, 1, 18, 0, 0, 0, time.UTC)
	return &models.Event{
		OwnerAccountID: ownerID,
		Title:          title,
		Description:    title + " description",
		Category:       "sports",
		QuotaPrice:     quotaPrice,
		StartTime:      start,
		EndTime:        start.Add(2 * time.Hour),
		EventDate:      start,
		Status:         status,
	}
}

// CreateTestBet returns an unsaved bet
func CreateTestBet(eventID int64, account *models.Account, quotaCount int64, outcome string) *models.Bet {
	return &models.Bet{
		EventID:       eventID,
		AccountID:     account.ID,
		WalletID:      account.WalletID,
		QuotaCount:    quotaCount,
		ChosenOutcome: outcome,
	}
}

// CreateTestBalanceHistory returns an unsaved journal line moving a wallet from before to after
func CreateTestBalanceHistory(walletID, before, after int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		WalletID:        walletID,
		BalanceBefore:   before,
		BalanceAfter:    after,
		ChangeAmount:    after - before,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}
