package service

import (
	"github.com/shopspring/decimal"
)

type taxBracket struct {
	upTo int64 // inclusive upper bound, 0 for unbounded
	rate decimal.Decimal
}

var withdrawalBrackets = []taxBracket{
	{upTo: 100, rate: decimal.RequireFromString("0.04")},
	{upTo: 1000, rate: decimal.RequireFromString("0.03")},
	{upTo: 5000, rate: decimal.RequireFromString("0.02")},
	{upTo: 100000, rate: decimal.RequireFromString("0.01")},
	{upTo: 0, rate: decimal.Zero},
}

// WithdrawalRate returns the tax rate applied to a withdrawal of gross
func WithdrawalRate(gross int64) decimal.Decimal {
	for _, b := range withdrawalBrackets {
		if b.upTo == 0 || gross <= b.upTo {
			return b.rate
		}
	}
	return decimal.Zero
}

// WithdrawalFee returns the tax withheld from gross, rounded down to the ledger unit
func WithdrawalFee(gross int64) int64 {
	if gross <= 0 {
		return 0
	}
	return decimal.NewFromInt(gross).Mul(WithdrawalRate(gross)).Floor().IntPart()
}

// NetAmount returns what the account owner receives after withdrawal tax
func NetAmount(gross int64) int64 {
	return gross - WithdrawalFee(gross)
}
