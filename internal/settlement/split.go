// Package settlement implements the equal-split balance engine for a tour ledger.
//
// Every function is pure: inputs are never modified and results are fresh slices.
// Arithmetic is integer-only on money.Amount, so the sum of all friend balances
// stays exactly zero after each applied expense.
package settlement

import (
	"errors"
	"fmt"

	"github.com/travelwallet/travelwallet/internal/model"
	"github.com/travelwallet/travelwallet/internal/money"
)

// Settlement errors.
var (
	ErrNoParticipants = errors.New("tour has no participants to split between")
	ErrPayerNotFound  = errors.New("payer is not a participant of the tour")
	ErrInvalidAmount  = errors.New("expense amount must be positive and within range")
)

// Split divides amount into n shares that sum exactly to amount.
// Every share is amount/n; the remainder is handed out one minor unit at a time
// to the first amount%n shares in order.
func Split(amount money.Amount, n int) ([]money.Amount, error) {
	if n <= 0 {
		return nil, ErrNoParticipants
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	base := amount / money.Amount(n)
	remainder := int(amount % money.Amount(n))

	shares := make([]money.Amount, n)
	for i := range shares {
		shares[i] = base
		if i < remainder {
			shares[i]++
		}
	}
	return shares, nil
}

// ApplyExpense settles one expense across friends and returns the updated balances.
//
// The friend whose email matches payerEmail is credited with amount minus their own
// share; every other friend is debited their share. When several friends share the
// payer's email only the first one is treated as the payer.
func ApplyExpense(friends []model.Friend, payerEmail string, amount money.Amount) ([]model.Friend, error) {
	if len(friends) == 0 {
		return nil, ErrNoParticipants
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	payer := -1
	for i := range friends {
		if friends[i].Email == payerEmail {
			payer = i
			break
		}
	}
	if payer < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPayerNotFound, payerEmail)
	}

	shares, err := Split(amount, len(friends))
	if err != nil {
		return nil, err
	}

	updated := make([]model.Friend, len(friends))
	copy(updated, friends)
	for i := range updated {
		var next money.Amount
		if i == payer {
			next, err = money.Add(updated[i].Balance, amount-shares[i])
		} else {
			next, err = money.Sub(updated[i].Balance, shares[i])
		}
		if err != nil {
			return nil, fmt.Errorf("%w: balance of %s: %w", ErrInvalidAmount, updated[i].Email, err)
		}
		updated[i].Balance = next
	}
	return updated, nil
}

// checkAmount accepts 0 < amount <= money.MaxAmount.
func checkAmount(amount money.Amount) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	if amount > money.MaxAmount {
		return fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, amount, money.MaxAmount)
	}
	return nil
}

// Total returns the sum of all friend balances. A settled ledger totals zero.
func Total(friends []model.Friend) money.Amount {
	var sum money.Amount
	for _, f := range friends {
		sum += f.Balance
	}
	return sum
}
