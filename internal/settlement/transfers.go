package settlement

import (
	"sort"

	"github.com/travelwallet/travelwallet/internal/model"
	"github.com/travelwallet/travelwallet/internal/money"
)

// Transfer is a suggested payment that moves a debtor toward zero balance.
type Transfer struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Amount money.Amount `json:"amount"`
}

type party struct {
	email  string
	amount money.Amount
}

// SuggestTransfers matches debtors against creditors, largest first, and returns the
// payments that would bring every balance to zero. Friends with zero balance are skipped.
// Ties are broken by email so the result is deterministic.
func SuggestTransfers(friends []model.Friend) []Transfer {
	var debtors, creditors []party
	for _, f := range friends {
		switch {
		case f.Balance.IsNegative():
			debtors = append(debtors, party{email: f.Email, amount: f.Balance.Abs()})
		case f.Balance.IsPositive():
			creditors = append(creditors, party{email: f.Email, amount: f.Balance})
		}
	}
	sortParties(debtors)
	sortParties(creditors)

	transfers := make([]Transfer, 0, len(debtors))
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := money.Min(debtors[i].amount, creditors[j].amount)
		if amount.IsPositive() {
			transfers = append(transfers, Transfer{
				From:   debtors[i].email,
				To:     creditors[j].email,
				Amount: amount,
			})
		}

		debtors[i].amount -= amount
		creditors[j].amount -= amount
		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}
	return transfers
}

func sortParties(p []party) {
	sort.SliceStable(p, func(a, b int) bool {
		if p[a].amount != p[b].amount {
			return p[a].amount > p[b].amount
		}
		return p[a].email < p[b].email
	})
}
