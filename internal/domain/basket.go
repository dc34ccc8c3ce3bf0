package domain

import "time"

type Basket struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"user"`
	TotalPrice int64        `json:"totalPrice"`
	CreatedAt  time.Time    `json:"createdAt"`
	Lines      []BasketLine `json:"basketItems"`
}

type BasketLine struct {
	ID        int64  `json:"id"`
	BasketID  int64  `json:"basket"`
	ItemID    int64  `json:"skin"`
	ItemName  string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"price"`
	LineTotal int64  `json:"totalPrice"`
}

// WithQuantity returns the line with quantity q and its total recomputed.
func (l BasketLine) WithQuantity(q int) BasketLine {
	l.Quantity = q
	l.LineTotal = l.UnitPrice * int64(q)
	return l
}

// SumLineTotals is the authoritative basket total.
func SumLineTotals(lines []BasketLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.LineTotal
	}
	return total
}

type Ownership struct {
	UserID   int64 `json:"-"`
	ItemID   int64 `json:"-"`
	Quantity int   `json:"quantity"`
	Item     Item  `json:"skin"`
}

// CheckoutPlan is the set of effects a successful checkout applies atomically.
type CheckoutPlan struct {
	Total      int64
	CashAfter  int64
	Increments map[int64]int
}

// PlanCheckout decides whether lines can be bought with cash and what the effects are.
func PlanCheckout(cash int64, lines []BasketLine) (CheckoutPlan, error) {
	if len(lines) == 0 {
		return CheckoutPlan{}, ErrEmptyBasket
	}
	total := SumLineTotals(lines)
	if cash < total {
		return CheckoutPlan{}, ErrInsufficientFunds
	}
	inc := make(map[int64]int, len(lines))
	for _, l := range lines {
		inc[l.ItemID] += l.Quantity
	}
	return CheckoutPlan{Total: total, CashAfter: cash - total, Increments: inc}, nil
}
