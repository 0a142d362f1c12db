package milhas

import (
	"time"

	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// Batch is the in-memory projection of one inventory lot, as needed for
// allocation. Callers load them ordered by purchase date ascending.
type Batch struct {
	ID                uint
	RemainingQuantity int64
	CostPerThousand   decimal.Decimal
	PurchaseDate      time.Time
}

// Leg records how much one allocation drew from one batch.
type Leg struct {
	BatchID  uint
	Quantity int64
	Cost     decimal.Decimal
}

// Allocation is the result of covering a required quantity from inventory.
type Allocation struct {
	Quantity  int64
	TotalCost decimal.Decimal
	// AverageCostPerThousand is the blended cost per thousand miles across
	// the batches actually drawn from: TotalCost / Quantity * 1000.
	AverageCostPerThousand decimal.Decimal
	Legs                   []Leg
}

// Allocate walks batches oldest-first (FIFO) and takes from each until the
// required quantity is covered. It never mutates inventory; use it for cost
// previews before committing a consumption.
//
// The second return is false when the active batches cannot cover quantity.
// That is a valid negative answer, not an error. Batches must already be
// ordered by purchase date ascending.
func Allocate(batches []Batch, quantity int64) (Allocation, bool, error) {
	if quantity <= 0 {
		return Allocation{}, false, ErrInvalidQuantity
	}
	alloc := Allocation{Quantity: quantity, TotalCost: decimal.Zero}
	remaining := quantity
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		if b.RemainingQuantity <= 0 {
			continue
		}
		take := remaining
		if b.RemainingQuantity < take {
			take = b.RemainingQuantity
		}
		cost := decimal.NewFromInt(take).Mul(b.CostPerThousand).Div(thousand)
		alloc.TotalCost = alloc.TotalCost.Add(cost)
		alloc.Legs = append(alloc.Legs, Leg{BatchID: b.ID, Quantity: take, Cost: cost})
		remaining -= take
	}
	if remaining > 0 {
		return Allocation{}, false, nil // insufficient stock
	}
	alloc.AverageCostPerThousand = alloc.TotalCost.Mul(thousand).Div(decimal.NewFromInt(quantity))
	return alloc, true, nil
}

// PurchaseValue is the money spent acquiring quantity miles at the given
// cost per thousand: quantity / 1000 * costPerThousand.
func PurchaseValue(quantity int64, costPerThousand decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(quantity).Mul(costPerThousand).Div(thousand)
}
