// Package pay holds the canonical container price schedule and the worker
// payout split. Every screen that shows or stores container pay goes through
// here.
package pay

import "github.com/shopspring/decimal"

// Tier is one flat-rate breakpoint: containers with at most MaxPieces pieces
// pay Price.
type Tier struct {
	MaxPieces int
	Price     decimal.Decimal
}

var (
	// Tiers must stay sorted by MaxPieces.
	Tiers = []Tier{
		{MaxPieces: 500, Price: decimal.NewFromInt(100)},
		{MaxPieces: 1500, Price: decimal.NewFromInt(130)},
		{MaxPieces: 3500, Price: decimal.NewFromInt(180)},
		{MaxPieces: 5500, Price: decimal.NewFromInt(230)},
		{MaxPieces: 7500, Price: decimal.NewFromInt(280)},
	}

	// PalletizedPrice replaces the piece tiers entirely for palletized loads.
	PalletizedPrice = decimal.NewFromInt(100)

	// OverflowRate is paid per piece beyond the last breakpoint.
	OverflowRate = decimal.RequireFromString("0.05")
)

// ContainerPrice maps a container's piece count and palletized flag to its
// flat price. Piece counts of zero or less price at zero; callers reject
// negative counts before they get here.
func ContainerPrice(piecesTotal int, palletized bool) decimal.Decimal {
	if palletized {
		return PalletizedPrice
	}
	if piecesTotal <= 0 {
		return decimal.Zero
	}
	for _, t := range Tiers {
		if piecesTotal <= t.MaxPieces {
			return t.Price
		}
	}
	last := Tiers[len(Tiers)-1]
	extra := decimal.NewFromInt(int64(piecesTotal - last.MaxPieces)).Mul(OverflowRate)
	return last.Price.Add(extra)
}
