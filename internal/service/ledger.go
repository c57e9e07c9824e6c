package service

import "github.com/shopspring/decimal"

// Loyalty rules.  Every completed booking earns LoyaltyAward points;
// RedeemBlock points buy a RedeemDiscount share off one booking.
const (
	LoyaltyAward = 10
	RedeemBlock  = 50
)

// RedeemDiscount is the fraction of the hourly price waived when points
// are redeemed.
var RedeemDiscount = decimal.RequireFromString("0.25")

// PriceBreakdown is the result of pricing one slot.
type PriceBreakdown struct {
	Base           decimal.Decimal `json:"base_amount"`
	Discount       decimal.Decimal `json:"discount"`
	Final          decimal.Decimal `json:"final_amount"`
	PointsToRedeem int             `json:"points_to_redeem"`
}

// PriceSlot prices one hour at the given rate.  The discount applies only
// when redemption is requested and the balance covers a full block.
// Amounts are rounded to cents.
func PriceSlot(pricePerHour decimal.Decimal, balance int, redeem bool) PriceBreakdown {
	base := pricePerHour.Round(2)
	out := PriceBreakdown{Base: base, Discount: decimal.Zero, Final: base}
	if redeem && balance >= RedeemBlock {
		out.Discount = base.Mul(RedeemDiscount).Round(2)
		out.Final = base.Sub(out.Discount)
		out.PointsToRedeem = RedeemBlock
	}
	return out
}

// BalanceAfterCommit is the balance once a booking that redeemed
// `redeemed` points is confirmed.
func BalanceAfterCommit(balance, redeemed int) int {
	return clampPoints(balance - redeemed + LoyaltyAward)
}

// BalanceAfterCancel returns the redeemed points and claws back the award.
// It exactly undoes BalanceAfterCommit unless the balance would go below
// zero, in which case it stops at zero.
func BalanceAfterCancel(balance, redeemed int) int {
	return clampPoints(balance + redeemed - LoyaltyAward)
}

func clampPoints(p int) int {
	if p < 0 {
		return 0
	}
	return p
}
