package validator

import (
	"fmt"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// MinimumAcceptable returns the lowest amount the next bid may carry:
// current highest plus the auction's minimum increment, where the current
// highest defaults to the starting price when the ledger is empty.
func MinimumAcceptable(a model.Auction, highest *model.Bid) decimal.Decimal {
	base := a.StartingPrice
	if highest != nil {
		base = highest.Amount
	}
	return base.Add(a.MinIncrement)
}

// Validate applies the bid acceptance rules in order and returns the first
// violation, or nil when the bid is acceptable. It has no side effects; the
// caller commits accepted bids to the ledger atomically.
//
// A bid below the reserve price is still acceptable — the reserve only
// affects closing behavior, never bid admission.
func Validate(a model.Auction, highest *model.Bid, amount decimal.Decimal, bidderID string) error {
	if !a.Status.AcceptsBids() {
		return fmt.Errorf("auction %s in status %s: %w", a.AuctionID, a.Status, auctionerrors.ErrAuctionNotActive)
	}

	if minimum := MinimumAcceptable(a, highest); amount.LessThan(minimum) {
		return fmt.Errorf("bid %s below minimum %s: %w", amount, minimum, auctionerrors.ErrBelowMinimum)
	}

	if highest != nil && highest.BidderID == bidderID {
		return fmt.Errorf("bidder %s: %w", bidderID, auctionerrors.ErrSelfOutbid)
	}

	return nil
}

// MeetsReserve reports whether the amount satisfies the auction's reserve.
// Auctions without a reserve are always satisfied.
func MeetsReserve(a model.Auction, amount decimal.Decimal) bool {
	if !a.HasReserve() {
		return true
	}
	return amount.GreaterThanOrEqual(a.ReservePrice)
}
