package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrBidderNoBids    = errors.New("bidder has not placed any bids")
)

// Bid acceptance errors. All are recoverable by the caller: surface them as
// a retry-with-new-amount prompt, never as a process failure.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrAuctionNotActive = errors.New("auction is not accepting bids")
	ErrBelowMinimum     = errors.New("bid below current highest plus minimum increment")
	ErrSelfOutbid       = errors.New("bidder already holds the highest bid")
	ErrDuplicateBid     = errors.New("duplicate bid submission")
	// ErrConflict means the caller lost the race for "current highest";
	// it must retry with a refreshed amount, not resubmit the same one.
	ErrConflict = errors.New("current highest bid changed")
)

// Lifecycle errors
var (
	ErrInvalidTransition = errors.New("invalid auction state transition")
	ErrCeilingExceeded   = errors.New("auto-bid ceiling cannot match required amount")
	ErrForbidden         = errors.New("actor role lacks permission")
)
