package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction.
type AuctionStatus string

const (
	StatusDraft     AuctionStatus = "draft"
	StatusScheduled AuctionStatus = "scheduled"
	StatusActive    AuctionStatus = "active"
	StatusExtended  AuctionStatus = "extended"
	StatusClosed    AuctionStatus = "closed"
	StatusSold      AuctionStatus = "sold"
	StatusCancelled AuctionStatus = "cancelled"
)

// IsTerminal reports whether no further transitions or bids are allowed.
func (s AuctionStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusSold || s == StatusCancelled
}

// AcceptsBids reports whether the auction may accept bids in this state.
func (s AuctionStatus) AcceptsBids() bool {
	return s == StatusActive || s == StatusExtended
}

// BidStatus tracks a bid through its life in the ledger.
type BidStatus string

const (
	BidAccepted BidStatus = "accepted"
	BidOutbid   BidStatus = "outbid"
	BidWinning  BidStatus = "winning"
)

// Auction represents a single listing under the hammer.
//
// ReservePrice is optional: a zero decimal means no reserve. It is never
// serialized to bidders; only the ReserveMet flag leaks whether the reserve
// has been reached.
type Auction struct {
	AuctionID      string          `json:"auction_id"`
	Slug           string          `json:"slug"`
	SellerID       string          `json:"seller_id"`
	Title          string          `json:"title"`
	StartingPrice  decimal.Decimal `json:"starting_price"`
	ReservePrice   decimal.Decimal `json:"-"`
	MinIncrement   decimal.Decimal `json:"min_increment"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	Status         AuctionStatus   `json:"status"`
	ExtensionCount int             `json:"extension_count"`
	ReserveMet     bool            `json:"reserve_met"`
	CreatedAt      time.Time       `json:"created_at"`
}

// HasReserve reports whether a reserve price was set at creation.
func (a Auction) HasReserve() bool {
	return a.ReservePrice.IsPositive()
}

// Bid is one accepted entry in an auction's ledger. Immutable after
// creation except for Status, which later bids or closure may change.
type Bid struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	// MaxCeiling is set only on bids synthesized by the auto-bid agent.
	MaxCeiling *decimal.Decimal `json:"max_ceiling,omitempty"`
	Sequence   uint64           `json:"sequence"`
	PlacedAt   time.Time        `json:"placed_at"`
	Status     BidStatus        `json:"status"`
}

// AutoBid is a standing instruction to bid on an auction up to a ceiling.
type AutoBid struct {
	AuctionID    string          `json:"auction_id"`
	BidderID     string          `json:"bidder_id"`
	MaxCeiling   decimal.Decimal `json:"max_ceiling"`
	RegisteredAt time.Time       `json:"registered_at"`
	Active       bool            `json:"active"`
}
