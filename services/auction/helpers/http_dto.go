package helpers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type CreateAuctionRequest struct {
	Title         string          `json:"title" binding:"required"`
	StartingPrice decimal.Decimal `json:"starting_price" binding:"required"`
	ReservePrice  decimal.Decimal `json:"reserve_price"`
	MinIncrement  decimal.Decimal `json:"min_increment" binding:"required"`
	StartTime     time.Time       `json:"start_time" binding:"required"`
	EndTime       time.Time       `json:"end_time" binding:"required"`
}

type PlaceBidRequest struct {
	AuctionID string          `json:"auction_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	// ExpectedHighest makes the submission compare-and-set: it must match
	// the server's current highest or the bid fails with a conflict.
	ExpectedHighest *decimal.Decimal `json:"expected_highest,omitempty"`
}

type RegisterAutoBidRequest struct {
	AuctionID  string          `json:"auction_id" binding:"required"`
	MaxCeiling decimal.Decimal `json:"max_ceiling" binding:"required"`
}

type BidResponse struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Sequence  uint64          `json:"sequence"`
	PlacedAt  string          `json:"placed_at"`
	Status    string          `json:"status"`
}

type AuctionResponse struct {
	AuctionID        string          `json:"auction_id"`
	Slug             string          `json:"slug"`
	SellerID         string          `json:"seller_id"`
	Title            string          `json:"title"`
	StartingPrice    decimal.Decimal `json:"starting_price"`
	MinIncrement     decimal.Decimal `json:"min_increment"`
	StartTime        string          `json:"start_time"`
	EndTime          string          `json:"end_time"`
	Status           string          `json:"status"`
	ExtensionCount   int             `json:"extension_count"`
	ReserveMet       bool            `json:"reserve_met"`
	CurrentHighest   decimal.Decimal `json:"current_highest"`
	MinimumNextBid   decimal.Decimal `json:"minimum_next_bid"`
	RemainingSeconds int64           `json:"remaining_seconds"`
}

type AutoBidResponse struct {
	AuctionID    string          `json:"auction_id"`
	BidderID     string          `json:"bidder_id"`
	MaxCeiling   decimal.Decimal `json:"max_ceiling"`
	RegisteredAt string          `json:"registered_at"`
}
