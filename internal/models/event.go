package models

import "time"

// EventType names a notification emitted by the ledger or state machine.
type EventType string

const (
	EventBidAccepted      EventType = "bid_accepted"
	EventBidOutbid        EventType = "bid_outbid"
	EventAuctionExtended  EventType = "auction_extended"
	EventAuctionClosed    EventType = "auction_closed"
	EventAuctionSold      EventType = "auction_sold"
	EventAuctionCancelled EventType = "auction_cancelled"
	EventCeilingExhausted EventType = "ceiling_exhausted"
)

// AuctionEvent is a fire-and-forget notification; delivery (push, email,
// websocket) belongs to whatever consumes the stream.
type AuctionEvent struct {
	Type      EventType `json:"type"`
	AuctionID string    `json:"auction_id"`
	BidID     string    `json:"bid_id,omitempty"`
	BidderID  string    `json:"bidder_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
