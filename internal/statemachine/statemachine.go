package statemachine

import (
	"fmt"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
)

// transitions holds the legal lifecycle edges. Terminal states have no
// outgoing edges; attempts to leave them fail loudly with
// ErrInvalidTransition rather than being silently ignored.
var transitions = map[model.AuctionStatus][]model.AuctionStatus{
	model.StatusDraft:     {model.StatusScheduled, model.StatusCancelled},
	model.StatusScheduled: {model.StatusActive, model.StatusCancelled},
	model.StatusActive:    {model.StatusExtended, model.StatusClosed, model.StatusSold, model.StatusCancelled},
	model.StatusExtended:  {model.StatusExtended, model.StatusClosed, model.StatusSold, model.StatusCancelled},
	model.StatusClosed:    {},
	model.StatusSold:      {},
	model.StatusCancelled: {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to model.AuctionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and applies a status change on the auction.
// The auction is modified in place only when the edge is legal.
func Transition(a *model.Auction, to model.AuctionStatus) error {
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("transition %s -> %s for auction %s: %w",
			a.Status, to, a.AuctionID, auctionerrors.ErrInvalidTransition)
	}
	a.Status = to
	return nil
}
