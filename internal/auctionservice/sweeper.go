package auctionservice

import (
	"context"
	"errors"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/clock"
	model "auction-engine/internal/models"
	"auction-engine/utils"
)

// StartDue activates every scheduled auction whose start time has passed.
// Returns the number of auctions activated.
func (s *AuctionService) StartDue() int {
	auctions, err := s.store.ListAuctionsByStatus(model.StatusScheduled)
	if err != nil {
		utils.Error("sweeper: failed to list scheduled auctions", map[string]any{"error": err.Error()})
		return 0
	}

	started := 0
	for _, a := range auctions {
		if !clock.HasStarted(s.clk, a) {
			continue
		}
		if _, err := s.book.Transition(a.AuctionID, model.StatusActive); err != nil {
			// Someone else took the edge first; the transition is one-shot.
			if !errors.Is(err, auctionerrors.ErrInvalidTransition) {
				utils.Error("sweeper: failed to activate auction", map[string]any{
					"auction_id": a.AuctionID, "error": err.Error(),
				})
			}
			continue
		}
		started++
	}
	return started
}

// CloseExpired finalizes every active or extended auction whose end time has
// passed. The zero-crossing is edge-triggered: once an auction is terminal
// the state machine refuses a second close. Returns the number finalized.
func (s *AuctionService) CloseExpired() int {
	auctions, err := s.store.ListAuctionsByStatus(model.StatusActive, model.StatusExtended)
	if err != nil {
		utils.Error("sweeper: failed to list running auctions", map[string]any{"error": err.Error()})
		return 0
	}

	closed := 0
	for _, a := range auctions {
		if !clock.HasEnded(s.clk, a) {
			continue
		}
		auction, err := s.book.Finalize(a.AuctionID)
		if err != nil {
			if !errors.Is(err, auctionerrors.ErrInvalidTransition) {
				utils.Error("sweeper: failed to finalize auction", map[string]any{
					"auction_id": a.AuctionID, "error": err.Error(),
				})
			}
			continue
		}
		utils.Info("sweeper: auction finalized", map[string]any{
			"auction_id": auction.AuctionID,
			"status":     string(auction.Status),
		})
		closed++
	}
	return closed
}

// RunSweeper polls for due transitions until the context is cancelled.
func (s *AuctionService) RunSweeper(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.StartDue()
			s.CloseExpired()
		}
	}
}
