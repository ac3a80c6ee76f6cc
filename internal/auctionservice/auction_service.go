package auctionservice

import (
	"fmt"
	"strings"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/autobid"
	"auction-engine/internal/clock"
	"auction-engine/internal/ledger"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// Actor identifies who is asking for an operation. Identity comes from an
// external provider; the service only checks the permission matrix.
type Actor struct {
	ID   string
	Role model.Role
}

// CreateAuctionParams carries the seller's listing input.
type CreateAuctionParams struct {
	Title         string
	StartingPrice decimal.Decimal
	ReservePrice  decimal.Decimal
	MinIncrement  decimal.Decimal
	StartTime     time.Time
	EndTime       time.Time
}

// AuctionService owns the business rules around auction lifecycle and
// bidding. All bid writes go through the ledger; the service never touches
// "current highest" on its own.
type AuctionService struct {
	store repository.AuctionStore
	book  *ledger.Ledger
	agent *autobid.Agent
	clk   clock.Clock
}

// NewAuctionService creates an AuctionService instance.
func NewAuctionService(store repository.AuctionStore, book *ledger.Ledger, agent *autobid.Agent, clk clock.Clock) *AuctionService {
	return &AuctionService{
		store: store,
		book:  book,
		agent: agent,
		clk:   clk,
	}
}

// CreateAuction registers a new listing in draft status.
func (s *AuctionService) CreateAuction(params CreateAuctionParams, actor Actor) (model.Auction, error) {
	if !actor.Role.Can(model.PermManageAuction) {
		return model.Auction{}, fmt.Errorf("service: create auction as %s: %w", actor.Role, auctionerrors.ErrForbidden)
	}
	if actor.ID == "" || params.Title == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing seller or title", auctionerrors.ErrInvalidInput)
	}
	if !params.StartingPrice.IsPositive() || !params.MinIncrement.IsPositive() {
		return model.Auction{}, fmt.Errorf("service: %w - starting price and increment must be positive", auctionerrors.ErrInvalidInput)
	}
	if params.ReservePrice.IsNegative() {
		return model.Auction{}, fmt.Errorf("service: %w - negative reserve price", auctionerrors.ErrInvalidInput)
	}
	if !params.EndTime.After(params.StartTime) {
		return model.Auction{}, fmt.Errorf("service: %w - end time must be after start time", auctionerrors.ErrInvalidInput)
	}

	id := utils.GenerateID()
	auction := model.Auction{
		AuctionID:     id,
		Slug:          slugify(params.Title, id),
		SellerID:      actor.ID,
		Title:         params.Title,
		StartingPrice: params.StartingPrice,
		ReservePrice:  params.ReservePrice,
		MinIncrement:  params.MinIncrement,
		StartTime:     params.StartTime.UTC(),
		EndTime:       params.EndTime.UTC(),
		Status:        model.StatusDraft,
		CreatedAt:     s.clk.Now(),
	}

	if err := s.store.CreateAuction(auction); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction: %w", err)
	}
	return auction, nil
}

// Publish moves a draft auction to scheduled; the sweeper activates it once
// the start time passes.
func (s *AuctionService) Publish(auctionID string, actor Actor) (model.Auction, error) {
	if err := s.checkManage(auctionID, actor); err != nil {
		return model.Auction{}, err
	}
	auction, err := s.book.Transition(auctionID, model.StatusScheduled)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: publish auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// Cancel irreversibly cancels a non-terminal auction.
func (s *AuctionService) Cancel(auctionID string, actor Actor) (model.Auction, error) {
	if err := s.checkManage(auctionID, actor); err != nil {
		return model.Auction{}, err
	}
	auction, err := s.book.Transition(auctionID, model.StatusCancelled)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: cancel auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// Close finalizes an active auction ahead of its end time: sold when a
// highest bid meets the reserve, closed otherwise.
func (s *AuctionService) Close(auctionID string, actor Actor) (model.Auction, error) {
	if err := s.checkManage(auctionID, actor); err != nil {
		return model.Auction{}, err
	}
	auction, err := s.book.Finalize(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: close auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// PlaceBid validates and commits a manual bid, then lets the auto-bid agent
// respond. ExpectedHighest, when non-nil, makes the submission
// compare-and-set: the ledger rejects it with ErrConflict if someone else
// moved the price first.
func (s *AuctionService) PlaceBid(auctionID string, actor Actor, amount decimal.Decimal, expectedHighest *decimal.Decimal) (model.Bid, error) {
	if !actor.Role.Can(model.PermPlaceBid) {
		return model.Bid{}, fmt.Errorf("service: place bid as %s: %w", actor.Role, auctionerrors.ErrForbidden)
	}
	if auctionID == "" || actor.ID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidInput)
	}

	bid, err := s.book.Append(ledger.AppendRequest{
		AuctionID:       auctionID,
		BidderID:        actor.ID,
		Amount:          amount,
		ExpectedHighest: expectedHighest,
	})
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to record bid for auction %s by bidder %s: %w", auctionID, actor.ID, err)
	}

	s.agent.React(auctionID)
	return bid, nil
}

// RegisterAutoBid stores a proxy-bid ceiling and places the standing bid.
func (s *AuctionService) RegisterAutoBid(auctionID string, actor Actor, ceiling decimal.Decimal) (model.AutoBid, error) {
	if !actor.Role.Can(model.PermPlaceBid) {
		return model.AutoBid{}, fmt.Errorf("service: register auto-bid as %s: %w", actor.Role, auctionerrors.ErrForbidden)
	}
	entry, err := s.agent.Register(auctionID, actor.ID, ceiling)
	if err != nil {
		return model.AutoBid{}, fmt.Errorf("service: failed to register auto-bid for auction %s: %w", auctionID, err)
	}
	return entry, nil
}

// GetAuction returns the auction together with its live bidding position.
func (s *AuctionService) GetAuction(auctionID string) (model.Auction, ledger.Quote, error) {
	if auctionID == "" {
		return model.Auction{}, ledger.Quote{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}
	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, ledger.Quote{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	quote, err := s.book.Snapshot(auctionID)
	if err != nil {
		return model.Auction{}, ledger.Quote{}, fmt.Errorf("service: failed to snapshot auction %s: %w", auctionID, err)
	}
	return auction, quote, nil
}

// GetBidsForAuction returns the auction's bid history in the ledger's
// guaranteed order.
func (s *AuctionService) GetBidsForAuction(auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}
	bids, err := s.book.History(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetWinningBid returns the bid currently holding the auction.
func (s *AuctionService) GetWinningBid(auctionID string) (model.Bid, error) {
	if auctionID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}
	bid, err := s.book.CurrentWinner(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get winning bid for auction %s: %w", auctionID, err)
	}
	return bid, nil
}

// GetAuctionsByBidder returns all auctions a bidder has placed bids on.
func (s *AuctionService) GetAuctionsByBidder(bidderID string) ([]model.Auction, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("service: %w - empty bidder ID", auctionerrors.ErrInvalidInput)
	}
	auctions, err := s.store.GetAuctionsByBidder(bidderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auctions for bidder %s: %w", bidderID, err)
	}
	return auctions, nil
}

// checkManage verifies the actor may manage the auction: sellers manage only
// their own listings, admins manage any.
func (s *AuctionService) checkManage(auctionID string, actor Actor) error {
	if !actor.Role.Can(model.PermManageAuction) {
		return fmt.Errorf("service: manage auction as %s: %w", actor.Role, auctionerrors.ErrForbidden)
	}
	if auctionID == "" {
		return fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}
	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	if actor.Role != model.RoleAdmin && auction.SellerID != actor.ID {
		return fmt.Errorf("service: auction %s belongs to another seller: %w", auctionID, auctionerrors.ErrForbidden)
	}
	return nil
}

func slugify(title, id string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Join(strings.Fields(slug), "-")
	if len(id) >= 8 {
		slug += "-" + id[:8]
	}
	return slug
}
