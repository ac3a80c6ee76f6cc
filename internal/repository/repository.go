package repository

import (
	"fmt"
	"sync"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionStore defines the durable storage interface for auctions and their
// bid ledgers. Implementations must be safe for concurrent use; the ledger
// layer provides the per-auction serialization on top of it.
type AuctionStore interface {
	CreateAuction(a model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	UpdateAuction(a model.Auction) error
	ListAuctionsByStatus(statuses ...model.AuctionStatus) ([]model.Auction, error)

	AppendBid(bid model.Bid) error
	GetBidsByAuction(auctionID string) ([]model.Bid, error)
	SetBidStatus(auctionID, bidID string, status model.BidStatus) error
	GetAuctionsByBidder(bidderID string) ([]model.Auction, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore
type MemoryStore struct {
	mu             sync.RWMutex
	auctions       map[string]model.Auction // key: auctionID
	bids           map[string][]model.Bid   // key: auctionID -> bids in ledger order
	bidderAuctions map[string][]string      // key: bidderID -> auctionIDs bid on
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions:       make(map[string]model.Auction),
		bids:           make(map[string][]model.Bid),
		bidderAuctions: make(map[string][]string),
	}
}

// CreateAuction stores a new auction, rejecting duplicate IDs.
func (s *MemoryStore) CreateAuction(a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.AuctionID]; ok {
		return fmt.Errorf("create auction %s: %w", a.AuctionID, auctionerrors.ErrInvalidInput)
	}
	s.auctions[a.AuctionID] = a
	return nil
}

// GetAuction returns the auction with the given ID.
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// UpdateAuction replaces the stored auction record.
func (s *MemoryStore) UpdateAuction(a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.AuctionID]; !ok {
		return fmt.Errorf("update auction %s: %w", a.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	s.auctions[a.AuctionID] = a
	return nil
}

// ListAuctionsByStatus returns all auctions whose status matches any of the
// given statuses. No statuses means all auctions.
func (s *MemoryStore) ListAuctionsByStatus(statuses ...model.AuctionStatus) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := func(st model.AuctionStatus) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, want := range statuses {
			if st == want {
				return true
			}
		}
		return false
	}

	out := make([]model.Auction, 0)
	for _, a := range s.auctions {
		if match(a.Status) {
			out = append(out, a)
		}
	}
	return out, nil
}

// AppendBid records a bid at the tail of its auction's ledger.
func (s *MemoryStore) AppendBid(bid model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], bid)

	for _, id := range s.bidderAuctions[bid.BidderID] {
		if id == bid.AuctionID {
			return nil
		}
	}
	s.bidderAuctions[bid.BidderID] = append(s.bidderAuctions[bid.BidderID], bid.AuctionID)

	return nil
}

// GetBidsByAuction returns all bids for an auction in ledger order.
func (s *MemoryStore) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids, ok := s.bids[auctionID]
	if !ok || len(bids) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), bids...), nil
}

// SetBidStatus updates the status of a single ledger entry.
func (s *MemoryStore) SetBidStatus(auctionID, bidID string, status model.BidStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bids, ok := s.bids[auctionID]
	if !ok {
		return fmt.Errorf("set bid status for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	for i := range bids {
		if bids[i].BidID == bidID {
			bids[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("set bid status: bid %s in auction %s: %w", bidID, auctionID, auctionerrors.ErrNoBids)
}

// GetAuctionsByBidder returns all auctions a bidder has bid on.
func (s *MemoryStore) GetAuctionsByBidder(bidderID string) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auctionIDs, ok := s.bidderAuctions[bidderID]
	if !ok || len(auctionIDs) == 0 {
		return nil, fmt.Errorf("get auctions for bidder %s: %w", bidderID, auctionerrors.ErrBidderNoBids)
	}

	auctions := make([]model.Auction, 0, len(auctionIDs))
	for _, id := range auctionIDs {
		if a, exists := s.auctions[id]; exists {
			auctions = append(auctions, a)
		}
	}
	return auctions, nil
}
