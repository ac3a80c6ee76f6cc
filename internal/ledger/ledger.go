package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/clock"
	"auction-engine/internal/events"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/statemachine"
	"auction-engine/internal/validator"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// Config holds the soft-close tuning knobs.
type Config struct {
	// SoftCloseWindow is how close to the end a bid must land to trigger
	// an extension.
	SoftCloseWindow time.Duration
	// ExtensionLength is how far the end time moves on each extension.
	ExtensionLength time.Duration
	// MaxExtensions caps anti-snipe extensions per auction.
	MaxExtensions int
}

// AppendRequest carries one bid submission into the ledger.
type AppendRequest struct {
	AuctionID string
	BidderID  string
	Amount    decimal.Decimal
	// ExpectedHighest, when set, is the current highest amount the caller
	// observed before submitting. A mismatch fails with ErrConflict so the
	// caller refreshes instead of blindly resubmitting.
	ExpectedHighest *decimal.Decimal
	// MaxCeiling is set on bids synthesized by the auto-bid agent.
	MaxCeiling *decimal.Decimal
}

// Ledger is the single owner of each auction's "current highest bid".
// Every append runs inside a per-auction critical section, so two
// concurrent submissions are serialized: exactly one becomes the new
// highest and the other fails validation or conflict detection.
type Ledger struct {
	store repository.AuctionStore
	clk   clock.Clock
	pub   events.Publisher
	cfg   Config

	// locks, seqs and last are kept for the life of the process, including
	// auctions that have reached a terminal state. The store retains those
	// auctions too, so the footprint here stays proportional to the store's;
	// an eviction hook would have to coordinate with in-flight lockFor calls.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	seqs  map[string]uint64
	last  map[string]time.Time
}

// New creates a Ledger over the given store.
func New(store repository.AuctionStore, clk clock.Clock, pub events.Publisher, cfg Config) *Ledger {
	return &Ledger{
		store: store,
		clk:   clk,
		pub:   pub,
		cfg:   cfg,
		locks: make(map[string]*sync.Mutex),
		seqs:  make(map[string]uint64),
		last:  make(map[string]time.Time),
	}
}

// lockFor returns the serialization point for one auction, creating it on
// first use. Cross-auction operations never contend with each other.
func (l *Ledger) lockFor(auctionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[auctionID]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[auctionID] = lk
	}
	return lk
}

// Append validates and commits one bid. The read of "current highest", the
// validation, and the write are a single atomic unit per auction.
func (l *Ledger) Append(req AppendRequest) (model.Bid, error) {
	lk := l.lockFor(req.AuctionID)
	lk.Lock()
	defer lk.Unlock()

	auction, err := l.store.GetAuction(req.AuctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("ledger: append: %w", err)
	}

	// A bid landing after the end time is dead even if the expiry sweeper
	// has not closed the auction yet.
	if auction.Status.AcceptsBids() && clock.HasEnded(l.clk, auction) {
		return model.Bid{}, fmt.Errorf("ledger: auction %s ended at %s: %w",
			auction.AuctionID, auction.EndTime.Format(time.RFC3339), auctionerrors.ErrAuctionNotActive)
	}

	highest := l.currentWinnerLocked(req.AuctionID)

	if req.ExpectedHighest != nil {
		actual := auction.StartingPrice
		if highest != nil {
			actual = highest.Amount
		}
		if !actual.Equal(*req.ExpectedHighest) {
			return model.Bid{}, fmt.Errorf("ledger: expected highest %s but found %s: %w",
				req.ExpectedHighest, actual, auctionerrors.ErrConflict)
		}
	}

	if highest != nil && highest.BidderID == req.BidderID && highest.Amount.Equal(req.Amount) {
		return model.Bid{}, fmt.Errorf("ledger: bidder %s already holds this exact bid: %w",
			req.BidderID, auctionerrors.ErrDuplicateBid)
	}

	if err := validator.Validate(auction, highest, req.Amount, req.BidderID); err != nil {
		return model.Bid{}, fmt.Errorf("ledger: %w", err)
	}

	bid := model.Bid{
		BidID:      utils.GenerateID(),
		AuctionID:  req.AuctionID,
		BidderID:   req.BidderID,
		Amount:     req.Amount,
		MaxCeiling: req.MaxCeiling,
		Sequence:   l.nextSequenceLocked(req.AuctionID),
		PlacedAt:   l.nextPlacedAtLocked(req.AuctionID),
		Status:     model.BidAccepted,
	}

	if err := l.store.AppendBid(bid); err != nil {
		return model.Bid{}, fmt.Errorf("ledger: append bid for auction %s: %w", req.AuctionID, err)
	}

	if highest != nil {
		if err := l.store.SetBidStatus(req.AuctionID, highest.BidID, model.BidOutbid); err != nil {
			utils.Warn("ledger: failed to mark previous bid outbid", map[string]any{
				"auction_id": req.AuctionID, "bid_id": highest.BidID, "error": err.Error(),
			})
		}
		l.pub.Publish(model.AuctionEvent{
			Type: model.EventBidOutbid, AuctionID: req.AuctionID,
			BidID: highest.BidID, BidderID: highest.BidderID, Timestamp: bid.PlacedAt,
		})
	}

	changed := false
	if !auction.ReserveMet && validator.MeetsReserve(auction, req.Amount) {
		auction.ReserveMet = true
		changed = true
	}

	if l.shouldExtend(auction) {
		auction.EndTime = auction.EndTime.Add(l.cfg.ExtensionLength)
		auction.ExtensionCount++
		if err := statemachine.Transition(&auction, model.StatusExtended); err != nil {
			return model.Bid{}, fmt.Errorf("ledger: soft close: %w", err)
		}
		changed = true
		l.pub.Publish(model.AuctionEvent{
			Type: model.EventAuctionExtended, AuctionID: req.AuctionID, Timestamp: bid.PlacedAt,
		})
	}

	if changed {
		if err := l.store.UpdateAuction(auction); err != nil {
			return model.Bid{}, fmt.Errorf("ledger: update auction %s: %w", req.AuctionID, err)
		}
	}

	l.pub.Publish(model.AuctionEvent{
		Type: model.EventBidAccepted, AuctionID: req.AuctionID,
		BidID: bid.BidID, BidderID: bid.BidderID, Timestamp: bid.PlacedAt,
	})

	return bid, nil
}

func (l *Ledger) shouldExtend(auction model.Auction) bool {
	if l.cfg.SoftCloseWindow <= 0 || l.cfg.ExtensionLength <= 0 {
		return false
	}
	if auction.ExtensionCount >= l.cfg.MaxExtensions {
		return false
	}
	return clock.Remaining(l.clk, auction) <= l.cfg.SoftCloseWindow
}

// Transition moves an auction along a non-closing lifecycle edge (publish,
// start, cancel) under the same serialization point bids use, so a bid in
// flight can never be accepted after the edge is taken.
func (l *Ledger) Transition(auctionID string, to model.AuctionStatus) (model.Auction, error) {
	lk := l.lockFor(auctionID)
	lk.Lock()
	defer lk.Unlock()

	auction, err := l.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("ledger: transition: %w", err)
	}
	if err := statemachine.Transition(&auction, to); err != nil {
		return model.Auction{}, fmt.Errorf("ledger: %w", err)
	}
	if err := l.store.UpdateAuction(auction); err != nil {
		return model.Auction{}, fmt.Errorf("ledger: transition update: %w", err)
	}

	if to == model.StatusCancelled {
		l.pub.Publish(model.AuctionEvent{
			Type: model.EventAuctionCancelled, AuctionID: auctionID, Timestamp: l.clk.Now(),
		})
	}
	return auction, nil
}

// Finalize closes an active or extended auction: sold when a highest bid
// exists and the reserve is met, closed otherwise. The winning bid is marked
// atomically with the transition.
func (l *Ledger) Finalize(auctionID string) (model.Auction, error) {
	lk := l.lockFor(auctionID)
	lk.Lock()
	defer lk.Unlock()

	auction, err := l.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("ledger: finalize: %w", err)
	}
	if !auction.Status.AcceptsBids() {
		return model.Auction{}, fmt.Errorf("ledger: finalize auction %s in status %s: %w",
			auctionID, auction.Status, auctionerrors.ErrInvalidTransition)
	}

	winner := l.currentWinnerLocked(auctionID)

	eventType := model.EventAuctionClosed
	target := model.StatusClosed
	if winner != nil && auction.ReserveMet {
		target = model.StatusSold
		eventType = model.EventAuctionSold
	}

	if err := statemachine.Transition(&auction, target); err != nil {
		return model.Auction{}, fmt.Errorf("ledger: finalize: %w", err)
	}
	if err := l.store.UpdateAuction(auction); err != nil {
		return model.Auction{}, fmt.Errorf("ledger: finalize update: %w", err)
	}

	event := model.AuctionEvent{Type: eventType, AuctionID: auctionID, Timestamp: l.clk.Now()}
	if target == model.StatusSold {
		if err := l.store.SetBidStatus(auctionID, winner.BidID, model.BidWinning); err != nil {
			return model.Auction{}, fmt.Errorf("ledger: mark winning bid: %w", err)
		}
		event.BidID = winner.BidID
		event.BidderID = winner.BidderID
	}
	l.pub.Publish(event)

	return auction, nil
}

// Quote is a consistent snapshot of an auction's bidding position.
type Quote struct {
	AuctionID      string
	Status         model.AuctionStatus
	CurrentHighest decimal.Decimal
	TopBidder      string
	MinimumNext    decimal.Decimal
	HasBids        bool
	Remaining      time.Duration
}

// Snapshot returns the auction's current bidding position: the standing
// highest amount (starting price when the ledger is empty), who holds it,
// and the minimum the next bid must reach.
func (l *Ledger) Snapshot(auctionID string) (Quote, error) {
	lk := l.lockFor(auctionID)
	lk.Lock()
	defer lk.Unlock()

	auction, err := l.store.GetAuction(auctionID)
	if err != nil {
		return Quote{}, fmt.Errorf("ledger: snapshot: %w", err)
	}

	q := Quote{
		AuctionID:      auctionID,
		Status:         auction.Status,
		CurrentHighest: auction.StartingPrice,
		Remaining:      clock.Remaining(l.clk, auction),
	}
	if highest := l.currentWinnerLocked(auctionID); highest != nil {
		q.CurrentHighest = highest.Amount
		q.TopBidder = highest.BidderID
		q.HasBids = true
	}
	q.MinimumNext = q.CurrentHighest.Add(auction.MinIncrement)
	return q, nil
}

// CurrentWinner returns the bid currently holding the auction: highest
// amount, earliest placement on ties.
func (l *Ledger) CurrentWinner(auctionID string) (model.Bid, error) {
	lk := l.lockFor(auctionID)
	lk.Lock()
	defer lk.Unlock()

	if winner := l.currentWinnerLocked(auctionID); winner != nil {
		return *winner, nil
	}
	return model.Bid{}, fmt.Errorf("ledger: current winner for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
}

// History returns the auction's bids ordered newest-amount-first, breaking
// ties newest-time-first. The ordering is server-guaranteed; clients must
// not re-derive it.
func (l *Ledger) History(auctionID string) ([]model.Bid, error) {
	bids, err := l.store.GetBidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("ledger: history: %w", err)
	}

	sort.SliceStable(bids, func(i, j int) bool {
		if !bids[i].Amount.Equal(bids[j].Amount) {
			return bids[i].Amount.GreaterThan(bids[j].Amount)
		}
		return bids[i].PlacedAt.After(bids[j].PlacedAt)
	})
	return bids, nil
}

// currentWinnerLocked scans the stored ledger for the winning entry. Callers
// must hold the auction's lock.
func (l *Ledger) currentWinnerLocked(auctionID string) *model.Bid {
	bids, err := l.store.GetBidsByAuction(auctionID)
	if err != nil || len(bids) == 0 {
		return nil
	}

	winner := bids[0]
	for _, b := range bids[1:] {
		if b.Amount.GreaterThan(winner.Amount) ||
			(b.Amount.Equal(winner.Amount) && b.PlacedAt.Before(winner.PlacedAt)) {
			winner = b
		}
	}
	return &winner
}

// nextSequenceLocked hands out the per-auction total order position.
func (l *Ledger) nextSequenceLocked(auctionID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seqs[auctionID]++
	return l.seqs[auctionID]
}

// nextPlacedAtLocked returns a server-assigned timestamp that is strictly
// monotonic within one auction even when the clock does not advance between
// appends.
func (l *Ledger) nextPlacedAtLocked(auctionID string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	if last, ok := l.last[auctionID]; ok && !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	l.last[auctionID] = now
	return now
}
