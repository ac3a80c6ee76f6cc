package autobid

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/clock"
	"auction-engine/internal/events"
	"auction-engine/internal/ledger"
	model "auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// instruction is a stored auto-bid plus its registration order. The sequence
// is what priority comparisons use: two registrations can share a wall-clock
// timestamp, but never a sequence number.
type instruction struct {
	model.AutoBid
	seq uint64
}

// Agent holds standing proxy-bid instructions and escalates them against the
// ledger whenever a new highest bid lands. It owns only the declared
// ceilings; the ledger owns the bids themselves.
type Agent struct {
	book *ledger.Ledger
	clk  clock.Clock
	pub  events.Publisher
	// maxIterations bounds one escalation run so misconfigured ceilings can
	// never ping-pong forever.
	maxIterations int

	mu       sync.Mutex
	standing map[string][]*instruction // auctionID -> registration order
	lastSeq  uint64
}

// NewAgent creates an Agent bound to the given ledger.
func NewAgent(book *ledger.Ledger, clk clock.Clock, pub events.Publisher, maxIterations int) *Agent {
	if maxIterations <= 0 {
		maxIterations = 100
	}
	return &Agent{
		book:          book,
		clk:           clk,
		pub:           pub,
		maxIterations: maxIterations,
		standing:      make(map[string][]*instruction),
	}
}

// Register records a ceiling for a bidder on an auction and, when the
// auction is accepting bids, immediately places the bidder's standing bid.
// Re-registering updates the ceiling but keeps the original priority.
func (a *Agent) Register(auctionID, bidderID string, ceiling decimal.Decimal) (model.AutoBid, error) {
	if auctionID == "" || bidderID == "" {
		return model.AutoBid{}, fmt.Errorf("autobid: missing auctionID or bidderID: %w", auctionerrors.ErrInvalidInput)
	}
	if !ceiling.IsPositive() {
		return model.AutoBid{}, fmt.Errorf("autobid: non-positive ceiling: %w", auctionerrors.ErrInvalidInput)
	}

	q, err := a.book.Snapshot(auctionID)
	if err != nil {
		return model.AutoBid{}, fmt.Errorf("autobid: register: %w", err)
	}
	if !q.Status.AcceptsBids() {
		return model.AutoBid{}, fmt.Errorf("autobid: auction %s in status %s: %w",
			auctionID, q.Status, auctionerrors.ErrAuctionNotActive)
	}
	if ceiling.LessThan(q.MinimumNext) && q.TopBidder != bidderID {
		return model.AutoBid{}, fmt.Errorf("autobid: ceiling %s below minimum next bid %s: %w",
			ceiling, q.MinimumNext, auctionerrors.ErrCeilingExceeded)
	}

	entry := a.upsert(auctionID, bidderID, ceiling)

	// Establish the standing bid unless the bidder already holds the top.
	if q.TopBidder != bidderID {
		amount := decimal.Min(q.MinimumNext, ceiling)
		if _, err := a.book.Append(ledger.AppendRequest{
			AuctionID:  auctionID,
			BidderID:   bidderID,
			Amount:     amount,
			MaxCeiling: &ceiling,
		}); err != nil {
			a.deactivate(auctionID, bidderID)
			return model.AutoBid{}, fmt.Errorf("autobid: standing bid: %w", err)
		}
	}

	a.React(auctionID)
	return entry, nil
}

// React runs one bounded escalation pass for the auction. It is called after
// every accepted append; each synthesized bid goes through the same ledger
// validation as a manual one.
func (a *Agent) React(auctionID string) {
	for i := 0; i < a.maxIterations; i++ {
		q, err := a.book.Snapshot(auctionID)
		if err != nil || !q.Status.AcceptsBids() {
			return
		}

		cand, ok := a.pick(auctionID, q)
		if !ok {
			return
		}

		amount := decimal.Min(q.MinimumNext, cand.MaxCeiling)
		ceiling := cand.MaxCeiling
		_, err = a.book.Append(ledger.AppendRequest{
			AuctionID:  auctionID,
			BidderID:   cand.BidderID,
			Amount:     amount,
			MaxCeiling: &ceiling,
		})
		if err != nil {
			if errors.Is(err, auctionerrors.ErrAuctionNotActive) {
				return
			}
			// Lost a race against a manual bid or another escalation; the
			// next iteration re-reads the snapshot.
			utils.Warn("autobid: escalation append rejected", map[string]any{
				"auction_id": auctionID,
				"bidder_id":  cand.BidderID,
				"error":      err.Error(),
			})
		}
	}

	utils.Error("autobid: escalation cap reached", map[string]any{
		"auction_id": auctionID,
		"cap":        a.maxIterations,
	})
}

// pick selects the next instruction to escalate: highest ceiling first,
// earliest registration on ties. Instructions that can no longer reach the
// minimum are deactivated with a ceiling_exhausted event. The chosen entry
// is returned by value so callers never read agent state outside the lock.
func (a *Agent) pick(auctionID string, q ledger.Quote) (model.AutoBid, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := append([]*instruction(nil), a.standing[auctionID]...)
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].MaxCeiling.Equal(entries[j].MaxCeiling) {
			return entries[i].MaxCeiling.GreaterThan(entries[j].MaxCeiling)
		}
		return entries[i].seq < entries[j].seq
	})

	for _, e := range entries {
		if !e.Active || e.BidderID == q.TopBidder {
			continue
		}
		if e.MaxCeiling.LessThan(q.MinimumNext) {
			e.Active = false
			a.pub.Publish(model.AuctionEvent{
				Type:      model.EventCeilingExhausted,
				AuctionID: auctionID,
				BidderID:  e.BidderID,
				Timestamp: a.clk.Now(),
			})
			continue
		}
		// At a shared ceiling the earliest-registered instruction wins:
		// a later registrant may not spend its final increment to tie or
		// pass an earlier one with the same ceiling.
		if q.MinimumNext.Equal(e.MaxCeiling) && a.earlierPeerLocked(auctionID, e) {
			e.Active = false
			a.pub.Publish(model.AuctionEvent{
				Type:      model.EventCeilingExhausted,
				AuctionID: auctionID,
				BidderID:  e.BidderID,
				Timestamp: a.clk.Now(),
			})
			continue
		}
		return e.AutoBid, true
	}
	return model.AutoBid{}, false
}

// earlierPeerLocked reports whether another active instruction with a
// ceiling at least as high was registered before e.
func (a *Agent) earlierPeerLocked(auctionID string, e *instruction) bool {
	for _, other := range a.standing[auctionID] {
		if other == e || !other.Active {
			continue
		}
		if other.MaxCeiling.GreaterThanOrEqual(e.MaxCeiling) && other.seq < e.seq {
			return true
		}
	}
	return false
}

// Standing returns the active instructions for an auction, in registration
// order.
func (a *Agent) Standing(auctionID string) []model.AutoBid {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.AutoBid, 0, len(a.standing[auctionID]))
	for _, e := range a.standing[auctionID] {
		if e.Active {
			out = append(out, e.AutoBid)
		}
	}
	return out
}

func (a *Agent) upsert(auctionID, bidderID string, ceiling decimal.Decimal) model.AutoBid {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range a.standing[auctionID] {
		if e.BidderID == bidderID {
			e.MaxCeiling = ceiling
			e.Active = true
			return e.AutoBid
		}
	}

	a.lastSeq++
	entry := &instruction{
		AutoBid: model.AutoBid{
			AuctionID:    auctionID,
			BidderID:     bidderID,
			MaxCeiling:   ceiling,
			RegisteredAt: a.clk.Now(),
			Active:       true,
		},
		seq: a.lastSeq,
	}
	a.standing[auctionID] = append(a.standing[auctionID], entry)
	return entry.AutoBid
}

func (a *Agent) deactivate(auctionID, bidderID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.standing[auctionID] {
		if e.BidderID == bidderID {
			e.Active = false
		}
	}
}
