package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/auctionservice"
	"auction-engine/internal/ledger"
	model "auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// ActorFromRequest builds the acting principal from the authenticated
// identity headers. Authentication itself is an external collaborator; the
// headers stand in for its verdict.
func ActorFromRequest(c *gin.Context) auctionservice.Actor {
	return auctionservice.Actor{
		ID:   c.GetHeader("X-Actor-ID"),
		Role: model.ParseRole(c.GetHeader("X-Actor-Role")),
	}
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request details"
	case errors.Is(err, auctionerrors.ErrForbidden):
		return http.StatusForbidden, "operation not permitted"
	case errors.Is(err, auctionerrors.ErrConflict):
		return http.StatusConflict, "current highest bid changed, refresh and retry"
	case errors.Is(err, auctionerrors.ErrBelowMinimum):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrSelfOutbid):
		return http.StatusConflict, "bidder already holds the highest bid"
	case errors.Is(err, auctionerrors.ErrDuplicateBid):
		return http.StatusConflict, "duplicate bid submission"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return http.StatusConflict, "auction is not accepting bids"
	case errors.Is(err, auctionerrors.ErrInvalidTransition):
		return http.StatusConflict, "invalid auction state transition"
	case errors.Is(err, auctionerrors.ErrCeilingExceeded):
		return http.StatusUnprocessableEntity, "auto-bid ceiling too low"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusOK, "no bids found for auction"
	case errors.Is(err, auctionerrors.ErrBidderNoBids):
		return http.StatusOK, "no auctions found for bidder"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// NewBidResponse converts a ledger bid into its wire shape.
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		Sequence:  bid.Sequence,
		PlacedAt:  bid.PlacedAt.UTC().Format(time.RFC3339Nano),
		Status:    string(bid.Status),
	}
}

// NewAuctionResponse merges the stored auction with its live quote. The
// reserve price itself never leaves the server.
func NewAuctionResponse(a model.Auction, q ledger.Quote) AuctionResponse {
	return AuctionResponse{
		AuctionID:        a.AuctionID,
		Slug:             a.Slug,
		SellerID:         a.SellerID,
		Title:            a.Title,
		StartingPrice:    a.StartingPrice,
		MinIncrement:     a.MinIncrement,
		StartTime:        a.StartTime.UTC().Format(time.RFC3339),
		EndTime:          a.EndTime.UTC().Format(time.RFC3339),
		Status:           string(a.Status),
		ExtensionCount:   a.ExtensionCount,
		ReserveMet:       a.ReserveMet,
		CurrentHighest:   q.CurrentHighest,
		MinimumNextBid:   q.MinimumNext,
		RemainingSeconds: int64(q.Remaining / time.Second),
	}
}
