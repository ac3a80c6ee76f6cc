package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/auctionservice"
	"auction-engine/internal/ledger"
	model "auction-engine/internal/models"
	"auction-engine/services/auction/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	CreateAuction(params auctionservice.CreateAuctionParams, actor auctionservice.Actor) (model.Auction, error)
	Publish(auctionID string, actor auctionservice.Actor) (model.Auction, error)
	Cancel(auctionID string, actor auctionservice.Actor) (model.Auction, error)
	Close(auctionID string, actor auctionservice.Actor) (model.Auction, error)
	PlaceBid(auctionID string, actor auctionservice.Actor, amount decimal.Decimal, expectedHighest *decimal.Decimal) (model.Bid, error)
	RegisterAutoBid(auctionID string, actor auctionservice.Actor, ceiling decimal.Decimal) (model.AutoBid, error)
	GetAuction(auctionID string) (model.Auction, ledger.Quote, error)
	GetBidsForAuction(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)
	GetAuctionsByBidder(bidderID string) ([]model.Auction, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	actor := helpers.ActorFromRequest(c)
	auction, err := h.service.CreateAuction(auctionservice.CreateAuctionParams{
		Title:         req.Title,
		StartingPrice: req.StartingPrice,
		ReservePrice:  req.ReservePrice,
		MinIncrement:  req.MinIncrement,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	}, actor)
	if err != nil {
		h.respondError(c, "CreateAuctionHandler", err, map[string]any{"seller_id": actor.ID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, auction, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"seller_id":  actor.ID,
	})
}

// transitionHandler builds a handler for one lifecycle endpoint.
func (h *AuctionHandler) transitionHandler(name string, op func(string, auctionservice.Actor) (model.Auction, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		auctionID := c.Param("auction_id")
		actor := helpers.ActorFromRequest(c)

		auction, err := op(auctionID, actor)
		if err != nil {
			h.respondError(c, name, err, map[string]any{"auction_id": auctionID, "actor_id": actor.ID})
			return
		}

		utils.JSONResponse(c, http.StatusOK, auction, "auction updated successfully")
		helpers.LogSuccess(name, "auction updated successfully", map[string]any{
			"auction_id": auction.AuctionID,
			"status":     string(auction.Status),
		})
	}
}

// PublishAuctionHandler handles POST /auctions/:auction_id/publish
func (h *AuctionHandler) PublishAuctionHandler(c *gin.Context) {
	h.transitionHandler("PublishAuctionHandler", h.service.Publish)(c)
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	h.transitionHandler("CancelAuctionHandler", h.service.Cancel)(c)
}

// CloseAuctionHandler handles POST /auctions/:auction_id/close
func (h *AuctionHandler) CloseAuctionHandler(c *gin.Context) {
	h.transitionHandler("CloseAuctionHandler", h.service.Close)(c)
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, quote, err := h.service.GetAuction(auctionID)
	if err != nil {
		h.respondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction, quote), "auction retrieved successfully")
}

// RecordBidHandler handles POST /bids
func (h *AuctionHandler) RecordBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RecordBidHandler", err)
		return
	}

	actor := helpers.ActorFromRequest(c)
	bid, err := h.service.PlaceBid(req.AuctionID, actor, req.Amount, req.ExpectedHighest)
	if err != nil {
		h.respondError(c, "RecordBidHandler", err, map[string]any{
			"auction_id": req.AuctionID,
			"bidder_id":  actor.ID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("RecordBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
	})
}

// RegisterAutoBidHandler handles POST /autobids
func (h *AuctionHandler) RegisterAutoBidHandler(c *gin.Context) {
	var req helpers.RegisterAutoBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterAutoBidHandler", err)
		return
	}

	actor := helpers.ActorFromRequest(c)
	entry, err := h.service.RegisterAutoBid(req.AuctionID, actor, req.MaxCeiling)
	if err != nil {
		h.respondError(c, "RegisterAutoBidHandler", err, map[string]any{
			"auction_id": req.AuctionID,
			"bidder_id":  actor.ID,
		})
		return
	}

	resp := helpers.AutoBidResponse{
		AuctionID:    entry.AuctionID,
		BidderID:     entry.BidderID,
		MaxCeiling:   entry.MaxCeiling,
		RegisteredAt: entry.RegisteredAt.UTC().Format(time.RFC3339Nano),
	}
	utils.JSONResponse(c, http.StatusCreated, resp, "auto-bid registered successfully")
	helpers.LogSuccess("RegisterAutoBidHandler", "auto-bid registered successfully", map[string]any{
		"auction_id": entry.AuctionID,
		"bidder_id":  entry.BidderID,
		"ceiling":    entry.MaxCeiling.String(),
	})
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidsForAuction(auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		h.respondError(c, "GetBidsByAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// GetWinningBidHandler handles GET /auctions/:auction_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.GetWinningBid(auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"auction_id": auctionID})
			return
		}
		h.respondError(c, "GetWinningBidHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
}

// GetAuctionsByBidderHandler handles GET /bidders/:bidder_id/auctions
func (h *AuctionHandler) GetAuctionsByBidderHandler(c *gin.Context) {
	bidderID := c.Param("bidder_id")
	auctions, err := h.service.GetAuctionsByBidder(bidderID)
	if err != nil && !errors.Is(err, auctionerrors.ErrBidderNoBids) {
		h.respondError(c, "GetAuctionsByBidderHandler", err, map[string]any{"bidder_id": bidderID})
		return
	}

	if auctions == nil {
		auctions = []model.Auction{}
	}

	utils.JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
	helpers.LogSuccess("GetAuctionsByBidderHandler", "auctions retrieved successfully", map[string]any{
		"bidder_id": bidderID,
		"count":     len(auctions),
	})
}

func (h *AuctionHandler) respondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := helpers.MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	fields["error"] = err.Error()
	utils.Warn(handlerName+": request failed", fields)
}
