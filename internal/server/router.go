package server

import (
	handler "auction-engine/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(service handler.AuctionServiceInterface) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(service)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.POST("/:auction_id/publish", auctionHandler.PublishAuctionHandler)
		auctions.POST("/:auction_id/cancel", auctionHandler.CancelAuctionHandler)
		auctions.POST("/:auction_id/close", auctionHandler.CloseAuctionHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetBidsByAuctionHandler)
		auctions.GET("/:auction_id/winning", auctionHandler.GetWinningBidHandler)
	}

	bids := router.Group("/bids")
	{
		bids.POST("", auctionHandler.RecordBidHandler)
	}

	autobids := router.Group("/autobids")
	{
		autobids.POST("", auctionHandler.RegisterAutoBidHandler)
	}

	bidders := router.Group("/bidders")
	{
		bidders.GET("/:bidder_id/auctions", auctionHandler.GetAuctionsByBidderHandler)
	}

	return router
}
