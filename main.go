package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"auction-engine/internal/auctionservice"
	"auction-engine/internal/autobid"
	"auction-engine/internal/clock"
	"auction-engine/internal/config"
	"auction-engine/internal/events"
	"auction-engine/internal/ledger"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/utils"
)

func main() {
	cfg := config.Load()

	clk := clock.SystemClock{}
	store := repository.NewMemoryStore()
	bus := events.NewBus()

	book := ledger.New(store, clk, bus, ledger.Config{
		SoftCloseWindow: cfg.SoftCloseWindow,
		ExtensionLength: cfg.ExtensionLength,
		MaxExtensions:   cfg.MaxExtensions,
	})
	agent := autobid.NewAgent(book, clk, bus, cfg.AutoBidMaxIterations)
	service := auctionservice.NewAuctionService(store, book, agent, clk)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go service.RunSweeper(ctx, cfg.TickInterval)
	go logEvents(ctx, bus.Subscribe(256))

	router := server.SetupRouter(service)

	port := fmt.Sprintf(":%s", cfg.Port)
	fmt.Printf("Starting auction server on %s...\n", port)
	if err := router.Run(port); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// logEvents drains the notification stream. Real delivery (push, email,
// websocket) would consume this same channel.
func logEvents(ctx context.Context, ch <-chan model.AuctionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			utils.Info("auction event", map[string]any{
				"type":       string(ev.Type),
				"auction_id": ev.AuctionID,
				"bid_id":     ev.BidID,
				"bidder_id":  ev.BidderID,
			})
		}
	}
}
