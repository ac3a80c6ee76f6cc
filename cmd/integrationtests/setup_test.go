package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"auction-engine/internal/auctionservice"
	"auction-engine/internal/autobid"
	"auction-engine/internal/clock"
	"auction-engine/internal/events"
	"auction-engine/internal/ledger"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func decimalFromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

var ledgerConfig = ledger.Config{
	SoftCloseWindow: 30 * time.Second,
	ExtensionLength: 2 * time.Minute,
	MaxExtensions:   10,
}

// SetupTestRouter initializes the router with the full in-memory stack.
func SetupTestRouter() *gin.Engine {
	router, _ := SetupTestRouterWithAuctions()
	return router
}

// SetupTestRouterWithAuctions initializes the router and seeds the store with
// auctions. Returns the store so tests can inspect persisted state directly.
func SetupTestRouterWithAuctions(auctions ...model.Auction) (*gin.Engine, *repository.MemoryStore) {
	gin.SetMode(gin.TestMode)

	clk := clock.SystemClock{}
	store := repository.NewMemoryStore()
	bus := events.NewBus()
	book := ledger.New(store, clk, bus, ledgerConfig)
	agent := autobid.NewAgent(book, clk, bus, 100)
	service := auctionservice.NewAuctionService(store, book, agent, clk)

	for _, a := range auctions {
		if err := store.CreateAuction(a); err != nil {
			panic(err)
		}
	}

	return server.SetupRouter(service), store
}

// ActiveAuction builds an auction that is live right now.
func ActiveAuction(id string, startingPrice, minIncrement int64) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:     id,
		SellerID:      "seller1",
		Title:         "Listing " + id,
		StartingPrice: decimalFromInt(startingPrice),
		MinIncrement:  decimalFromInt(minIncrement),
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
		Status:        model.StatusActive,
		CreatedAt:     now.Add(-2 * time.Hour),
	}
}

// ExecuteRequestAndParse executes an HTTP request on the given router with
// actor identity headers and parses the response envelope.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any, actorID, role string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
	}
	if role != "" {
		req.Header.Set("X-Actor-Role", role)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}
