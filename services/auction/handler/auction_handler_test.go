package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/auctionservice"
	"auction-engine/internal/ledger"
	model "auction-engine/internal/models"
	"auction-engine/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestRouter(t *testing.T) (*gin.Engine, *MockAuctionServiceInterface) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockService := NewMockAuctionServiceInterface(ctrl)
	h := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", h.CreateAuctionHandler)
	router.POST("/auctions/:auction_id/publish", h.PublishAuctionHandler)
	router.POST("/auctions/:auction_id/cancel", h.CancelAuctionHandler)
	router.POST("/auctions/:auction_id/close", h.CloseAuctionHandler)
	router.GET("/auctions/:auction_id", h.GetAuctionHandler)
	router.GET("/auctions/:auction_id/bids", h.GetBidsByAuctionHandler)
	router.GET("/auctions/:auction_id/winning", h.GetWinningBidHandler)
	router.POST("/bids", h.RecordBidHandler)
	router.POST("/autobids", h.RegisterAutoBidHandler)
	router.GET("/bidders/:bidder_id/auctions", h.GetAuctionsByBidderHandler)
	return router, mockService
}

func doRequest(t *testing.T, router *gin.Engine, method, url string, body any, actorID, role string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		reqBody = b
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
	}
	if role != "" {
		req.Header.Set("X-Actor-Role", role)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// Test RecordBidHandler
func TestRecordBidHandler(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		requestBody    any
		actorID        string
		role           string
		mockSetup      func(m *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:        "success_valid_bid",
			requestBody: helpers.PlaceBidRequest{AuctionID: "a1", Amount: dec("101000")},
			actorID:     "bob",
			role:        "bidder",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().
					PlaceBid("a1", auctionservice.Actor{ID: "bob", Role: model.RoleBidder}, gomock.Any(), gomock.Nil()).
					Return(model.Bid{
						BidID:     uuid.NewString(),
						AuctionID: "a1",
						BidderID:  "bob",
						Amount:    dec("101000"),
						Sequence:  1,
						PlacedAt:  now,
						Status:    model.BidAccepted,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid recorded successfully",
			validateData: func(t *testing.T, data map[string]any) {
				_, parseErr := uuid.Parse(data["bid_id"].(string))
				require.NoError(t, parseErr, "BidID should be a valid UUID")
				require.Equal(t, "a1", data["auction_id"])
				require.Equal(t, "bob", data["bidder_id"])
				require.Equal(t, "101000", data["amount"])
				require.Equal(t, "accepted", data["status"])
				_, timeErr := time.Parse(time.RFC3339Nano, data["placed_at"].(string))
				require.NoError(t, timeErr)
			},
		},
		{
			name:           "invalid_json",
			requestBody:    `{invalid json}`,
			actorID:        "bob",
			role:           "bidder",
			mockSetup:      func(m *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_auction_id",
			requestBody:    map[string]any{"amount": 101000},
			actorID:        "bob",
			role:           "bidder",
			mockSetup:      func(m *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "below_minimum_maps_to_conflict",
			requestBody: helpers.PlaceBidRequest{AuctionID: "a1", Amount: dec("100500")},
			actorID:     "bob",
			role:        "bidder",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().
					PlaceBid("a1", gomock.Any(), gomock.Any(), gomock.Nil()).
					Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrBelowMinimum))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid amount too low",
		},
		{
			name:        "stale_expectation_maps_to_conflict",
			requestBody: map[string]any{"auction_id": "a1", "amount": 101000, "expected_highest": 100000},
			actorID:     "bob",
			role:        "bidder",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().
					PlaceBid("a1", gomock.Any(), gomock.Any(), gomock.Not(gomock.Nil())).
					Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrConflict))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "current highest bid changed, refresh and retry",
		},
		{
			name:        "inactive_auction",
			requestBody: helpers.PlaceBidRequest{AuctionID: "a1", Amount: dec("101000")},
			actorID:     "bob",
			role:        "bidder",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().
					PlaceBid("a1", gomock.Any(), gomock.Any(), gomock.Nil()).
					Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionNotActive))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is not accepting bids",
		},
		{
			name:        "unknown_auction",
			requestBody: helpers.PlaceBidRequest{AuctionID: "missing", Amount: dec("101000")},
			actorID:     "bob",
			role:        "bidder",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().
					PlaceBid("missing", gomock.Any(), gomock.Any(), gomock.Nil()).
					Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			router, mockService := newTestRouter(t)
			tc.mockSetup(mockService)

			w, resp := doRequest(t, router, http.MethodPost, "/bids", tc.requestBody, tc.actorID, tc.role)

			require.Equal(t, tc.expectedStatus, w.Code)
			require.Equal(t, tc.expectedMsg, resp["message"])
			if tc.validateData != nil {
				tc.validateData(t, resp["data"].(map[string]any))
			}
		})
	}
}

// Test CreateAuctionHandler
func TestCreateAuctionHandler(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	validBody := helpers.CreateAuctionRequest{
		Title:         "Villa in Riyadh",
		StartingPrice: dec("100000"),
		MinIncrement:  dec("1000"),
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
	}

	t.Run("success", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			CreateAuction(gomock.Any(), auctionservice.Actor{ID: "seller1", Role: model.RoleSeller}).
			Return(model.Auction{
				AuctionID: uuid.NewString(),
				SellerID:  "seller1",
				Title:     "Villa in Riyadh",
				Status:    model.StatusDraft,
			}, nil)

		w, resp := doRequest(t, router, http.MethodPost, "/auctions", validBody, "seller1", "seller")
		require.Equal(t, http.StatusCreated, w.Code)

		data := resp["data"].(map[string]any)
		require.Equal(t, "draft", data["status"])
		require.Equal(t, "seller1", data["seller_id"])
	})

	t.Run("forbidden_for_bidder", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			CreateAuction(gomock.Any(), auctionservice.Actor{ID: "bob", Role: model.RoleBidder}).
			Return(model.Auction{}, fmt.Errorf("service: %w", auctionerrors.ErrForbidden))

		w, resp := doRequest(t, router, http.MethodPost, "/auctions", validBody, "bob", "bidder")
		require.Equal(t, http.StatusForbidden, w.Code)
		require.Equal(t, "operation not permitted", resp["message"])
	})

	t.Run("missing_required_fields", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w, resp := doRequest(t, router, http.MethodPost, "/auctions", map[string]any{"title": "Villa"}, "seller1", "seller")
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "invalid request payload", resp["message"])
	})

	t.Run("unknown_role_defaults_to_bidder", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			CreateAuction(gomock.Any(), auctionservice.Actor{ID: "x", Role: model.RoleBidder}).
			Return(model.Auction{}, fmt.Errorf("service: %w", auctionerrors.ErrForbidden))

		w, _ := doRequest(t, router, http.MethodPost, "/auctions", validBody, "x", "superuser")
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

// Test lifecycle endpoints
func TestLifecycleHandlers(t *testing.T) {
	actor := auctionservice.Actor{ID: "seller1", Role: model.RoleSeller}

	t.Run("publish_success", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			Publish("a1", actor).
			Return(model.Auction{AuctionID: "a1", Status: model.StatusScheduled}, nil)

		w, resp := doRequest(t, router, http.MethodPost, "/auctions/a1/publish", nil, "seller1", "seller")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "scheduled", resp["data"].(map[string]any)["status"])
	})

	t.Run("cancel_success", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			Cancel("a1", actor).
			Return(model.Auction{AuctionID: "a1", Status: model.StatusCancelled}, nil)

		w, resp := doRequest(t, router, http.MethodPost, "/auctions/a1/cancel", nil, "seller1", "seller")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "cancelled", resp["data"].(map[string]any)["status"])
	})

	t.Run("close_invalid_transition", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			Close("a1", actor).
			Return(model.Auction{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidTransition))

		w, resp := doRequest(t, router, http.MethodPost, "/auctions/a1/close", nil, "seller1", "seller")
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, "invalid auction state transition", resp["message"])
	})
}

// Test GetAuctionHandler
func TestGetAuctionHandler(t *testing.T) {
	t.Run("success_hides_reserve", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		mockService.EXPECT().
			GetAuction("a1").
			Return(model.Auction{
				AuctionID:     "a1",
				Title:         "Villa in Riyadh",
				StartingPrice: dec("100000"),
				MinIncrement:  dec("1000"),
				ReservePrice:  dec("150000"),
				StartTime:     start,
				EndTime:       start.Add(time.Hour),
				Status:        model.StatusActive,
			}, ledger.Quote{
				AuctionID:      "a1",
				Status:         model.StatusActive,
				CurrentHighest: dec("101000"),
				MinimumNext:    dec("102000"),
				HasBids:        true,
				Remaining:      30 * time.Minute,
			}, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1", nil, "", "")
		require.Equal(t, http.StatusOK, w.Code)

		data := resp["data"].(map[string]any)
		require.Equal(t, "101000", data["current_highest"])
		require.Equal(t, "102000", data["minimum_next_bid"])
		require.Equal(t, float64(1800), data["remaining_seconds"])
		require.NotContains(t, data, "reserve_price", "reserve must never reach bidders")
	})

	t.Run("not_found", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			GetAuction("missing").
			Return(model.Auction{}, ledger.Quote{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionNotFound))

		w, _ := doRequest(t, router, http.MethodGet, "/auctions/missing", nil, "", "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

// Test GetBidsByAuctionHandler
func TestGetBidsByAuctionHandler(t *testing.T) {
	t.Run("with_bids", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		now := time.Now().UTC()
		mockService.EXPECT().
			GetBidsForAuction("a1").
			Return([]model.Bid{
				{BidID: "b2", AuctionID: "a1", BidderID: "carol", Amount: dec("102000"), Sequence: 2, PlacedAt: now, Status: model.BidAccepted},
				{BidID: "b1", AuctionID: "a1", BidderID: "bob", Amount: dec("101000"), Sequence: 1, PlacedAt: now, Status: model.BidOutbid},
			}, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/bids", nil, "", "")
		require.Equal(t, http.StatusOK, w.Code)

		bids := resp["data"].([]any)
		require.Len(t, bids, 2)
		require.Equal(t, "102000", bids[0].(map[string]any)["amount"])
	})

	t.Run("no_bids_is_empty_list", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			GetBidsForAuction("a1").
			Return(nil, fmt.Errorf("service: %w", auctionerrors.ErrNoBids))

		w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/bids", nil, "", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, resp["data"].([]any), 0)
	})
}

// Test GetWinningBidHandler
func TestGetWinningBidHandler(t *testing.T) {
	t.Run("no_bids_is_not_found", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			GetWinningBid("a1").
			Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrNoBids))

		w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/winning", nil, "", "")
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "no winning bid found", resp["message"])
	})
}

// Test RegisterAutoBidHandler
func TestRegisterAutoBidHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		now := time.Now().UTC()
		mockService.EXPECT().
			RegisterAutoBid("a1", auctionservice.Actor{ID: "alice", Role: model.RoleBidder}, gomock.Any()).
			Return(model.AutoBid{
				AuctionID:    "a1",
				BidderID:     "alice",
				MaxCeiling:   dec("110000"),
				RegisteredAt: now,
				Active:       true,
			}, nil)

		body := helpers.RegisterAutoBidRequest{AuctionID: "a1", MaxCeiling: dec("110000")}
		w, resp := doRequest(t, router, http.MethodPost, "/autobids", body, "alice", "bidder")
		require.Equal(t, http.StatusCreated, w.Code)

		data := resp["data"].(map[string]any)
		require.Equal(t, "alice", data["bidder_id"])
		require.Equal(t, "110000", data["max_ceiling"])
	})

	t.Run("ceiling_too_low", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			RegisterAutoBid("a1", gomock.Any(), gomock.Any()).
			Return(model.AutoBid{}, fmt.Errorf("service: %w", auctionerrors.ErrCeilingExceeded))

		body := helpers.RegisterAutoBidRequest{AuctionID: "a1", MaxCeiling: dec("100")}
		w, resp := doRequest(t, router, http.MethodPost, "/autobids", body, "alice", "bidder")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.Equal(t, "auto-bid ceiling too low", resp["message"])
	})
}

// Test GetAuctionsByBidderHandler
func TestGetAuctionsByBidderHandler(t *testing.T) {
	t.Run("bidder_with_no_bids_is_empty_list", func(t *testing.T) {
		router, mockService := newTestRouter(t)
		mockService.EXPECT().
			GetAuctionsByBidder("nobody").
			Return(nil, fmt.Errorf("service: %w", auctionerrors.ErrBidderNoBids))

		w, resp := doRequest(t, router, http.MethodGet, "/bidders/nobody/auctions", nil, "", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, resp["data"].([]any), 0)
	})
}
