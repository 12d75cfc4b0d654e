package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bid-coordinator/internal/domain"
	"bid-coordinator/internal/domain/mocks"
	"bid-coordinator/internal/infrastructure/memory"
	"bid-coordinator/internal/services"
	"bid-coordinator/pkg/logger"
)

type testAPI struct {
	echo    *echo.Echo
	catalog *memory.Catalog
	manager *services.BiddingManager
	handler *services.ConcurrentBidHandler
	auction *AuctionHandler
	bids    *BidHandler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logger.NewNop()
	errs := services.NewErrorHandlingService(log)

	catalog := memory.NewCatalog()
	manager := services.NewBiddingManager(catalog, 0, 0, log)
	handler := services.NewConcurrentBidHandler(memory.NewLocker(), services.NewManagerPlacer(manager), errs,
		services.HandlerConfig{}, log)
	t.Cleanup(handler.Close)

	e := echo.New()
	g := e.Group("/api/v1")
	auctions := NewAuctionHandler(catalog, manager, errs, log)
	auctions.Register(g)
	bids := NewBidHandler(handler, catalog, manager, errs, log)
	bids.Register(g)

	return &testAPI{echo: e, catalog: catalog, manager: manager, handler: handler, auction: auctions, bids: bids}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (int, JsonResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	var resp JsonResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func (a *testAPI) seed(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, a.catalog.CreateAuction(context.Background(), &domain.Auction{
		ID: id, Title: "Art deco clock", SellerID: "seller", StartingPrice: 100,
		EndTime: time.Now().Add(time.Hour), Status: domain.AuctionActive,
	}))
}

func field(t *testing.T, data interface{}, key string) interface{} {
	t.Helper()
	m, ok := data.(map[string]interface{})
	require.True(t, ok, "data is %T", data)
	return m[key]
}

func TestCreateAuction(t *testing.T) {
	api := newTestAPI(t)

	status, resp := api.do(t, http.MethodPost, "/api/v1/auctions",
		`{"title":"Art deco clock","seller_id":"seller","starting_price":"100.00","duration_seconds":3600}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, JsonResponseStatusSuccess, resp.Status)

	id, _ := field(t, resp.Data, "id").(string)
	require.True(t, strings.HasPrefix(id, "auction_"))

	stored, err := api.catalog.GetAuction(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.StartingPrice)
	assert.Equal(t, domain.AuctionActive, stored.Status)
}

func TestCreateAuction_Invalid(t *testing.T) {
	api := newTestAPI(t)

	bodies := []string{
		`{"seller_id":"seller","starting_price":100}`,
		`{"title":"Clock","seller_id":"seller","starting_price":"-1"}`,
		`{"title":"Clock","seller_id":"seller","starting_price":100,"end_time":"2001-01-01T00:00:00Z"}`,
		`{"title":`,
	}
	for _, body := range bodies {
		status, resp := api.do(t, http.MethodPost, "/api/v1/auctions", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, JsonResponseStatusFail, resp.Status)
		assert.Equal(t, string(domain.CodeInvalidBid), field(t, resp.Data, "code"))
	}
}

func TestCreateAuction_DuplicateID(t *testing.T) {
	api := newTestAPI(t)
	require.NoError(t, api.catalog.CreateAuction(context.Background(), &domain.Auction{
		ID: "a1", Title: "Art deco clock", SellerID: "seller", StartingPrice: 100, Status: domain.AuctionEnded,
	}))

	status, resp := api.do(t, http.MethodPost, "/api/v1/auctions",
		`{"id":"a1","title":"Art deco clock","seller_id":"mallory","starting_price":1}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, string(domain.CodeAuctionExists), field(t, resp.Data, "code"))

	stored, err := api.catalog.GetAuction(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "seller", stored.SellerID)
	assert.Equal(t, domain.AuctionEnded, stored.Status)
}

func TestCreateAuction_SeedsLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := newTestAPI(t)
	ledger := mocks.NewMockBidLedger(ctrl)
	api.auction.SetLedger(ledger)

	ledger.EXPECT().InitializeAuction(gomock.Any(), "a9", 250.0).Return(nil)

	status, _ := api.do(t, http.MethodPost, "/api/v1/auctions",
		`{"id":"a9","title":"Chesterfield sofa","seller_id":"seller","starting_price":250}`)
	assert.Equal(t, http.StatusCreated, status)
}

func TestPlaceBid(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t, "a1")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   domain.ErrorCode
	}{
		{"accepted", `{"user_id":"u1","amount":"110"}`, http.StatusCreated, ""},
		{"too_low", `{"user_id":"u2","amount":115}`, http.StatusUnprocessableEntity, domain.CodeBidTooLow},
		{"seller", `{"user_id":"seller","amount":500}`, http.StatusForbidden, domain.CodeSelfBidForbidden},
		{"missing_user", `{"amount":500}`, http.StatusBadRequest, domain.CodeInvalidBid},
		{"bad_amount", `{"user_id":"u2","amount":"lots"}`, http.StatusBadRequest, domain.CodeInvalidBid},
		{"above_ceiling", `{"user_id":"u2","amount":2000000}`, http.StatusUnprocessableEntity, domain.CodeBidTooHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := api.do(t, http.MethodPost, "/api/v1/auctions/a1/bids", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantCode != "" {
				assert.Equal(t, string(tt.wantCode), field(t, resp.Data, "code"))
				return
			}
			assert.Equal(t, true, field(t, resp.Data, "success"))
		})
	}

	status, resp := api.do(t, http.MethodPost, "/api/v1/auctions/missing/bids", `{"user_id":"u1","amount":200}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "browse_auctions", field(t, resp.Data, "suggested_action"))
}

func TestPlaceBid_QueuedWhileLocked(t *testing.T) {
	log := logger.NewNop()
	errs := services.NewErrorHandlingService(log)
	catalog := memory.NewCatalog()
	manager := services.NewBiddingManager(catalog, 0, 0, log)
	locker := memory.NewLocker()
	handler := services.NewConcurrentBidHandler(locker, services.NewManagerPlacer(manager), errs, services.HandlerConfig{}, log)
	t.Cleanup(handler.Close)

	e := echo.New()
	NewBidHandler(handler, catalog, manager, errs, log).Register(e.Group("/api/v1"))
	api := &testAPI{echo: e, catalog: catalog}
	api.seed(t, "a1")

	_, err := locker.Lock(context.Background(), "a1", "maintenance")
	require.NoError(t, err)

	status, resp := api.do(t, http.MethodPost, "/api/v1/auctions/a1/bids", `{"user_id":"u1","amount":150}`)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, true, field(t, resp.Data, "queued"))
	assert.Equal(t, 1.0, field(t, resp.Data, "position"))
	assert.Len(t, handler.QueuedBids("a1"), 1)
}

func TestReadEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t, "a1")

	status, resp := api.do(t, http.MethodGet, "/api/v1/auctions/a1/winner", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, field(t, resp.Data, "winner"))

	for _, body := range []string{
		`{"user_id":"u1","amount":"110"}`,
		`{"user_id":"u2","amount":"120"}`,
		`{"user_id":"u1","amount":"130"}`,
	} {
		status, _ = api.do(t, http.MethodPost, "/api/v1/auctions/a1/bids", body)
		require.Equal(t, http.StatusCreated, status, body)
	}

	status, resp = api.do(t, http.MethodGet, "/api/v1/auctions/a1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "active", field(t, resp.Data, "status_name"))
	assert.Equal(t, 140.0, field(t, resp.Data, "minimum_bid"))

	status, resp = api.do(t, http.MethodGet, "/api/v1/auctions/a1/bids", "")
	require.Equal(t, http.StatusOK, status)
	history, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, history, 3)

	status, resp = api.do(t, http.MethodGet, "/api/v1/auctions/a1/winner", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u1", field(t, resp.Data, "winner"))
	assert.Equal(t, 130.0, field(t, resp.Data, "amount"))

	status, resp = api.do(t, http.MethodGet, "/api/v1/users/u1/bids", "")
	require.Equal(t, http.StatusOK, status)
	userBids, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, userBids, 2)

	status, _ = api.do(t, http.MethodGet, "/api/v1/auctions/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = api.do(t, http.MethodGet, "/api/v1/auctions/missing/bids", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetIncrement(t *testing.T) {
	api := newTestAPI(t)

	status, resp := api.do(t, http.MethodGet, "/api/v1/increment?price=499", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 10.0, field(t, resp.Data, "min_increment"))
	assert.Equal(t, 509.0, field(t, resp.Data, "minimum_bid"))

	status, _ = api.do(t, http.MethodGet, "/api/v1/increment?price=cheap", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBidHistory_FallsBackToArchive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := newTestAPI(t)
	api.seed(t, "a1")
	archive := mocks.NewMockBidArchive(ctrl)
	api.bids.SetArchive(archive)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	archive.EXPECT().GetBidHistory(gomock.Any(), "a1").Return([]*domain.Bid{
		{ID: "b1", AuctionID: "a1", UserID: "u1", Amount: 110, Timestamp: at},
		{ID: "b2", AuctionID: "a1", UserID: "u2", Amount: 120, Timestamp: at.Add(time.Second), IsWinning: true},
	}, nil)

	status, resp := api.do(t, http.MethodGet, "/api/v1/auctions/a1/bids", "")
	require.Equal(t, http.StatusOK, status)
	history, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, history, 2)
	assert.Equal(t, "b2", field(t, history[1], "id"))
	assert.Equal(t, true, field(t, history[1], "is_winning"))

	// Live history takes precedence once this instance has bids.
	status, _ = api.do(t, http.MethodPost, "/api/v1/auctions/a1/bids", `{"user_id":"u3","amount":"110"}`)
	require.Equal(t, http.StatusCreated, status)
	status, resp = api.do(t, http.MethodGet, "/api/v1/auctions/a1/bids", "")
	require.Equal(t, http.StatusOK, status)
	history, ok = resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, history, 1)
}

func TestBidHistory_ArchiveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := newTestAPI(t)
	api.seed(t, "a1")
	archive := mocks.NewMockBidArchive(ctrl)
	api.bids.SetArchive(archive)

	archive.EXPECT().GetBidHistory(gomock.Any(), "a1").Return(nil, errors.New("connection reset"))

	status, resp := api.do(t, http.MethodGet, "/api/v1/auctions/a1/bids", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, string(domain.CodeServerError), field(t, resp.Data, "code"))
}
