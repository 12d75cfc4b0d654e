package handlers

import (
	"context"
	"net/http"

	"bid-coordinator/internal/domain"
	"bid-coordinator/internal/services"
	"bid-coordinator/pkg/logger"
	"bid-coordinator/pkg/utils"

	"github.com/labstack/echo/v4"
)

// BidSubmitter is the entry point bids go through.
type BidSubmitter interface {
	HandleConcurrentBid(ctx context.Context, data domain.BidData, bidder domain.Bidder) (*domain.BidResult, error)
}

type BidHandler struct {
	bids    BidSubmitter
	catalog domain.AuctionCatalog
	archive domain.BidArchive
	manager *services.BiddingManager
	errs    *services.ErrorHandlingService
	log     logger.Logger
}

func NewBidHandler(bids BidSubmitter, catalog domain.AuctionCatalog, manager *services.BiddingManager,
	errs *services.ErrorHandlingService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bids:    bids,
		catalog: catalog,
		manager: manager,
		errs:    errs,
		log:     log,
	}
}

// SetArchive makes bid history fall back to archived bids when this
// instance holds none for the auction, as after a restart.
func (h *BidHandler) SetArchive(archive domain.BidArchive) {
	h.archive = archive
}

func (h *BidHandler) Register(g *echo.Group) {
	g.POST("/auctions/:id/bids", h.PlaceBid)
	g.GET("/auctions/:id/bids", h.GetBidHistory)
	g.GET("/users/:userID/bids", h.GetUserBids)
}

type placeBidRequest struct {
	UserID string      `json:"user_id"`
	Amount interface{} `json:"amount"`
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	var req placeBidRequest
	if err := c.Bind(&req); err != nil {
		return makeErrorResp(c, h.errs, domain.WrapBidError(domain.CodeInvalidBid, err, "malformed bid"))
	}

	amount, err := utils.ParseAmountValue(req.Amount)
	if err != nil {
		return makeErrorResp(c, h.errs, domain.WrapBidError(domain.CodeInvalidBid, err, "invalid amount"))
	}

	result, err := h.bids.HandleConcurrentBid(c.Request().Context(),
		domain.BidData{AuctionID: c.Param("id"), Amount: amount},
		domain.Bidder{UserID: req.UserID})
	if err != nil {
		return makeErrorResp(c, h.errs, err)
	}

	if result.Queued {
		return makeJsonResp(c, http.StatusAccepted, result)
	}
	return makeJsonResp(c, http.StatusCreated, result)
}

func (h *BidHandler) GetBidHistory(c echo.Context) error {
	auctionID := c.Param("id")
	ctx := c.Request().Context()
	if _, err := h.catalog.GetAuction(ctx, auctionID); err != nil {
		return makeErrorResp(c, h.errs, err)
	}

	history := h.manager.GetBidHistory(auctionID)
	if len(history) > 0 || h.archive == nil {
		return makeJsonResp(c, http.StatusOK, history)
	}

	archived, err := h.archive.GetBidHistory(ctx, auctionID)
	if err != nil {
		h.log.Error("Failed to read archived bids", "auction_id", auctionID, "error", err)
		return makeErrorResp(c, h.errs, domain.WrapBidError(domain.CodeServerError, err, "bid history unavailable"))
	}
	out := make([]domain.Bid, len(archived))
	for i, b := range archived {
		out[i] = *b
	}
	return makeJsonResp(c, http.StatusOK, out)
}

func (h *BidHandler) GetUserBids(c echo.Context) error {
	return makeJsonResp(c, http.StatusOK, h.manager.GetUserBids(c.Param("userID")))
}
