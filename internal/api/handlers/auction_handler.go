package handlers

import (
	"net/http"
	"strconv"
	"time"

	"bid-coordinator/internal/domain"
	"bid-coordinator/internal/services"
	"bid-coordinator/pkg/logger"
	"bid-coordinator/pkg/utils"

	"github.com/labstack/echo/v4"
)

type AuctionHandler struct {
	catalog domain.AuctionCatalog
	ledger  domain.BidLedger
	manager *services.BiddingManager
	errs    *services.ErrorHandlingService
	now     func() time.Time
	log     logger.Logger
}

func NewAuctionHandler(catalog domain.AuctionCatalog, manager *services.BiddingManager,
	errs *services.ErrorHandlingService, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		catalog: catalog,
		manager: manager,
		errs:    errs,
		now:     time.Now,
		log:     log,
	}
}

// SetLedger makes CreateAuction seed the shared bid ledger.
func (h *AuctionHandler) SetLedger(ledger domain.BidLedger) {
	h.ledger = ledger
}

// Register mounts the auction routes on g.
func (h *AuctionHandler) Register(g *echo.Group) {
	g.POST("/auctions", h.CreateAuction)
	g.GET("/auctions/:id", h.GetAuction)
	g.GET("/auctions/:id/winner", h.GetWinner)
	g.GET("/increment", h.GetIncrement)
}

type createAuctionRequest struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	SellerID        string      `json:"seller_id"`
	StartingPrice   interface{} `json:"starting_price"`
	EndTime         *time.Time  `json:"end_time"`
	DurationSeconds int         `json:"duration_seconds"`
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	var req createAuctionRequest
	if err := c.Bind(&req); err != nil {
		return makeErrorResp(c, h.errs, domain.WrapBidError(domain.CodeInvalidBid, err, "malformed auction"))
	}
	if req.Title == "" || req.SellerID == "" {
		return makeErrorResp(c, h.errs, domain.NewBidError(domain.CodeInvalidBid, "title and seller_id are required"))
	}

	startingPrice, err := utils.ParseAmountValue(req.StartingPrice)
	if err != nil {
		return makeErrorResp(c, h.errs, domain.WrapBidError(domain.CodeInvalidBid, err, "invalid starting_price"))
	}

	now := h.now()
	auction := &domain.Auction{
		ID:            req.ID,
		Title:         req.Title,
		SellerID:      req.SellerID,
		StartingPrice: startingPrice,
		Status:        domain.AuctionActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if auction.ID == "" {
		auction.ID = utils.GenerateID("auction")
	}
	switch {
	case req.EndTime != nil:
		auction.EndTime = *req.EndTime
	case req.DurationSeconds > 0:
		auction.EndTime = now.Add(time.Duration(req.DurationSeconds) * time.Second)
	}
	if !auction.EndTime.IsZero() && !auction.EndTime.After(now) {
		return makeErrorResp(c, h.errs, domain.NewBidError(domain.CodeInvalidBid, "end_time must be in the future"))
	}

	ctx := c.Request().Context()
	if err := h.catalog.CreateAuction(ctx, auction); err != nil {
		return makeErrorResp(c, h.errs, err)
	}
	if h.ledger != nil {
		if err := h.ledger.InitializeAuction(ctx, auction.ID, auction.StartingPrice); err != nil {
			h.log.Warn("Failed to initialize bid ledger", "auction_id", auction.ID, "error", err)
		}
	}

	h.log.Info("Auction created", "auction_id", auction.ID, "seller_id", auction.SellerID)
	return makeJsonResp(c, http.StatusCreated, auction)
}

type auctionView struct {
	*domain.Auction
	StatusName string      `json:"status_name"`
	ActiveBid  *domain.Bid `json:"active_bid,omitempty"`
	MinimumBid float64     `json:"minimum_bid"`
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auction, err := h.catalog.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return makeErrorResp(c, h.errs, err)
	}

	view := auctionView{Auction: auction, StatusName: auction.Status.String()}
	current := auction.StartingPrice
	if active, ok := h.manager.GetActiveBid(auction.ID); ok {
		view.ActiveBid = active
		current = active.Amount
	}
	view.MinimumBid = current + h.manager.CalculateMinIncrement(current)

	return makeJsonResp(c, http.StatusOK, view)
}

func (h *AuctionHandler) GetWinner(c echo.Context) error {
	auctionID := c.Param("id")
	if _, err := h.catalog.GetAuction(c.Request().Context(), auctionID); err != nil {
		return makeErrorResp(c, h.errs, err)
	}

	active, ok := h.manager.GetActiveBid(auctionID)
	if !ok {
		return makeJsonResp(c, http.StatusOK, map[string]interface{}{"auction_id": auctionID, "winner": nil})
	}
	return makeJsonResp(c, http.StatusOK, map[string]interface{}{
		"auction_id": auctionID,
		"winner":     active.UserID,
		"amount":     active.Amount,
		"bid":        active,
	})
}

func (h *AuctionHandler) GetIncrement(c echo.Context) error {
	price, err := strconv.ParseFloat(c.QueryParam("price"), 64)
	if err != nil || price < 0 {
		return makeErrorResp(c, h.errs, domain.NewBidError(domain.CodeInvalidBid, "price must be a non-negative number"))
	}

	increment := h.manager.CalculateMinIncrement(price)
	return makeJsonResp(c, http.StatusOK, map[string]float64{
		"price":         price,
		"min_increment": increment,
		"minimum_bid":   price + increment,
	})
}
