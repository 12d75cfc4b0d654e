package api

import (
	"net/http"

	"bid-coordinator/internal/api/handlers"
	"bid-coordinator/internal/api/middleware"
	"bid-coordinator/internal/services"
	"bid-coordinator/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type RouterConfig struct {
	RateLimit float64
	Auctions  *handlers.AuctionHandler
	Bids      *handlers.BidHandler
	WebSocket http.HandlerFunc
	Errors    *services.ErrorHandlingService
	Log       logger.Logger
}

// NewRouter serves the REST API under /api/v1, live bidding under
// /ws/auction/{auctionID} and a plain health check.
func NewRouter(cfg RouterConfig) *mux.Router {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(cfg.Log))
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(cfg.RateLimit, cfg.Errors))
	}

	v1 := e.Group("/api/v1")
	cfg.Auctions.Register(v1)
	cfg.Bids.Register(v1)

	router := mux.NewRouter()
	router.Use(middleware.CORSWithLogging(cfg.Log))

	router.PathPrefix("/api/").Handler(e)
	if cfg.WebSocket != nil {
		router.HandleFunc("/ws/auction/{auctionID}", cfg.WebSocket)
	}
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	return router
}
