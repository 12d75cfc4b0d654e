package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bid-coordinator/internal/api"
	"bid-coordinator/internal/api/handlers"
	"bid-coordinator/internal/config"
	"bid-coordinator/internal/domain"
	"bid-coordinator/internal/infrastructure/memory"
	"bid-coordinator/internal/infrastructure/mysql"
	"bid-coordinator/internal/infrastructure/redis"
	"bid-coordinator/internal/infrastructure/websocket"
	"bid-coordinator/internal/services"
	"bid-coordinator/pkg/logger"
	"bid-coordinator/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New().Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level).With("instance_id", cfg.Instance.ID)
	if zl, ok := log.(*logger.ZapLogger); ok {
		defer zl.Sync()
	}
	log.Info("Configuration loaded", "config", cfg.GetConfigString())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Optional Redis
	var rdb *redisClient.Client
	if cfg.Redis.Enabled {
		rdb, err = utils.InitializeRedis(ctx, cfg)
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	// Optional MySQL
	var db *sql.DB
	if cfg.MySQL.Enabled {
		db, err = utils.InitializeMysql(ctx, cfg)
		if err != nil {
			log.Error("Failed to connect to MySQL", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	// Initialize repositories
	var catalog domain.AuctionCatalog = memory.NewCatalog()
	var archive domain.BidArchive
	if db != nil {
		catalog = mysql.NewMySQLAuctionRepository(db)
		archive = mysql.NewMySQLBidRepository(db)
	}

	manager := services.NewBiddingManager(catalog, cfg.Bidding.MaxBid, cfg.Bidding.SimulatedLatency, log)
	if archive != nil {
		manager.SetArchive(archive)
	}

	var ledger domain.BidLedger
	if rdb != nil {
		rules := services.NewRedisIncrementRules(rdb)
		if err := rules.LoadRules(ctx); err != nil {
			log.Error("Failed to load increment rules", "error", err)
			os.Exit(1)
		}
		manager.SetIncrementRules(rules)

		ledger = redis.NewRedisBidLedger(rdb)
		manager.SetLedger(ledger)
		manager.SetStateCache(redis.NewRedisStateCache(rdb))
	}

	// Placement and concurrency control
	var placer domain.BidPlacer = services.NewManagerPlacer(manager)
	if cfg.Bidding.Placer == config.PlacerSimulated {
		placer = services.NewSimulatedPlacer(nil)
	}

	var locker domain.AuctionLocker = memory.NewLocker()
	if cfg.Bidding.Locker == config.LockerRedis {
		locker = redis.NewRedisLocker(rdb, cfg.Bidding.LockTTL)
	}

	errs := services.NewErrorHandlingService(log)
	bidHandler := services.NewConcurrentBidHandler(locker, placer, errs, services.HandlerConfig{
		MaxRetries:    cfg.Bidding.MaxRetries,
		RetryBase:     cfg.Bidding.RetryBase,
		StaleAfter:    cfg.Bidding.StaleAfter,
		ReplayWorkers: cfg.Bidding.ReplayWorkers,
	}, log)
	bidHandler.SetEventSink(manager)
	bidHandler.SetAuctionEnder(manager.EndAuction)

	// Initialize connection manager and notifiers
	connManager := websocket.NewConnectionManager(log)
	notifier := websocket.NewWebSocketNotifier(connManager)

	eventListener := services.NewEventListener(cfg.Instance.ID, connManager, notifier, notifier, log)
	eventListener.SetQueueResumer(bidHandler.ResumeQueue)
	detach := eventListener.Attach(manager)
	defer detach()

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	if rdb != nil {
		eventListener.SetPublisher(redis.NewRedisEventPublisher(rdb))
		subscriber := redis.NewRedisEventSubscriber(rdb, log)
		go func() {
			if err := eventListener.Start(bgCtx, subscriber); err != nil && bgCtx.Err() == nil {
				log.Error("Event listener stopped", "error", err)
			}
		}()
	}

	janitor := services.NewJanitor(cfg.Bidding.CleanupSchedule, bidHandler, catalog, manager, log)
	if err := janitor.Start(bgCtx); err != nil {
		log.Error("Failed to start janitor", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	auctionHandler := handlers.NewAuctionHandler(catalog, manager, errs, log)
	if ledger != nil {
		auctionHandler.SetLedger(ledger)
	}
	bidsHandler := handlers.NewBidHandler(bidHandler, catalog, manager, errs, log)
	if archive != nil {
		bidsHandler.SetArchive(archive)
	}
	wsHandler := websocket.NewWebSocketHandler(bidHandler, catalog, connManager, errs, log)

	router := api.NewRouter(api.RouterConfig{
		RateLimit: cfg.Server.RateLimit,
		Auctions:  auctionHandler,
		Bids:      bidsHandler,
		WebSocket: wsHandler.HandleConnection,
		Errors:    errs,
		Log:       log,
	})

	// Start HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting bidding service", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bidding service...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	_ = janitor.Stop()
	stopBackground()
	bidHandler.Close()

	log.Info("Bidding service stopped")
}
