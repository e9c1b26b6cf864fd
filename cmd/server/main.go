package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusride/internal/config"
	"campusride/internal/handlers"
	"campusride/internal/metrics"
	"campusride/internal/middleware"
	"campusride/internal/services"
	"campusride/pkg/logger"
	"campusride/pkg/websocket"
	"campusride/routes"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		Colors:     cfg.App.Debug,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Server exited with error")
	}
	log.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	infra, err := newInfrastructure(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	repos := infra.repos
	hub := websocket.NewHub(log.WithField("component", "websocket"))
	infra.setupRelay(hub, cfg.WebSocket)

	var live services.LivePublisher = hub
	if infra.relay != nil {
		live = infra.relay
	}

	chatService := services.NewChatService(repos.chats, live, log)
	hub.SetRoomAuthorizer(chatService.CanJoinRoom)
	metrics.RegisterWebsocketClients(hub.ConnectedClients)

	notificationService := services.NewNotificationService(repos.notifications, repos.users, live, infra.pusher, log)
	rideService := services.NewRideService(repos.tx, repos.rides, repos.bookings, repos.cars, repos.outbox,
		infra.cache, cfg.App.RideCacheTTL, log)
	bookingService := services.NewBookingService(repos.tx, repos.rides, repos.bookings, repos.outbox,
		infra.cache, cfg.App.IdempotencyTTL, log)
	requestService := services.NewRideRequestService(repos.tx, repos.requests, repos.rides, repos.bookings, repos.outbox, log)
	marketplaceService := services.NewMarketplaceService(repos.listings, repos.saved, infra.storage,
		chatService, notificationService, uint(cfg.Storage.MaxImageDimension), log)
	accountService := services.NewAccountService(services.AccountDeps{
		UserRepo:         repos.users,
		CarRepo:          repos.cars,
		RideRepo:         repos.rides,
		BookingRepo:      repos.bookings,
		RequestRepo:      repos.requests,
		ListingRepo:      repos.listings,
		SavedRepo:        repos.saved,
		NotificationRepo: repos.notifications,
		Rides:            rideService,
		Bookings:         bookingService,
		Marketplace:      marketplaceService,
	}, log)
	geoService := services.NewGeoService(infra.maps, infra.cache, cfg.Maps.Country, cfg.Maps.CacheTTL, log)

	worker := services.NewOutboxWorker(services.OutboxWorkerDeps{
		OutboxRepo:    repos.outbox,
		RideRepo:      repos.rides,
		BookingRepo:   repos.bookings,
		UserRepo:      repos.users,
		Chats:         chatService,
		Notifications: notificationService,
		Mailer:        infra.mailer,
	}, cfg.Outbox, log.WithField("component", "outbox"))

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.RecoveryMiddleware(log),
		middleware.LoggingMiddleware(log),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins),
	)
	if infra.localUploads != "" {
		router.Static("/uploads", infra.localUploads)
	}

	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitPerMinute)
	routes.Setup(router, &routes.Handlers{
		Rides:         handlers.NewRideHandler(rideService, bookingService, log),
		Bookings:      handlers.NewBookingHandler(bookingService, log),
		RideRequests:  handlers.NewRideRequestHandler(requestService, log),
		Chats:         handlers.NewChatHandler(chatService, log),
		Notifications: handlers.NewNotificationHandler(notificationService, log),
		Marketplace:   handlers.NewMarketplaceHandler(marketplaceService, cfg.App.MaxUploadSize, log),
		Accounts:      handlers.NewAccountHandler(accountService, log),
		Geo:           handlers.NewGeoHandler(geoService, log),
		Health:        handlers.NewHealthHandler(cfg.App.Version, infra.healthChecks...),
		WebSocket:     websocket.NewHandler(ctx, hub, cfg.WebSocket.AllowedOrigins),
	}, middleware.AuthRequired(infra.verifier, log), limiter.Middleware())

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	if infra.relay != nil {
		g.Go(func() error { return infra.relay.Run(gctx) })
	}
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				limiter.Sweep()
			}
		}
	})
	g.Go(func() error {
		log.Infof("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
