package main

import (
	"context"
	"fmt"
	"io"

	"campusride/internal/config"
	"campusride/internal/handlers"
	"campusride/internal/middleware"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/repositories/memory"
	"campusride/internal/repositories/mongodb"
	"campusride/internal/services"
	"campusride/pkg/cache"
	"campusride/pkg/database"
	"campusride/pkg/email"
	"campusride/pkg/logger"
	"campusride/pkg/maps"
	"campusride/pkg/push"
	"campusride/pkg/storage"
	"campusride/pkg/websocket"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

type repositories struct {
	tx            interfaces.Transactor
	users         interfaces.UserRepository
	cars          interfaces.CarRepository
	rides         interfaces.RideRepository
	bookings      interfaces.BookingRepository
	requests      interfaces.RideRequestRepository
	chats         interfaces.ChatRepository
	notifications interfaces.NotificationRepository
	listings      interfaces.ListingRepository
	saved         interfaces.SavedItemRepository
	outbox        interfaces.OutboxRepository
}

// infrastructure holds every external client the process owns.
type infrastructure struct {
	repos        *repositories
	cache        services.CacheService
	relay        *websocket.RedisRelay
	storage      storage.StorageProvider
	localUploads string
	pusher       push.PushProvider
	mailer       email.Sender
	maps         maps.MapsProvider
	verifier     middleware.TokenVerifier
	healthChecks []handlers.HealthCheck
	closers      []io.Closer
}

func (i *infrastructure) Close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		_ = i.closers[j].Close()
	}
}

func newInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*infrastructure, error) {
	infra := &infrastructure{}
	ok := false
	defer func() {
		if !ok {
			infra.Close()
		}
	}()

	if err := infra.setupDatabase(ctx, cfg.Database, log); err != nil {
		return nil, err
	}
	if err := infra.setupCache(ctx, cfg, log); err != nil {
		return nil, err
	}
	if err := infra.setupStorage(ctx, cfg.Storage); err != nil {
		return nil, err
	}

	var app *firebase.App
	if cfg.Security.AuthProvider == "firebase" || (cfg.Push.Enabled && cfg.Push.FCM.Enabled) {
		var opts []option.ClientOption
		if cfg.Security.FirebaseCredsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Security.FirebaseCredsFile))
		}
		var err error
		app, err = firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Security.FirebaseProjectID}, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firebase: %w", err)
		}
	}

	if cfg.Security.AuthProvider == "firebase" {
		verifier, err := middleware.NewFirebaseVerifier(ctx, app)
		if err != nil {
			return nil, err
		}
		infra.verifier = verifier
	} else {
		infra.verifier = middleware.NewJWTVerifier(cfg.Security.JWTSecret, cfg.Security.JWTIssuer)
	}

	if err := infra.setupPush(ctx, cfg.Push, app, log); err != nil {
		return nil, err
	}
	infra.setupMailer(cfg.Email)

	if cfg.Maps.Enabled && cfg.Maps.APIKey != "" {
		provider, err := maps.NewGoogleMapsProvider(cfg.Maps.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize maps: %w", err)
		}
		infra.maps = provider
	} else {
		log.Warn("Maps autocomplete disabled")
	}

	ok = true
	return infra, nil
}

func (i *infrastructure) setupDatabase(ctx context.Context, cfg *config.DatabaseConfig, log *logger.Logger) error {
	if cfg.Driver == "memory" {
		log.Warn("Using in-memory store; data is lost on restart")
		store := memory.NewStore()
		i.repos = &repositories{
			tx:            store,
			users:         memory.NewUserRepository(store),
			cars:          memory.NewCarRepository(store),
			rides:         memory.NewRideRepository(store),
			bookings:      memory.NewBookingRepository(store),
			requests:      memory.NewRideRequestRepository(store),
			chats:         memory.NewChatRepository(store),
			notifications: memory.NewNotificationRepository(store),
			listings:      memory.NewListingRepository(store),
			saved:         memory.NewSavedItemRepository(store),
			outbox:        memory.NewOutboxRepository(store),
		}
		return nil
	}

	mongoDB, err := database.NewMongoDB(ctx, &database.DatabaseConfig{
		URI:            cfg.URI,
		Database:       cfg.Database,
		MaxPoolSize:    cfg.MaxPoolSize,
		MinPoolSize:    cfg.MinPoolSize,
		ConnectTimeout: cfg.ConnectTimeout,
		SocketTimeout:  cfg.SocketTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	i.closers = append(i.closers, mongoDB)
	i.healthChecks = append(i.healthChecks, handlers.HealthCheck{Name: "mongodb", Check: mongoDB.Ping})

	if cfg.RunMigrations {
		applied, err := database.NewMigrator(mongoDB.Database).Up(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.WithField("applied", applied).Info("Migrations complete")
	}

	db := mongoDB.Database
	i.repos = &repositories{
		tx:            mongodb.NewTransactor(mongoDB),
		users:         mongodb.NewUserRepository(db),
		cars:          mongodb.NewCarRepository(db),
		rides:         mongodb.NewRideRepository(db),
		bookings:      mongodb.NewBookingRepository(db),
		requests:      mongodb.NewRideRequestRepository(db),
		chats:         mongodb.NewChatRepository(db),
		notifications: mongodb.NewNotificationRepository(db),
		listings:      mongodb.NewListingRepository(db),
		saved:         mongodb.NewSavedItemRepository(db),
		outbox:        mongodb.NewOutboxRepository(db),
	}
	return nil
}

func (i *infrastructure) setupCache(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if !cfg.Redis.Enabled {
		log.Warn("Redis disabled; using process-local cache")
		i.cache = services.NewMemoryCache()
		return nil
	}

	redisCache, err := cache.NewRedisCache(ctx, &cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		KeyPrefix:    cfg.Redis.KeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	i.closers = append(i.closers, redisCache)
	i.cache = redisCache
	i.healthChecks = append(i.healthChecks, handlers.HealthCheck{Name: "redis", Check: redisCache.Ping})
	return nil
}

// setupRelay is split from setupCache because the relay needs the hub.
func (i *infrastructure) setupRelay(hub *websocket.Hub, cfg *config.WebSocketConfig) {
	redisCache, ok := i.cache.(*cache.RedisCache)
	if !ok || !cfg.RedisRelay {
		return
	}
	i.relay = websocket.NewRedisRelay(hub, redisCache)
}

func (i *infrastructure) setupStorage(ctx context.Context, cfg *config.StorageConfig) error {
	switch cfg.Provider {
	case "aws":
		s3, err := storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
		if err != nil {
			return fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		i.storage = s3
	case "gcp":
		gcs, err := storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
		if err != nil {
			return fmt.Errorf("failed to initialize gcs storage: %w", err)
		}
		i.closers = append(i.closers, gcs)
		i.storage = gcs
	default:
		local, err := storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
		i.storage = local
		i.localUploads = local.BasePath()
	}
	return nil
}

func (i *infrastructure) setupPush(ctx context.Context, cfg *config.PushConfig, app *firebase.App, log *logger.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	var fcm push.PushProvider
	if cfg.FCM.Enabled && app != nil {
		provider, err := push.NewFCMProvider(ctx, app)
		if err != nil {
			return err
		}
		fcm = provider
	}

	router := push.NewRouter(fcm)
	if fcm != nil {
		router.Register(push.PlatformAndroid, fcm)
		router.Register(push.PlatformWeb, fcm)
	}
	if cfg.APNS.Enabled {
		apns, err := push.NewAPNSProvider(cfg.APNS.KeyFile, cfg.APNS.KeyID, cfg.APNS.TeamID, cfg.APNS.BundleID, cfg.APNS.Production)
		if err != nil {
			return fmt.Errorf("failed to initialize apns: %w", err)
		}
		router.Register(push.PlatformIOS, apns)
	} else if fcm != nil {
		router.Register(push.PlatformIOS, fcm)
	}

	log.Info("Push notifications enabled")
	i.pusher = router
	return nil
}

func (i *infrastructure) setupMailer(cfg *config.EmailConfig) {
	switch cfg.Provider {
	case "http":
		i.mailer = email.NewHTTPSender(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
	case "smtp":
		i.mailer = email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password,
			cfg.SMTP.FromEmail, cfg.SMTP.FromName)
	default:
		i.mailer = email.NopSender{}
	}
}
