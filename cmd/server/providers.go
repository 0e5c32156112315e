package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"tieba-server/services/messaging-api/internal/config"
	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/domain/unread"
	"tieba-server/services/messaging-api/internal/domain/user"
	"tieba-server/services/messaging-api/internal/infrastructure/auth"
	"tieba-server/services/messaging-api/internal/infrastructure/cache"
	"tieba-server/services/messaging-api/internal/infrastructure/crontab"
	"tieba-server/services/messaging-api/internal/infrastructure/database"
	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/blockrepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/conversationrepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/messagerepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/notificationrepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/userrepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/transaction"
	"tieba-server/services/messaging-api/internal/infrastructure/repository/memory"
	"tieba-server/services/messaging-api/internal/infrastructure/storage"
	"tieba-server/services/messaging-api/internal/infrastructure/webhook"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/handlers"
)

// Backend bundles the repositories of the configured storage driver.
type Backend struct {
	Conversations conversation.Repository
	Messages      conversation.MessageRepository
	Blocks        block.Repository
	Notifications notification.Repository
	Users         user.Directory
	Reconciler    crontab.Reconciler
	Checks        map[string]httpserver.ReadinessCheck
}

// Coordination holds the cross-replica helpers backed by Redis. Both fields
// fall back to in-process no-ops without REDIS_URL.
type Coordination struct {
	Locker conversation.Locker
	Unread unread.Cache
	Checks map[string]httpserver.ReadinessCheck
}

// Attachments is the configured blob store for message files.
type Attachments struct {
	Storage  conversation.AttachmentStorage
	FilesDir string
	Check    httpserver.ReadinessCheck
}

// Services groups the domain services exposed over HTTP.
type Services struct {
	Conversations conversation.Service
	Messages      conversation.MessageService
	Blocks        block.Service
	Notifications notification.Service
	Unread        unread.Service
}

func provideBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		return newMemoryBackend(cfg, log), func() {}, nil
	}
	return newPostgresBackend(ctx, cfg, log)
}

func newPostgresBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, func(), error) {
	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		ReadReplicaDSN:  cfg.DatabaseRead1,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("access sql db: %w", err)
	}
	cleanup := func() {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}

	if cfg.DBAutoMigrate {
		if err := database.AutoMigrate(ctx, db, log); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	txDB := transaction.NewDatabase(db)
	users, err := cache.NewUserDirectory(userrepo.NewUserGormRepository(txDB), cfg.UserCacheSize, cfg.UserCacheTTL)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	messages := messagerepo.NewMessageGormRepository(txDB)

	return &Backend{
		Conversations: conversationrepo.NewConversationGormRepository(txDB),
		Messages:      messages,
		Blocks:        blockrepo.NewBlockGormRepository(txDB),
		Notifications: notificationrepo.NewNotificationGormRepository(txDB),
		Users:         users,
		Reconciler:    messages,
		Checks: map[string]httpserver.ReadinessCheck{
			"database": sqlDB.PingContext,
		},
	}, cleanup, nil
}

func newMemoryBackend(cfg *config.Config, log zerolog.Logger) *Backend {
	store := memory.NewStore()
	for id := 1; id <= cfg.MemorySeedUsers; id++ {
		store.PutUser(user.User{
			ID:                   uint(id),
			Username:             fmt.Sprintf("user%d", id),
			AllowPrivateMessages: true,
		})
	}
	log.Warn().Int("seed_users", cfg.MemorySeedUsers).Msg("using in-memory storage; data is lost on restart")

	messages := store.Messages()
	return &Backend{
		Conversations: store.Conversations(),
		Messages:      messages,
		Blocks:        store.Blocks(),
		Notifications: store.Notifications(),
		Users:         store.Users(),
		Reconciler:    messages,
		Checks:        map[string]httpserver.ReadinessCheck{},
	}
}

func provideCoordination(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Coordination, func(), error) {
	if !cfg.RedisEnabled() {
		return &Coordination{
			Unread: cache.NoopUnreadCache{},
			Checks: map[string]httpserver.ReadinessCheck{},
		}, func() {}, nil
	}

	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("close redis")
		}
	}
	return &Coordination{
		Locker: redisCache,
		Unread: cache.NewUnreadCache(redisCache, cfg.UnreadCacheTTL),
		Checks: map[string]httpserver.ReadinessCheck{
			"redis": redisCache.HealthCheck,
		},
	}, cleanup, nil
}

func provideAttachments(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Attachments, error) {
	if cfg.AttachmentStorage == config.AttachmentStorageS3 {
		s3Storage, err := storage.NewS3Storage(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Attachments{Storage: s3Storage, Check: s3Storage.Health}, nil
	}

	local, err := storage.NewLocalStorage(cfg.AttachmentLocalDir, cfg.AttachmentPublicURL, log)
	if err != nil {
		return nil, err
	}
	return &Attachments{Storage: local, FilesDir: local.Root()}, nil
}

func provideValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, func(), error) {
	validator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return validator, validator.Close, nil
}

func provideServices(cfg *config.Config, log zerolog.Logger, backend *Backend, coord *Coordination, attachments *Attachments) *Services {
	deps := conversation.ServiceDeps{
		Conversations: backend.Conversations,
		Messages:      backend.Messages,
		Users:         backend.Users,
		Locker:        coord.Locker,
		LockTTL:       cfg.ResolverLockTTL,
		Storage:       attachments.Storage,
		Unread:        coord.Unread,
		MaxAttachment: cfg.AttachmentMaxBytes,
	}
	if cfg.MessageWebhookURL != "" {
		preview := webhook.NewPreviewer(webhook.ParseContentMode(cfg.WebhookContentMode), cfg.WebhookContentSalt)
		deps.Publisher = webhook.NewPublisher(cfg.MessageWebhookURL, cfg.WebhookTimeout, preview, log)
	}

	blocks := block.NewService(backend.Blocks, backend.Users, log)
	deps.Guard = blocks

	conversations := conversation.NewService(deps, log)
	return &Services{
		Conversations: conversations,
		Messages:      conversation.NewMessageService(deps, conversations, log),
		Blocks:        blocks,
		Notifications: notification.NewService(backend.Notifications, coord.Unread, log),
		Unread:        unread.NewService(backend.Conversations, backend.Notifications, coord.Unread, log),
	}
}

func provideHTTPServer(
	cfg *config.Config,
	log zerolog.Logger,
	services *Services,
	backend *Backend,
	coord *Coordination,
	attachments *Attachments,
	validator *auth.Validator,
) *httpserver.HTTPServer {
	checks := make(map[string]httpserver.ReadinessCheck, len(backend.Checks)+len(coord.Checks)+1)
	for name, check := range backend.Checks {
		checks[name] = check
	}
	for name, check := range coord.Checks {
		checks[name] = check
	}
	if attachments.Check != nil {
		checks["attachments"] = attachments.Check
	}

	provider := handlers.NewProvider(
		services.Conversations,
		services.Messages,
		services.Blocks,
		services.Notifications,
		services.Unread,
		log,
	)
	return httpserver.New(cfg, log, provider, httpserver.Options{
		Validator: validator,
		Checks:    checks,
		FilesDir:  attachments.FilesDir,
	})
}

func provideCrontab(cfg *config.Config, log zerolog.Logger, backend *Backend) *crontab.Crontab {
	if !cfg.ReconcileEnabled {
		return nil
	}
	return crontab.NewCrontab(backend.Reconciler, cfg.ReconcileCron, log)
}
