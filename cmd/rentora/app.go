package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gocql/gocql"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	adminapp "rentora/internal/app/handlers/admin"
	availabilityapp "rentora/internal/app/handlers/availability"
	bookingapp "rentora/internal/app/handlers/booking"
	propertyapp "rentora/internal/app/handlers/properties"
	statsapp "rentora/internal/app/handlers/stats"
	"rentora/internal/app/middleware"
	"rentora/internal/app/notifications"
	"rentora/internal/app/outbox"
	"rentora/internal/app/policies"
	authsvc "rentora/internal/app/services/auth"
	"rentora/internal/app/services/completion"
	"rentora/internal/app/uow"
	domainauth "rentora/internal/domain/auth"
	domainbooking "rentora/internal/domain/booking"
	"rentora/internal/domain/shared/clock"
	domainuser "rentora/internal/domain/user"
	"rentora/internal/infra/broker/kafka"
	"rentora/internal/infra/config"
	mongostore "rentora/internal/infra/db/mongo"
	"rentora/internal/infra/db/scylla"
	ginserver "rentora/internal/infra/http/gin"
	"rentora/internal/infra/inbox"
	"rentora/internal/infra/notify"
	infraoutbox "rentora/internal/infra/outbox"
	"rentora/internal/infra/obs"
	"rentora/internal/infra/security"
	"rentora/internal/infra/storage/memory"
	"rentora/internal/infra/storage/s3"
	"rentora/internal/infra/validation"
)

const (
	serviceName       = "rentora"
	notificationGroup = "notifications"
)

// stores is everything that differs between the memory and Mongo backends.
type stores struct {
	factory     uow.UoWFactory
	users       domainuser.Repository
	sessions    domainauth.SessionStore
	outbox      outbox.Outbox
	relaySource infraoutbox.Source
	idempotency middleware.IdempotencyStore
	inbox       notifications.Inbox
	ready       func(ctx context.Context) error
	close       func(ctx context.Context) error
}

type application struct {
	cfg    config.Config
	logger *slog.Logger
	stores stores

	commands bus.Bus
	queries  bus.Bus

	auth          *authsvc.Service
	notifications *notifications.Handler
	sweeper       *completion.Sweeper
	worker        *infraoutbox.Worker
	direct        *infraoutbox.DirectProducer
	kafkaProducer *kafka.Producer
	scyllaSession *gocql.Session
	handlers      ginserver.Handlers
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger, clk clock.Clock) (*application, error) {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	encoder := outbox.JSONEventEncoder{Headers: obs.EventHeaders}
	policy := domainbooking.Policy{MinimumStayDays: cfg.MinStayDays}
	validator := domainbooking.NewValidator(policy, clk)

	var photos policies.PhotoStore
	if cfg.PhotosEnabled() {
		store, err := s3.NewPhotoStore(s3.Config{
			Endpoint:      cfg.S3Endpoint,
			UseSSL:        cfg.S3UseSSL,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicEndpoint,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("photo store: %w", err)
		}
		photos = store
	}

	logNotifier := &notify.LogNotifier{Logger: logger}
	var (
		notifier policies.Notifier         = logNotifier
		feed     policies.NotificationFeed = logNotifier
		session  *gocql.Session
	)
	if cfg.ScyllaEnabled() {
		session, err = scylla.NewSession(ctx, scylla.Config{
			Hosts:             cfg.ScyllaHosts,
			Keyspace:          cfg.ScyllaKeyspace,
			Username:          cfg.ScyllaUsername,
			Password:          cfg.ScyllaPassword,
			Timeout:           cfg.ScyllaTimeout,
			Consistency:       cfg.ScyllaConsistency,
			ReplicationFactor: cfg.ScyllaReplication,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("scylla: %w", err)
		}
		scyllaFeed := scylla.NewFeed(session)
		notifier = notify.Fanout{logNotifier, scyllaFeed}
		feed = scyllaFeed
		st.inbox = scylla.NewInbox(session, notificationGroup, cfg.InboxTTL)
	}

	commandReg := bus.NewRegistry("commands")
	bus.Register[bookingapp.RequestBookingCommand, *dto.Booking](commandReg, bookingapp.RequestBookingKey, &bookingapp.RequestBookingHandler{
		Validator: validator,
		Clock:     clk,
		Encoder:   encoder,
		Logger:    logger,
	})
	bus.Register[bookingapp.TransitionBookingCommand, *dto.BookingActionResult](commandReg, bookingapp.TransitionBookingKey, &bookingapp.TransitionBookingHandler{
		UoWFactory: st.factory,
		Clock:      clk,
		Encoder:    encoder,
		Logger:     logger,
	})
	(&propertyapp.CommandHandler{
		Clock:    clk,
		Encoder:  encoder,
		Photos:   photos,
		Currency: cfg.Currency,
		Logger:   logger,
	}).Register(commandReg)
	bus.Register[adminapp.DeleteUserCommand, *dto.UserProfile](commandReg, adminapp.DeleteUserKey, &adminapp.DeleteUserHandler{
		Sessions: st.sessions,
		Logger:   logger,
	})

	queryReg := bus.NewRegistry("queries")
	bus.Register[availabilityapp.CheckBookingQuery, dto.BookingCheck](queryReg, availabilityapp.CheckBookingKey, &availabilityapp.CheckBookingHandler{
		UoWFactory: st.factory,
		Validator:  validator,
	})
	bus.Register[availabilityapp.GetCalendarQuery, dto.Calendar](queryReg, availabilityapp.GetCalendarKey, &availabilityapp.GetCalendarHandler{
		UoWFactory: st.factory,
	})
	(&bookingapp.QueryHandler{UoWFactory: st.factory, Logger: logger}).Register(queryReg)
	(&propertyapp.QueryHandler{UoWFactory: st.factory}).Register(queryReg)
	(&statsapp.QueryHandler{UoWFactory: st.factory, Currency: cfg.Currency}).Register(queryReg)
	bus.Register[adminapp.ListUsersQuery, dto.UserList](queryReg, adminapp.ListUsersKey, &adminapp.ListUsersHandler{
		UoWFactory: st.factory,
	})
	(&notifications.QueryHandler{Feed: feed}).Register(queryReg)

	inputValidator := validation.New()
	commands := bus.Chain(commandReg,
		middleware.Logging(logger, "command"),
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Validation(inputValidator),
		middleware.Idempotency(st.idempotency, middleware.IdempotencyOptions{TTL: cfg.IdempotencyTTL, Clock: clk}),
		middleware.OutboxFlush(st.outbox),
		middleware.Transaction(st.factory, nil),
	)
	queries := bus.Chain(queryReg,
		middleware.Logging(logger, "query"),
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Validation(inputValidator),
	)

	auth := &authsvc.Service{
		Users:      st.users,
		Sessions:   st.sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Clock:      clk,
		Logger:     logger,
	}

	app := &application{
		cfg:      cfg,
		logger:   logger,
		stores:   st,
		commands: commands,
		queries:  queries,
		auth:     auth,
		notifications: &notifications.Handler{
			UoWFactory: st.factory,
			Notifier:   notifier,
			Inbox:      st.inbox,
			Clock:      clk,
			Logger:     logger,
		},
		sweeper: &completion.Sweeper{
			UoWFactory: st.factory,
			Commands:   commands,
			Clock:      clk,
			Interval:   cfg.SweepInterval,
			Logger:     logger,
		},
		scyllaSession: session,
	}
	if pruner, ok := st.sessions.(completion.SessionPruner); ok {
		app.sweeper.Sessions = pruner
	}
	if err := app.buildRelay(); err != nil {
		return nil, err
	}
	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: auth, Logger: logger},
		Property:       ginserver.PropertyHandler{Commands: commands, Queries: queries, Logger: logger},
		Availability:   ginserver.AvailabilityHandler{Queries: queries, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: commands, Queries: queries, Logger: logger},
		Owner:          ginserver.OwnerHandler{Queries: queries, Logger: logger},
		Admin:          ginserver.AdminHandler{Commands: commands, Queries: queries, Logger: logger},
		Notifications:  ginserver.NotificationHandler{Queries: queries, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: auth, Logger: logger}.Handle,
	}
	return app, nil
}

// buildRelay publishes to Kafka when brokers are configured; otherwise events are
// handed straight to the in-process notification handler.
func (a *application) buildRelay() error {
	worker := &infraoutbox.Worker{
		Store:       a.stores.relaySource,
		Interval:    a.cfg.OutboxPollInterval,
		TopicPrefix: a.cfg.KafkaTopicPrefix,
		Source:      serviceName,
		Backoff:     a.cfg.RetryBackoff,
		Logger:      a.logger,
	}
	if a.cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(a.cfg.KafkaBrokers, serviceName)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		a.kafkaProducer = producer
		worker.Producer = producer
	} else {
		direct := infraoutbox.NewDirectProducer()
		direct.Subscribe(a.bookingTopic(), a.notifications)
		a.direct = direct
		worker.Producer = direct
	}
	a.worker = worker
	return nil
}

func (a *application) bookingTopic() string {
	return infraoutbox.TopicFor(a.cfg.KafkaTopicPrefix, "booking.requested")
}

func (a *application) health() obs.HealthHandlers {
	return obs.HealthHandlers{Ready: a.stores.ready}
}

func (a *application) Close(ctx context.Context) error {
	if a.kafkaProducer != nil {
		if err := a.kafkaProducer.Close(); err != nil {
			a.logger.Warn("kafka producer close failed", "error", err)
		}
	}
	if a.scyllaSession != nil {
		a.scyllaSession.Close()
	}
	if a.stores.close != nil {
		return a.stores.close(ctx)
	}
	return nil
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	switch cfg.Storage {
	case config.StorageMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return stores{}, fmt.Errorf("mongo connect: %w", err)
		}
		box := infraoutbox.NewStore(client.DB)
		factory := mongostore.NewFactory(client.DB, box)
		logger.Info("storage ready", "kind", config.StorageMongo, "database", cfg.MongoDB)
		return stores{
			factory:     factory,
			users:       factory.UserRepo,
			sessions:    mongostore.NewSessionStore(client.DB),
			outbox:      box,
			relaySource: box,
			idempotency: mongostore.NewIdempotencyStore(client.DB),
			inbox:       inbox.NewStore(client.DB, notificationGroup, cfg.InboxTTL),
			ready:       client.Ping,
			close:       client.Close,
		}, nil
	case config.StorageMemory, "":
		factory := memory.NewFactory()
		box := memory.NewOutboxStore()
		factory.Outbox = box
		logger.Info("storage ready", "kind", config.StorageMemory)
		return stores{
			factory:     factory,
			users:       factory.UserRepo,
			sessions:    memory.NewSessionStore(),
			outbox:      box,
			relaySource: box,
			idempotency: memory.NewIdempotencyStore(),
			inbox:       memory.NewInbox(),
		}, nil
	default:
		return stores{}, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}
