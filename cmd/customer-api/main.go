// @title                       Customer API
// @version                     1.0
// @description                 Customer registration, login and administration.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/customer-api/internal/api"
	"github.com/99minutos/customer-api/internal/api/middleware"
	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/ports"
	"github.com/99minutos/customer-api/internal/core/service"
	"github.com/99minutos/customer-api/internal/infrastructure/amqp"
	"github.com/99minutos/customer-api/internal/infrastructure/db/mongo"
	"github.com/99minutos/customer-api/internal/infrastructure/db/postgres"
	"github.com/99minutos/customer-api/internal/infrastructure/db/redis"
	"github.com/99minutos/customer-api/internal/infrastructure/http/handlers"
	"github.com/99minutos/customer-api/internal/infrastructure/queue"
	"github.com/99minutos/customer-api/internal/infrastructure/security"
	"github.com/99minutos/customer-api/internal/pkg/config"
	"github.com/99minutos/customer-api/pkg/logger"
)

var buildVersion = "dev" // set by ldflags

const shutdownTimeout = 10 * time.Second

// store bundles the repositories of the selected backend.
type store struct {
	customers ports.CustomerRepository
	events    ports.EventRepository
	ping      handlers.PingFunc
	close     func(context.Context) error
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "customer-api",
		Version: buildVersion,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("customer-api stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Security ---
	privateKey, publicKey, err := config.LoadKeyPair(cfg.JWT)
	if err != nil {
		return err
	}
	codec, err := security.NewJWTCodec(privateKey, publicKey, cfg.JWT.Issuer)
	if err != nil {
		return err
	}
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	// --- Store ---
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()
	readiness := map[string]ports.Pinger{cfg.StoreDriver: st.ping}

	// --- Lifecycle events ---
	var publisher ports.EventPublisher
	if cfg.Events.AMQPURL != "" {
		p, err := amqp.Dial(cfg.Events.AMQPURL, amqp.DefaultQueue)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
		readiness["rabbitmq"] = p
	}

	eventService := service.NewEventService(st.events, publisher, logger.Component("events"))
	dispatcher := queue.NewDispatcher(cfg.Events.Workers, eventService, logger.Component("dispatcher"))
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Close()

	// --- Services ---
	customerService := service.NewCustomerService(st.customers, hasher, dispatcher, logger.Component("customers"))
	authService := service.NewAuthService(st.customers, hasher, codec, service.AuthConfig{
		Issuer:   cfg.JWT.Issuer,
		TokenTTL: cfg.JWT.TTL,
	}, logger.Component("auth"))

	if err := bootstrapAdmin(ctx, customerService, cfg.Admin, log); err != nil {
		return err
	}

	// --- Login throttling ---
	var limiter middleware.AttemptLimiter
	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, login rate limiting disabled")
		} else {
			defer client.Close()
			limiter = redis.NewAttemptLimiter(client, cfg.Login.RateLimit, cfg.Login.RateWindow)
			readiness["redis"] = handlers.PingFunc(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
		}
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Customers:    customerService,
		Auth:         authService,
		Codec:        codec,
		LoginLimiter: limiter,
		Readiness:    readiness,
		Registry:     prometheus.NewRegistry(),
		Log:          logger.Component("http"),
	})

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("starting server")
		serverErrors <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("received interruption signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &store{
			customers: postgres.NewCustomerRepository(db),
			events:    postgres.NewEventRepository(db),
			ping:      db.PingContext,
			close:     func(context.Context) error { return db.Close() },
		}, nil

	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, err
		}
		customers := mongo.NewCustomerRepository(db)
		if err := customers.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &store{
			customers: customers,
			events:    mongo.NewEventRepository(db),
			ping:      mongo.Pinger(client),
			close:     client.Disconnect,
		}, nil
	}
}

func bootstrapAdmin(ctx context.Context, svc *service.CustomerService, cfg config.AdminConfig, log zerolog.Logger) error {
	if cfg.Email == "" {
		return nil
	}
	birth, err := domain.ParseDate(cfg.BirthDate)
	if err != nil {
		return err
	}

	created, err := svc.EnsureAdmin(ctx, ports.CreateCustomerInput{
		Name:       cfg.Name,
		NationalID: cfg.NationalID,
		Email:      cfg.Email,
		BirthDate:  birth,
		Phone:      cfg.Phone,
		Password:   cfg.Password,
	})
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("email", cfg.Email).Msg("bootstrap admin created")
	}
	return nil
}
