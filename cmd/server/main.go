// Command server runs the seller scheduling API.
//
// @title        Agenda de Vendas API
// @version      1.0
// @description  Seller scheduling: accounts, client agenda and live change notifications.
// @BasePath     /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/agendavendas/scheduling-api/internal/api"
	"github.com/agendavendas/scheduling-api/internal/api/docs"
	"github.com/agendavendas/scheduling-api/internal/api/handler"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
	"github.com/agendavendas/scheduling-api/internal/core/service"
	mongostore "github.com/agendavendas/scheduling-api/internal/infrastructure/db/mongo"
	redisrelay "github.com/agendavendas/scheduling-api/internal/infrastructure/db/redis"
	"github.com/agendavendas/scheduling-api/internal/infrastructure/db/sqlite"
	"github.com/agendavendas/scheduling-api/internal/infrastructure/notify"
	"github.com/agendavendas/scheduling-api/internal/infrastructure/queue"
	"github.com/agendavendas/scheduling-api/internal/pkg/config"
	"github.com/agendavendas/scheduling-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var errRelayNotSubscribed = errors.New("relay not subscribed")

// store bundles the repositories of the configured driver.
type store struct {
	users   ports.UserRepository
	clients ports.ClientRepository
	ping    handler.PingFunc
	close   func(ctx context.Context) error
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "agenda-api",
	})

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timezone")
	}

	st, err := openStore(ctx, cfg, loc, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("store ready")

	health := map[string]handler.PingFunc{"store": st.ping}

	// --- Notifications ---
	hub := notify.NewHub(log)
	var sink ports.Notifier = hub
	if cfg.Redis.Addr != "" {
		rdb, err := redisrelay.Connect(ctx, redisrelay.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
		}
		defer rdb.Close()

		relay := redisrelay.NewRelay(rdb, cfg.Redis.Channel, hub, log)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("redis relay stopped")
			}
		}()
		sink = relay
		health["redis"] = func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return err
			}
			if !relay.Subscribed() {
				return errRelayNotSubscribed
			}
			return nil
		}
		log.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("redis relay enabled")
	}

	dispatcher := queue.NewDispatcher(0, sink, log)
	dispatcher.Start(ctx)

	// --- Services ---
	userService := service.NewUserService(st.users, dispatcher, cfg.MasterEmails, log)
	if err := userService.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap master accounts")
	}
	contact := service.NewContactLinker(cfg.WhatsApp.CountryCode, cfg.WhatsApp.DefaultMessage, loc)
	clientService := service.NewClientService(st.clients, dispatcher, contact, loc, log)

	policy, err := service.NewAccessPolicy(cfg.AccessPolicy, log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid access policy")
	}

	docs.SwaggerInfo.BasePath = cfg.APIPrefix

	e := api.NewRouter(api.Deps{
		Users:   userService,
		Clients: clientService,
		Policy:  policy,
		Hub:     hub,
		Session: notify.SessionOptions{
			SendBuffer:   cfg.WS.SendBuffer,
			WriteTimeout: cfg.WS.WriteTimeout,
			PingInterval: cfg.WS.PingInterval,
		},
		Health:    health,
		Location:  loc,
		APIPrefix: cfg.APIPrefix,
		WSPath:    cfg.WSPath,
		Log:       log,
	})

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("timezone", loc.String()).
			Str("access_policy", cfg.AccessPolicy).
			Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	// Hijacked websocket connections are not tracked by the HTTP server.
	hub.Shutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	cancel()
	dispatcher.Wait()

	if err := st.close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("store close")
	}
	log.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config, loc *time.Location, log zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		return &store{
			users:   mongostore.NewUserRepository(db),
			clients: mongostore.NewClientRepository(db),
			ping:    func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:   client.Disconnect,
		}, nil
	default:
		db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLite.Path}, log)
		if err != nil {
			return nil, err
		}
		return &store{
			users:   sqlite.NewUserRepository(db),
			clients: sqlite.NewClientRepository(db, loc),
			ping:    db.PingContext,
			close:   func(context.Context) error { return db.Close() },
		}, nil
	}
}
