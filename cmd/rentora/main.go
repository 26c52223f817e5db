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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rentora/internal/app/notifications"
	"rentora/internal/domain/shared/clock"
	"rentora/internal/infra/broker/kafka"
	"rentora/internal/infra/config"
	mongostore "rentora/internal/infra/db/mongo"
	ginserver "rentora/internal/infra/http/gin"
	"rentora/internal/infra/inbox"
	infraoutbox "rentora/internal/infra/outbox"
	"rentora/internal/infra/obs"
)

const shutdownTimeout = 5 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "rentora",
		Short:         "Rental marketplace booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(), sweepCmd(), indexesCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the outbox relay and completion sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := obs.NewLogger(cfg.Env)
			app, err := buildApplication(cmd.Context(), cfg, logger, clock.System{})
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := app.Close(ctx); err != nil {
					logger.Error("shutdown failed", "error", err)
				}
			}()
			return serve(cmd.Context(), app)
		},
	}
}

func serve(ctx context.Context, app *application) error {
	logger := app.logger
	server := ginserver.NewServer(app.cfg, obs.Middleware{Logger: logger}, app.health(), app.handlers)

	var consumer *kafka.Consumer
	if app.cfg.KafkaEnabled() {
		c, err := kafka.NewConsumer(app.cfg.KafkaBrokers, app.cfg.KafkaConsumerGroup, app.notifications, kafka.ConsumerOptions{
			Drop:   func(err error) bool { return errors.Is(err, notifications.ErrEnvelopeInvalid) },
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		consumer = c
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", app.cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCanceled(app.worker.Run(ctx))
	})
	g.Go(func() error {
		return ignoreCanceled(app.sweeper.Run(ctx))
	})
	if consumer != nil {
		g.Go(func() error {
			<-ctx.Done()
			return consumer.Close()
		})
		g.Go(func() error {
			return ignoreCanceled(consumer.Run(ctx, []string{app.bookingTopic()}))
		})
	}

	err := g.Wait()
	logger.Info("HTTP server stopped")
	return err
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Complete every approved booking whose stay has ended, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := obs.NewLogger(cfg.Env)
			app, err := buildApplication(cmd.Context(), cfg, logger, clock.System{})
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			res, err := app.sweeper.SweepOnce(cmd.Context())
			if err != nil {
				return err
			}
			// Relay what the sweep staged before exiting.
			if _, err := app.worker.Drain(cmd.Context()); err != nil {
				logger.Warn("outbox drain failed", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "due=%d completed=%d skipped=%d failed=%d\n", res.Due, res.Completed, res.Skipped, res.Failed)
			return nil
		},
	}
}

func indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create MongoDB indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Storage != config.StorageMongo {
				return fmt.Errorf("indexes require STORAGE=%s", config.StorageMongo)
			}
			logger := obs.NewLogger(cfg.Env)
			ctx := cmd.Context()
			client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
			if err != nil {
				return err
			}
			defer client.Close(context.Background())

			if err := mongostore.EnsureIndexes(ctx, client.DB, cfg.IdempotencyTTL); err != nil {
				return err
			}
			if err := infraoutbox.NewStore(client.DB).EnsureIndexes(ctx); err != nil {
				return err
			}
			if err := inbox.NewStore(client.DB, notificationGroup, cfg.InboxTTL).EnsureIndexes(ctx); err != nil {
				return err
			}
			logger.Info("indexes ensured", "database", cfg.MongoDB)
			return nil
		},
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
