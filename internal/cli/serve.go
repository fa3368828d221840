package cli

import (
	"context"
	"fmt"
	"time"

	"productapi/internal/metrics"
	"productapi/internal/repositories"
	"productapi/internal/server"
	"productapi/internal/services"
	"productapi/pkg/logger"
	"productapi/pkg/rabbitmq"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the GraphQL HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 0, "HTTP port (HTTP_PORT)")
	_ = a.v.BindPFlag("HTTP_PORT", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	repo, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(repo, log)

	m := metrics.New()
	opts := []services.ProductServiceOption{
		services.WithMetrics(m),
		services.WithStorageTimeout(cfg.Storage.Timeout),
	}
	if cfg.RabbitMQ.URL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange}, log.Component("rabbitmq"))
		if err != nil {
			return err
		}
		defer func() {
			if err := mq.Close(); err != nil {
				log.Error().Err(err).Msg("error closing RabbitMQ client")
			}
		}()
		opts = append(opts, services.WithPublisher(mq))
	} else {
		log.Info().Msg("RABBITMQ_URL not set, product events disabled")
	}

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET not set, bearer tokens will be rejected")
	}

	srv, err := server.New(server.Deps{
		Name:         cfg.App.Name,
		Products:     services.NewProductService(repo, log.Component("products"), opts...),
		Auth:         services.NewAuthService(a.authConfig()),
		Storage:      repo,
		Metrics:      m,
		Log:          log,
		Production:   cfg.App.IsProduction(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.HTTP.Addr())
	}()
	log.Info().
		Str("addr", cfg.HTTP.Addr()).
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("server started")

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	if err := srv.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("server gracefully stopped")
	return nil
}

func (a *app) openStorage(ctx context.Context) (repositories.ProductRepository, error) {
	timeout := a.cfg.Storage.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	repo, err := repositories.Open(ctx, repositories.Options{
		Driver:        a.cfg.Storage.Driver,
		MongoURI:      a.cfg.Storage.MongoURI,
		MongoDatabase: a.cfg.Storage.MongoDatabase,
		DSN:           a.cfg.Storage.DSN,
	})
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("driver", a.cfg.Storage.Driver).Msg("storage connected")
	return repo, nil
}

func closeStorage(repo repositories.ProductRepository, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := repo.Close(ctx); err != nil {
		log.Error().Err(err).Msg("error closing storage")
		return
	}
	log.Info().Msg("storage disconnected")
}

func (a *app) authConfig() services.AuthConfig {
	return services.AuthConfig{
		JWTSecret:    a.cfg.JWT.Secret,
		TokenTTL:     time.Duration(a.cfg.JWT.Expiration) * time.Minute,
		Issuer:       a.cfg.JWT.Issuer,
		AdminKeyHash: a.cfg.JWT.AdminKeyHash,
	}
}
