// @title           StyleLab API
// @version         1.0
// @description     Accounts, sessions and referrals for the StyleLab learning platform.
// @BasePath        /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
//
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        access_token
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

	"github.com/stylelab/platform/internal/api"
	"github.com/stylelab/platform/internal/api/handler"
	"github.com/stylelab/platform/internal/core/ports"
	"github.com/stylelab/platform/internal/core/service"
	"github.com/stylelab/platform/internal/infrastructure/db/memory"
	mongodb "github.com/stylelab/platform/internal/infrastructure/db/mongo"
	redisdb "github.com/stylelab/platform/internal/infrastructure/db/redis"
	"github.com/stylelab/platform/internal/infrastructure/notify"
	"github.com/stylelab/platform/internal/infrastructure/queue"
	"github.com/stylelab/platform/internal/pkg/config"
	"github.com/stylelab/platform/pkg/logger"
)

var (
	version  = "dev" // Will be set during build
	inMemory bool
)

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

var rootCmd = &cobra.Command{
	Use:           "stylelab-api",
	Short:         "StyleLab accounts and sessions API",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Configuration is read from the environment (PORT, ENV, LOG_LEVEL, JWT_SECRET,
TOKEN_TTL, FRONTEND_URL, CORS_ORIGINS, SUPPRESS_QUEUE, COOKIE_*, MONGO_*,
REDIS_*). With --in-memory, MongoDB and Redis are replaced by process-local
stores and nothing is persisted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&inMemory, "in-memory", false, "use in-memory storage instead of MongoDB and Redis")
	rootCmd.AddCommand(serveCmd)
}

type backends struct {
	users    ports.UserRepository
	settings ports.SettingsRepository
	sessions ports.SessionStore
	checkers []handler.Checker
	close    func(context.Context)
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "stylelab-api",
	})

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close(context.Background())

	notifier := notify.NewLogNotifier(cfg.FrontendURL, logger.Component("notify"))
	authSvc := service.NewAuthService(service.AuthDeps{
		Users:    b.users,
		Sessions: b.sessions,
		Settings: b.settings,
		Notifier: notifier,
	}, cfg.JWTSecret, cfg.TokenTTL, logger.Component("auth"))
	userSvc := service.NewUserService(b.users, logger.Component("users"))

	jobsCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	jobs := queue.Bootstrap(jobsCtx, cfg.SuppressQueue, logger.Component("queue"),
		service.NewSettingsSetter(b.settings, logger.Component("settings")),
	)

	e := api.NewRouter(api.Options{
		AuthService: authSvc,
		UserService: userSvc,
		Cookie: handler.CookieConfig{
			Name:   cfg.Cookie.Name,
			Secure: cfg.Cookie.Secure,
			Domain: cfg.Cookie.Domain,
		},
		CORSOrigins: cfg.AllowedOrigins(),
		Checkers:    b.checkers,
		Log:         logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Bool("in_memory", inMemory).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	cancelJobs()
	jobs.Wait()
	log.Info().Msg("server exiting")
	return nil
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	log := logger.Component("storage")

	if inMemory {
		log.Warn().Msg("using in-memory storage, data is lost on exit")
		return &backends{
			users:    memory.NewUserRepository(),
			settings: memory.NewSettingsRepository(),
			sessions: memory.NewSessionStore(),
			close:    func(context.Context) {},
		}, nil
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	users := mongodb.NewUserRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users); err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")

	return &backends{
		users:    users,
		settings: mongodb.NewSettingsRepository(db),
		sessions: redisdb.NewSessionStore(redisClient),
		checkers: []handler.Checker{
			mongodb.Checker{Client: mongoClient},
			redisdb.Checker{Client: redisClient},
		},
		close: func(ctx context.Context) {
			if err := redisClient.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close")
			}
			if err := mongoClient.Disconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		},
	}, nil
}
