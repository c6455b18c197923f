package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/config"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/prescription"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/profile"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/safetycheck"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/schedule"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/platform/auth"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/platform/db"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/platform/middleware"
)

func main() {
	root := &cobra.Command{
		Use:   "meditrack-server",
		Short: "MediTrack prescription and medication adherence API",
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			cancel()
			if err != nil {
				return err
			}
			defer pool.Close()

			e := echo.New()
			e.HideBanner = true
			e.HidePort = true

			e.Use(middleware.Recovery(logger))
			e.Use(middleware.RequestID())
			e.Use(middleware.Logger(logger))
			e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
				AllowOrigins: cfg.CORSOrigins,
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
				AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, middleware.RequestIDHeader},
			}))

			e.GET("/health", func(c echo.Context) error {
				return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
			})
			e.GET("/health/db", db.HealthHandler(pool))

			api := e.Group("/api/v1")
			if cfg.IsDev() && cfg.AuthIssuer == "" && cfg.AuthDevSigningKey == "" {
				api.Use(auth.DevAuthMiddleware())
			} else {
				api.Use(auth.JWTMiddleware(auth.JWTConfig{
					Issuer:     cfg.AuthIssuer,
					Audience:   cfg.AuthAudience,
					JWKSURL:    cfg.AuthJWKSURL,
					SigningKey: []byte(cfg.AuthDevSigningKey),
				}))
			}
			// After auth so authenticated users get their own budget
			// instead of sharing the client IP's.
			api.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerSecond: cfg.RateLimitRPS,
				BurstSize:         cfg.RateLimitBurst,
			}))

			// Domain wiring. The schedule service doubles as the
			// prescription service's scheduler.
			scheduleSvc := schedule.NewService(schedule.NewPgRepository(pool), logger)
			prescriptionSvc := prescription.NewService(prescription.NewPgRepository(pool), scheduleSvc, logger)
			profileSvc := profile.NewService(profile.NewPgRepository(pool), logger)

			advisor := safetycheck.NewChatClient(safetycheck.ChatClientConfig{
				URL:     cfg.AdvisoryAPIURL,
				APIKey:  cfg.AdvisoryAPIKey,
				Model:   cfg.AdvisoryModel,
				Timeout: cfg.AdvisoryTimeout,
			}, logger)
			safetySvc := safetycheck.NewService(advisor, prescriptionSvc, profileSvc, logger)

			prescription.NewHandler(prescriptionSvc).RegisterRoutes(api)
			schedule.NewHandler(scheduleSvc).RegisterRoutes(api)
			profile.NewHandler(profileSvc).RegisterRoutes(api)
			safetycheck.NewHandler(safetySvc).RegisterRoutes(api)

			stopSweep := make(chan struct{})
			if cfg.OverdueMissedAfter > 0 {
				go runOverdueSweep(scheduleSvc, cfg, logger, stopSweep)
			}

			go func() {
				addr := ":" + cfg.Port
				logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			close(stopSweep)

			logger.Info().Msg("shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

// runOverdueSweep periodically marks stale pending doses as missed.
func runOverdueSweep(svc *schedule.Service, cfg *config.Config, logger zerolog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(cfg.OverdueSweepInterval)
	defer ticker.Stop()

	logger.Info().
		Dur("after", cfg.OverdueMissedAfter).
		Dur("interval", cfg.OverdueSweepInterval).
		Msg("overdue sweep enabled")

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := svc.SweepOverdue(ctx, cfg.OverdueMissedAfter); err != nil {
				logger.Error().Err(err).Msg("overdue sweep failed")
			}
			cancel()
		}
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	var dir string
	cmd.PersistentFlags().StringVar(&dir, "dir", "migrations", "migrations directory")

	withMigrator := func(fn func(ctx context.Context, m *db.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, 2, 1)
			if err != nil {
				return err
			}
			defer pool.Close()

			return fn(ctx, db.NewMigrator(pool, dir))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: withMigrator(func(ctx context.Context, m *db.Migrator) error {
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("applied %d migration(s)\n", n)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: withMigrator(func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied " + s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Printf("%03d %-40s %s\n", s.Version, s.Name, state)
				}
				return nil
			}),
		},
	)
	return cmd
}
