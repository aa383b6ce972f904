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

	"github.com/clinidash/clinidash/internal/config"
	"github.com/clinidash/clinidash/internal/domain/account"
	"github.com/clinidash/clinidash/internal/domain/dashboard"
	"github.com/clinidash/clinidash/internal/domain/diagnosis"
	"github.com/clinidash/clinidash/internal/domain/patient"
	"github.com/clinidash/clinidash/internal/domain/pharmacy"
	"github.com/clinidash/clinidash/internal/domain/prescription"
	"github.com/clinidash/clinidash/internal/domain/transaction"
	"github.com/clinidash/clinidash/internal/domain/visit"
	"github.com/clinidash/clinidash/internal/platform/auth"
	"github.com/clinidash/clinidash/internal/platform/db"
	"github.com/clinidash/clinidash/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dashboard-server",
		Short: "Multi-tenant clinic dashboard API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(accountCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run control database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewControlPool(ctx, cfg.ControlDatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewControlPool(ctx, cfg.ControlDatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage dashboard accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a dashboard account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")
			host, _ := cmd.Flags().GetString("sql-host")
			database, _ := cmd.Flags().GetString("sql-database")
			sqlUser, _ := cmd.Flags().GetString("sql-user")
			sqlPassword, _ := cmd.Flags().GetString("sql-password")

			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewControlPool(ctx, cfg.ControlDatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := account.NewService(account.NewRepo(pool))
			params := account.CreateParams{
				Username: username,
				Password: password,
				Role:     auth.Role(role),
			}
			if host != "" || database != "" || sqlUser != "" || sqlPassword != "" {
				params.Target = &db.TargetCredentials{
					Host:     host,
					Database: database,
					User:     sqlUser,
					Password: sqlPassword,
				}
			}

			acc, err := svc.Create(ctx, params)
			if err != nil {
				return err
			}
			fmt.Printf("Created account %q (id=%d, role=%s)\n", acc.Username, acc.ID, acc.Role)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Login username")
	createCmd.Flags().String("password", "", "Login password")
	createCmd.Flags().String("role", "admin", "Account role (superadmin or admin)")
	createCmd.Flags().String("sql-host", "", "Target database host")
	createCmd.Flags().String("sql-database", "", "Target database name")
	createCmd.Flags().String("sql-user", "", "Target database user")
	createCmd.Flags().String("sql-password", "", "Target database password")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "dev-only-secret"
		logger.Warn().Msg("JWT_SECRET not set; using a development-only secret")
	}

	// Control database holds dashboard accounts and their target
	// credentials.
	ctx := context.Background()
	controlPool, err := db.NewControlPool(ctx, cfg.ControlDatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to control database")
	}
	defer controlPool.Close()
	logger.Info().Msg("connected to control database")

	// Tenant pool cache, one pool per distinct target credentials.
	cache := db.NewPoolCache(db.Connector(cfg.TenantMaxConns, cfg.TenantConnectTimeout))
	defer cache.CloseAll()

	signer := auth.NewTokenSigner([]byte(jwtSecret), cfg.TokenTTL)

	accountRepo := account.NewRepo(controlPool)
	accountSvc := account.NewService(accountRepo)
	accountHandler := account.NewHandler(accountSvc, signer)
	resolver := account.NewResolver(accountRepo, signer)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, db.ImpersonateHeader},
	}))

	// Health checks
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(controlPool, cache))

	apiV1 := e.Group("/api/v1")

	// Login is the only route reachable without a bearer token.
	accountHandler.RegisterAuthRoutes(apiV1)

	// Everything else goes through identity resolution and tenant
	// binding. Account management bypasses the tenant requirement so
	// superadmins can work without impersonating.
	const managementPrefix = "/api/v1/accounts"
	protected := apiV1.Group("", db.BindingMiddleware(resolver, cache, managementPrefix))

	accountHandler.RegisterRoutes(protected)

	patient.NewHandler(patient.NewRepo()).RegisterRoutes(protected)
	visit.NewHandler(visit.NewRepo()).RegisterRoutes(protected)
	prescription.NewHandler(prescription.NewRepo()).RegisterRoutes(protected)
	pharmacy.NewHandler(pharmacy.NewRepo()).RegisterRoutes(protected)
	diagnosis.NewHandler(diagnosis.NewRepo()).RegisterRoutes(protected)
	transaction.NewHandler(transaction.NewRepo()).RegisterRoutes(protected)
	dashboard.NewHandler(dashboard.NewRepo()).RegisterRoutes(protected)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	return nil
}
