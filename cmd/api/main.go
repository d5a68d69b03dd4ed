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
	"go.uber.org/zap"

	"github.com/bryanwahyu/medassist/internal/config"
	"github.com/bryanwahyu/medassist/internal/domain/identity"
	"github.com/bryanwahyu/medassist/internal/infra/db/mysql"
	"github.com/bryanwahyu/medassist/internal/infra/db/postgres"
	"github.com/bryanwahyu/medassist/internal/logger"
	"github.com/bryanwahyu/medassist/internal/middleware"
)

func main() {
	var configPath string
	rootCmd := &cobra.Command{
		Use:   "medassist",
		Short: "Multi-tenant AI pre-assessment service",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config.yaml")
	load := func() (*config.Config, error) { return config.Load(configPath) }

	rootCmd.AddCommand(serveCmd(load))
	rootCmd.AddCommand(migrateCmd(load))
	rootCmd.AddCommand(tokenCmd(load))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "config.yaml"
}

type loader func() (*config.Config, error)

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config load error: %w", err)
			}
			log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "medassist")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr), zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	return nil
}

func migrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch cfg.Database.Driver {
			case "postgres":
				db, err := postgres.Connect(ctx, cfg.PostgresDSN())
				if err != nil {
					return fmt.Errorf("postgres connect error: %w", err)
				}
				defer db.Close()
				err = postgres.Migrate(ctx, db)
				if err != nil {
					return err
				}
			case "mysql":
				db, err := mysql.Connect(ctx, cfg.MySQLDSN())
				if err != nil {
					return fmt.Errorf("mysql connect error: %w", err)
				}
				defer db.Close()
				err = mysql.Migrate(ctx, db)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("driver %q has no schema", cfg.Database.Driver)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

// tokenCmd signs a bearer token for local testing against the API.
func tokenCmd(load loader) *cobra.Command {
	var (
		user, role, hospitalID, patientID string
		ttl                               time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwtSecret (JWT_SECRET) is not set")
			}
			a := &middleware.Authenticator{Secret: []byte(cfg.Auth.JWTSecret), Issuer: cfg.Auth.Issuer}
			tok, err := a.Issue(identity.Identity{
				UserID:     user,
				Role:       identity.Role(role),
				HospitalID: hospitalID,
				PatientID:  patientID,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (subject)")
	cmd.Flags().StringVar(&role, "role", string(identity.RolePatient), "patient | hospital_admin | super_admin")
	cmd.Flags().StringVar(&hospitalID, "hospital", "", "hospital id the user belongs to")
	cmd.Flags().StringVar(&patientID, "patient", "", "patient id (defaults to user id)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
