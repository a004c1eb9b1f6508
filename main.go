package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg)
	logger.Info("starting SolarTech API server", "env", cfg.GoEnv, "port", cfg.Port)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := config.ConnectDatabase(cfg); err != nil {
		return err
	}
	if err := config.Migrate(config.GetDB()); err != nil {
		return err
	}
	logger.Info("database migration completed")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := setupServices(ctx, cfg); err != nil {
		return err
	}

	authService := services.NewAuthService(config.GetDB(), services.GetTokenIssuer())
	if err := authService.EnsureBootstrapAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// setupServices installs the process-wide token issuer and photo storage.
func setupServices(ctx context.Context, cfg *config.Config) error {
	services.SetTokenIssuer(services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL))

	if cfg.UsesS3() {
		s3Service, err := services.InitS3Service(ctx, cfg)
		if err != nil {
			return err
		}
		services.SetPhotoStorage(services.NewS3PhotoStorage(s3Service))
		slog.Info("photo storage: S3", "bucket", cfg.AWSS3Bucket, "region", cfg.AWSRegion)
		return nil
	}

	services.SetPhotoStorage(services.NewLocalPhotoStorage(cfg.UploadDir))
	slog.Info("photo storage: local disk", "dir", cfg.UploadDir)
	return nil
}
