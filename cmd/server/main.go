package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"levelup/internal/config"
	"levelup/internal/exercisedb"
	apphttp "levelup/internal/http"
	"levelup/internal/repository/sqlite"
	"levelup/internal/service"
	"levelup/internal/session"
	"levelup/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Session.Secret) == "" {
		logger.Fatalf("session secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	workoutRepo := sqlite.NewWorkoutRepository(db)
	nutritionRepo := sqlite.NewNutritionRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := workoutRepo.Init(ctx); err != nil {
		logger.Fatalf("init workout repository: %v", err)
	}
	if err := nutritionRepo.Init(ctx); err != nil {
		logger.Fatalf("init nutrition repository: %v", err)
	}

	store, avatarDir, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	accountService := service.NewAccountService(userRepo)
	workoutService := service.NewWorkoutService(workoutRepo)
	nutritionService := service.NewNutritionService(nutritionRepo)
	profileService := service.NewProfileService(userRepo, store, cfg.AllowedExtensions())
	searchClient := exercisedb.NewClient(cfg.ExerciseDB.Host, cfg.ExerciseDB.APIKey, logger)

	sessions, err := session.NewManager(
		cfg.Session.Secret,
		cfg.Session.BootID,
		time.Duration(cfg.Session.TimeoutMinutes)*time.Minute,
		logger,
	)
	if err != nil {
		logger.Fatalf("setup sessions: %v", err)
	}
	logger.Infof("session boot id %s", sessions.BootID())

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		accountService,
		workoutService,
		nutritionService,
		profileService,
		searchClient,
		sessions,
		logger,
		avatarDir,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildStorage selects S3 when a bucket is configured, local disk otherwise.
// The returned dir is non-empty only for local storage, so avatars can be
// served statically.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, string, error) {
	if cfg.Storage.Bucket == "" {
		local, err := storage.NewLocalService(cfg.Upload.Dir)
		if err != nil {
			return nil, "", err
		}
		logger.Infof("storing avatars under %s", local.Dir())
		return local, local.Dir(), nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, "", fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("storing avatars in s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix), "", nil
}
