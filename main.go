package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SainiAdi-04/Task-Manager/config"
	"github.com/SainiAdi-04/Task-Manager/events"
	"github.com/SainiAdi-04/Task-Manager/handlers"
	"github.com/SainiAdi-04/Task-Manager/logging"
	"github.com/SainiAdi-04/Task-Manager/middleware"
	"github.com/SainiAdi-04/Task-Manager/repositories"
	"github.com/SainiAdi-04/Task-Manager/services"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}

	logging.InitLogger(cfg.LogFile, cfg.LogLevel)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Manager API...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := repositories.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logging.Logger.Warnf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
		}
	}()
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB database %s", cfg.MongoDBName)

	db := client.Database(cfg.MongoDBName)
	if err := repositories.EnsureIndexes(ctx, db); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: %v", err)
	}

	breaker := repositories.NewBreaker("mongo-cb")
	taskRepo := repositories.NewTaskRepository(db, breaker)
	userRepo := repositories.NewUserRepository(db, breaker)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			logging.Logger.Warnf("Event ID: NATS_CONNECT_FAILED, Description: Task events disabled: %v", err)
		} else {
			defer natsPublisher.Close()
			publisher = natsPublisher
			logging.Logger.Infof("Event ID: NATS_CONNECTED, Description: Publishing task events to %s", cfg.NATSURL)
		}
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, services.DefaultTokenTTL)
	taskService := services.NewTaskService(taskRepo, userRepo, publisher)
	dashboardService := services.NewDashboardService(taskRepo)
	userService := services.NewUserService(userRepo, taskRepo)
	authService := services.NewAuthService(userRepo, jwtService, cfg.AdminInviteToken)

	router := handlers.NewRouter(handlers.Dependencies{
		Auth:          handlers.NewAuthHandler(authService),
		Tasks:         handlers.NewTaskHandler(taskService, dashboardService),
		Users:         handlers.NewUserHandler(userService),
		Reports:       handlers.NewReportHandler(taskService, userService),
		Uploads:       handlers.NewUploadHandler(cfg.UploadDir),
		Authenticator: middleware.NewAuthenticator(jwtService, userRepo),
		UploadDir:     cfg.UploadDir,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	accessLog := logging.Logger.Writer()
	defer accessLog.Close()

	var handler http.Handler = router
	handler = gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(logging.Logger),
		gorillahandlers.PrintRecoveryStack(true),
	)(handler)
	handler = gorillahandlers.CombinedLoggingHandler(accessLog, handler)
	handler = corsHandler.Handler(handler)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logging.Logger.Infof("Event ID: SERVER_SHUTDOWN, Description: Received %s, shutting down", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}
}
