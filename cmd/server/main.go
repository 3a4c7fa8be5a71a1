package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/brewtab/cafe-backend/internal/config"
	"github.com/brewtab/cafe-backend/internal/counter"
	"github.com/brewtab/cafe-backend/internal/es"
	"github.com/brewtab/cafe-backend/internal/events"
	"github.com/brewtab/cafe-backend/internal/handlers"
	loggingmw "github.com/brewtab/cafe-backend/internal/middleware/logging"
	"github.com/brewtab/cafe-backend/internal/mail"
	"github.com/brewtab/cafe-backend/internal/repo"
	"github.com/brewtab/cafe-backend/internal/service"
	httpserver "github.com/brewtab/cafe-backend/internal/transport/http"
	"github.com/brewtab/cafe-backend/pkg/logging"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: db}

	mailer := &mail.Mailer{
		Host:     configuration.SMTP_HOST,
		Port:     configuration.SMTP_PORT,
		Username: configuration.SMTP_USERNAME,
		Password: configuration.SMTP_PASSWORD,
		FromName: configuration.SMTP_FROM_NAME,
		Timeout:  10 * time.Second,
		Logger:   logger,
	}

	var producer *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer, err = events.NewProducer(
			[]string{configuration.KAFKA_ADDRESS},
			[]string{events.TopicAdminEvents, events.TopicOrderEvents},
		)
		if err != nil {
			log.Fatalf("kafka init failed: %v", err)
		}
	} else {
		logger.Warn("KAFKA_ADDRESS not set, domain events disabled")
	}

	rdb := redis.NewClient(&redis.Options{Addr: configuration.REDIS_ADDR})
	seq := counter.New(rdb, "order_seq")

	authSvc := &service.AuthService{
		Repo:             gormRepo,
		Mailer:           mailer,
		Producer:         producer,
		JWTSecret:        []byte(configuration.JWT_SECRET),
		RefreshSecret:    []byte(configuration.JWT_REFRESH_SECRET),
		AccessTTL:        configuration.JWT_EXPIRE,
		RefreshTTL:       configuration.REFRESH_EXPIRE,
		RememberTTL:      configuration.REMEMBER_EXPIRE,
		MaxLoginAttempts: configuration.MAX_LOGIN_ATTEMPTS,
		LockoutTime:      configuration.LOCKOUT_TIME,
		BcryptCost:       configuration.BCRYPT_ROUNDS,
		FrontendURL:      configuration.FRONTEND_URL,
		Logger:           logger,
	}

	bootstrapSvc := &service.BootstrapService{
		Repo:       gormRepo,
		Auth:       authSvc,
		Mailer:     mailer,
		Producer:   producer,
		BcryptCost: configuration.BCRYPT_ROUNDS,
		Logger:     logger,
	}

	orderSvc := &service.OrderService{
		Repo:     gormRepo,
		Seq:      seq,
		Producer: producer,
		Logger:   logger,
	}

	menuHandler := &handlers.MenuHandler{Repo: gormRepo, Index: "menu"}
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init failed: %v", err)
		}
		menuHandler.ES = esClient
	} else {
		logger.Warn("ES_URL not set, menu search disabled")
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{configuration.FRONTEND_URL},
		AllowCredentials: true,
	}))

	deps := httpserver.Deps{
		DB:        db,
		Repo:      gormRepo,
		JWTSecret: []byte(configuration.JWT_SECRET),
		AdminHandler: &handlers.AdminHandler{
			Bootstrap: bootstrapSvc,
			Auth:      authSvc,
			Orders:    orderSvc,
			Cfg:       configuration,
		},
		OrderHandler: &handlers.OrderHandler{Svc: orderSvc},
		MenuHandler:  menuHandler,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := rdb.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
