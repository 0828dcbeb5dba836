package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedsync/api/handlers"
	"feedsync/api/middleware"
	"feedsync/api/routes"
	"feedsync/config"
	"feedsync/db"
	"feedsync/remote"
	"feedsync/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to the configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("DEBUG: .env not loaded, using process environment")
	}

	conf, err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...", conf.Store.Driver, conf.Remote.BaseURL)

	// Без хранилища ядро не работает
	manager, err := db.Open(conf.Store)
	if err != nil {
		panic("Failed to open the store: " + err.Error())
	}
	store := db.NewStore(manager, conf.Store.QueueSize)

	ctx := context.Background()

	redisClient, err := services.NewRedisClient(ctx, conf.Redis)
	if err != nil {
		log.Printf("ERROR: Redis unavailable, avatars are not cached: %v", err)
		redisClient = nil
	}

	var publisher services.EventPublisher = services.NopPublisher{}
	if conf.RabbitMQ.URL != "" {
		amqpPublisher, err := services.NewAMQPPublisher(conf.RabbitMQ.URL, conf.RabbitMQ.Exchange)
		if err != nil {
			log.Printf("ERROR: RabbitMQ unavailable, events are not published: %v", err)
		} else {
			defer amqpPublisher.Close()
			publisher = amqpPublisher
		}
	}

	client := remote.NewClient(conf.Remote)
	engine := services.NewSyncEngine(store, client,
		services.WithPublisher(publisher),
		services.WithBackgroundTimeout(conf.Remote.SyncTimeout),
	)
	likes := services.NewLikeLedger(store, publisher)
	avatars := services.NewAvatarService(client, redisClient, conf.Redis.AvatarTTL)

	if conf.Logs.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware("feed-sync"))

	routes.PublicApi(router, handlers.New(engine, likes, avatars, store))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port),
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ERROR: Server failed: %v", err)
		}
	}()
	log.Printf("Listening on %s", srv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server shutdown: %v", err)
	}

	engine.Wait()
	if err := store.Close(); err != nil {
		log.Printf("ERROR: Store close: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Println("Server stopped")
}
