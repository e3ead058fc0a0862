package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"chatwave/backend/internal/api/handler"
	"chatwave/backend/internal/chathub"
	"chatwave/backend/internal/config"
	"chatwave/backend/internal/conversation"
	"chatwave/backend/internal/fanout"
	"chatwave/backend/internal/models"
	"chatwave/backend/internal/reaction"
	"chatwave/backend/internal/security"
	"chatwave/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.FollowRequest{},
		&models.ChatRoom{},
		&models.Message{},
		&models.Reaction{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting ChatWave Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewService(db, rdb)

	// Each server instance has its own origin so events it publishes
	// to the bus are not re-delivered to its own sessions.
	origin := uuid.New().String()

	hub := chathub.NewManager(origin, s)
	router := fanout.NewRouter(origin, hub, s)
	resolver := conversation.NewResolver(s)
	ledger := reaction.NewLedger(s)
	signer := security.NewTokenSigner(cfg.JWTSecret, cfg.JWTTTL)

	go hub.Run()

	r := gin.Default()
	h := handler.NewHandler(s, resolver, ledger, router, hub, signer)
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
