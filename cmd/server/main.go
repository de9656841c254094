package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/marlenbek/login-service/internal/auth"
	"github.com/marlenbek/login-service/internal/config"
	"github.com/marlenbek/login-service/internal/database"
	"github.com/marlenbek/login-service/internal/handler"
	"github.com/marlenbek/login-service/internal/queue"
	"github.com/marlenbek/login-service/internal/repository"
	"github.com/marlenbek/login-service/internal/router"
	"github.com/marlenbek/login-service/internal/user"
)

func main() {
	// Load .env first so config.Load sees local overrides.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql connect failed: %v", err)
	}

	// The session store backs token revocation, so a missing Redis is fatal.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis connect failed: session store unavailable")
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(rdb)
	publisher := queue.NewPublisher()

	authSvc := auth.NewService(cfg, users, sessions, publisher)
	userSvc := user.NewService(cfg, users, publisher)

	// Background consumer standing in for the SMS/email gateway.
	go func() {
		if err := queue.StartOTPConsumer(); err != nil {
			log.Printf("otp consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, authSvc), authSvc)
	router.RegisterUsers(e, handler.NewUserHandler(cfg, userSvc), authSvc)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
