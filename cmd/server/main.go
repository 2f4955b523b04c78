package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/ecarfleet/fleet-api/internal/config"
	"github.com/ecarfleet/fleet-api/internal/database"
	"github.com/ecarfleet/fleet-api/internal/handler"
	"github.com/ecarfleet/fleet-api/internal/mailer"
	"github.com/ecarfleet/fleet-api/internal/middleware"
	"github.com/ecarfleet/fleet-api/internal/queue"
	"github.com/ecarfleet/fleet-api/internal/repository"
	"github.com/ecarfleet/fleet-api/internal/router"
	"github.com/ecarfleet/fleet-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Repositories over the shared pool.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	vehicleRepo := repository.NewVehicleRepo(db)
	stationRepo := repository.NewStationRepo(db)
	tariffRepo := repository.NewTariffRepo(db)
	cardRepo := repository.NewChargeCardRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	odometerRepo := repository.NewOdometerRepo(db)
	notificationRepo := repository.NewNotificationRepo(db)

	// Workflow services.
	publisher := queue.NewPublisher()
	fanout := service.NewFanout(notificationRepo, publisher, cfg.FrontendURL)
	odometerSvc := service.NewOdometerService(sessionRepo, odometerRepo, int64(cfg.MaxOdometerDistanceKm))

	// The mailer worker consumes delivery jobs and updates the
	// notification rows.  It reconnects on broker failures, so a dead
	// RabbitMQ only delays mail, it never stops the API.
	smtp := mailer.New(mailer.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUser,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.SMTPFromEmail,
		FromName:  cfg.SMTPFromName,
	})
	worker := queue.NewWorker(notificationRepo, smtp)
	go func() {
		if err := queue.StartConsumer(worker); err != nil {
			log.Printf("mailer worker stopped: %v", err)
		}
	}()

	// Handlers.
	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	fleetHandler := handler.NewFleetHandler(vehicleRepo, stationRepo, tariffRepo, cardRepo, userRepo, tokenRepo)
	sessionHandler := handler.NewSessionHandler(sessionRepo, vehicleRepo, cardRepo, stationRepo, tariffRepo, fanout)
	odometerHandler := handler.NewOdometerHandler(odometerSvc, odometerRepo, vehicleRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	e := echo.New()

	// Redis-backed token bucket in front of everything.  A nil client
	// (Redis down at boot) turns the limiter into a pass-through.
	rlCfg := config.LoadRateLimitConfig()
	rdb := config.NewRedisClient()
	if rdb == nil && rlCfg.Enabled {
		log.Println("redis unreachable, rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(rlCfg, rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterFleet(e, fleetHandler, cfg.JWTSecret)
	router.RegisterSessions(e, sessionHandler, odometerHandler, notificationHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
