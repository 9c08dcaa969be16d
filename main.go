package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bounty-escrow-system/handlers"
	"bounty-escrow-system/middleware"
	"bounty-escrow-system/models"
	"bounty-escrow-system/services"
	"bounty-escrow-system/utils"
	"bounty-escrow-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.RegistryConfig{},
		&models.Account{},
		&models.Bounty{},
		&models.VerificationRequest{},
		&models.EscrowEvent{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// --- CONFIGURE Oracle service details ---
	oracleServiceURL := os.Getenv("ORACLE_SERVICE_URL")
	if oracleServiceURL == "" {
		log.Fatal("ORACLE_SERVICE_URL environment variable not set")
	}
	oracleServiceToken := os.Getenv("ORACLE_SERVICE_TOKEN")
	if oracleServiceToken == "" {
		log.Fatal("ORACLE_SERVICE_TOKEN environment variable not set")
	}
	oracleIdentity := os.Getenv("ORACLE_IDENTITY")
	if oracleIdentity == "" {
		log.Fatal("ORACLE_IDENTITY environment variable not set")
	}
	ownerIdentity := os.Getenv("OWNER_IDENTITY")
	if ownerIdentity == "" {
		log.Fatal("OWNER_IDENTITY environment variable not set")
	}
	// --- END CONFIG ---

	oracleClient := services.NewOracleClient(oracleServiceURL, oracleServiceToken)
	bountyService := services.NewBountyService(db, oracleClient)

	if err := bountyService.InitRegistryConfig(ownerIdentity, oracleIdentity); err != nil {
		log.Fatal("failed to seed registry config:", err)
	}

	// Optional expiry sweep — leave VERIFICATION_TTL unset to keep the
	// original no-timeout escrow semantics
	if ttlStr := os.Getenv("VERIFICATION_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			log.Fatal("invalid VERIFICATION_TTL:", err)
		}
		bountyService.StartExpirySweep(ttl)
		log.Printf("✅ Expiry sweep enabled (TTL %s)", ttl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Audit archive (optional — needs R2 credentials)
	if os.Getenv("R2_BUCKET_NAME") != "" {
		if err := utils.InitArchive(); err != nil {
			log.Fatal("failed to initialize audit archive:", err)
		}
		archiver := workers.NewAuditArchiver(db)
		go workers.PollCompletedBounties(ctx, archiver, 1*time.Minute)
		log.Println("✅ Audit archiver running (every 1m)")
	}

	// ✅ Setup routes — enforced Gateway auth everywhere
	handlers.SetupBountyRoutes(app, bountyService)
	handlers.SetupOracleRoutes(app, bountyService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
