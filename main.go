package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackathon-platform/config"
	"hackathon-platform/elastic"
	"hackathon-platform/handlers"
	"hackathon-platform/metrics"
	"hackathon-platform/middleware"
	"hackathon-platform/models"
	"hackathon-platform/services"
	"hackathon-platform/utils"
	"hackathon-platform/workers"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	config.Logger()
	config.LoadEnv()
	config.MustHave("DATABASE_URL", config.Env.DatabaseURL)
	config.MustHave("JWT_SECRET", config.Env.JWTSecret)
	if config.Env.ServiceToken == "" {
		log.Println("⚠️  SERVICE_TOKEN not set, /internal endpoints will reject every request")
	}

	metrics.Register()

	app := fiber.New(fiber.Config{
		BodyLimit:    30 * 1024 * 1024,
		ErrorHandler: services.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.Env.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(middleware.Identity(config.Env.JWTSecret, config.Env.GatewayToken))

	db, err := gorm.Open(postgres.Open(config.Env.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Hackathon{},
		&models.HackathonStaff{},
		&models.Registration{},
		&models.Team{},
		&models.TeamMember{},
		&models.Stage{},
		&models.Submission{},
		&models.Meeting{},
		&models.Announcement{},
		&models.Notification{},
		&models.UserProfile{},
		&models.OutboxEvent{},
		&models.DeliveryFailure{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	esClient := elastic.Connect(config.Env.ElasticURL)
	var search services.SearchFunc
	if esClient != nil {
		if err := elastic.EnsureIndexes(ctx, esClient); err != nil {
			log.Fatalf("ensure indexes: %v", err)
		}
		search = func(ctx context.Context, hackathonID, q string, size int) ([]elastic.SubmissionHit, error) {
			return elastic.SearchSubmissions(ctx, esClient, hackathonID, q, size)
		}
	}

	store := attachmentStore(ctx, app)

	policy := services.NewPolicy(db)
	hackathonService := services.NewHackathonService(db, policy)
	registrationService := services.NewRegistrationService(db, policy)
	stageService := services.NewStageService(db, policy)
	submissionService := services.NewSubmissionService(db, policy, store, search, config.Env.AppBaseURL)
	meetingService := services.NewMeetingService(db, policy, config.Env.AppBaseURL)
	announcementService := services.NewAnnouncementService(db, policy, config.Env.AppBaseURL)
	notificationService := services.NewNotificationService(db)
	organizationService := services.NewOrganizationService(db, policy)
	userService := services.NewUserService(db)

	sched, err := services.StartScheduler(hackathonService, announcementService)
	if err != nil {
		log.Fatal("failed to start scheduler:", err)
	}

	startWorkers(ctx, db, esClient)

	handlers.SetupOrganizationRoutes(app, organizationService, userService)
	handlers.SetupHackathonRoutes(app, hackathonService, registrationService)
	handlers.SetupStageRoutes(app, stageService)
	handlers.SetupSubmissionRoutes(app, submissionService)
	handlers.SetupMeetingRoutes(app, meetingService)
	handlers.SetupAnnouncementRoutes(app, announcementService)
	handlers.SetupNotificationRoutes(app, notificationService)
	handlers.SetupInternalRoutes(app, config.Env.ServiceToken, &services.DeliveryFailureService{DB: db})

	go func() {
		if err := app.Listen(":" + config.Env.AppPort); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", config.Env.AppPort)
	log.Printf("✅ CORS configured for origins: %s", config.Env.AllowedOrigins)
	log.Printf("✅ Calendar days evaluated in %s", config.Location)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := sched.Shutdown(); err != nil {
		log.Printf("scheduler shutdown: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

// attachmentStore prefers R2 and falls back to local disk served from /uploads.
func attachmentStore(ctx context.Context, app *fiber.App) services.ObjectStore {
	if config.Env.R2Enabled() {
		store, err := utils.NewR2Store(ctx,
			config.Env.CloudflareAccountID,
			config.Env.R2AccessKeyID,
			config.Env.R2AccessKeySecret,
			config.Env.R2BucketName,
			config.Env.CDNBaseURL,
		)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		log.Println("✅ Attachments stored in R2")
		return store
	}

	store, err := utils.NewDiskStore("./uploads", "http://localhost:"+config.Env.AppPort+"/uploads")
	if err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}
	app.Static("/uploads", "./uploads")
	log.Println("⚠️  R2 not configured, attachments stored on local disk")
	return store
}

func startWorkers(ctx context.Context, db *gorm.DB, esClient *es.Client) {
	delivery := &workers.DeliveryWorker{
		DB:             db,
		ES:             esClient,
		NotifyURL:      config.Env.NotifyWebhookURL,
		MeetingLinkURL: config.Env.MeetingLinkWebhookURL,
		ServiceToken:   config.Env.ServiceToken,
		Interval:       time.Second,
	}
	go delivery.Run(ctx)
	go delivery.RetryDLQ(ctx)
	log.Println("✅ Outbox delivery worker running")

	if config.Env.ProfileSyncURL == "" {
		log.Println("⚠️  PROFILE_SYNC_URL not set, author profiles will not be mirrored")
		return
	}
	workers.NewProfileSyncWorker(db, config.Env.ProfileSyncURL, "/api/v1/public/profiles", config.Env.ServiceToken).Start(ctx)
}
