package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/kaelo-io/referral_backend/config"
	"github.com/kaelo-io/referral_backend/controllers"
	"github.com/kaelo-io/referral_backend/middleware"
	"github.com/kaelo-io/referral_backend/repositories"
	"github.com/kaelo-io/referral_backend/routes"
	"github.com/kaelo-io/referral_backend/services"
	"github.com/kaelo-io/referral_backend/utils"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders(middleware.NewSecurityConfig()))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Referral Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Initialize repositories
	programRepo := repositories.NewProgramRepository(client)
	linkRepo := repositories.NewLinkRepository(client)
	usageRepo := repositories.NewLinkUsageRepository(client)
	blockRepo := repositories.NewBlockRepository(client)
	blockReasonRepo := repositories.NewBlockReasonRepository(client)
	userRepo := repositories.NewUserRepository(client)
	countryRepo := repositories.NewCountryRepository(client)
	transactor := repositories.NewMongoTransactor(client)

	// Initialize services
	notifier := utils.NewEmailNotifier()
	shortener := services.NewShortLinkService()

	var progressLock services.ProgressLock = services.NoopProgressLock{}
	if redisClient != nil {
		progressLock = services.NewRedisProgressLock(redisClient)
	}

	appBaseURL := os.Getenv("APP_BASE_URL")
	if appBaseURL == "" {
		appBaseURL = "http://localhost:8080"
		log.Println("Warning: APP_BASE_URL not set, using", appBaseURL)
	}

	maintenanceService := services.NewLinkMaintenanceService(linkRepo, usageRepo, transactor)
	programService := services.NewProgramService(programRepo, countryRepo, userRepo, maintenanceService, transactor, notifier)
	linkService := services.NewLinkService(linkRepo, programService, userRepo, countryRepo, shortener, transactor, appBaseURL)
	blockService := services.NewBlockService(blockRepo, blockReasonRepo, userRepo, maintenanceService, transactor, notifier)
	usageService := services.NewLinkUsageService(usageRepo, linkService, programService, userRepo, blockService, progressLock, transactor)
	analyticsService := services.NewAnalyticsService(linkRepo, usageRepo, userRepo)

	// Initialize controllers
	authController := controllers.NewAuthController(client)
	programController := controllers.NewProgramController(programService)
	linkController := controllers.NewLinkController(linkService)
	usageController := controllers.NewLinkUsageController(usageService)
	blockController := controllers.NewBlockController(blockService)
	analyticsController := controllers.NewAnalyticsController(analyticsService)

	// Register routes
	routes.RegisterReferralRoutes(e, authController, programController, linkController, usageController, blockController, analyticsController)

	// Start the expiry sweep in a goroutine. Programs past their end date
	// move to expired with their links and pending claims; pending claims
	// past their completion window expire individually.
	go func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			if err := programService.ExpirePastEndDate(ctx); err != nil {
				log.Printf("Program expiry sweep failed: %v", err)
			}
			if err := usageService.ExpirePastWindow(ctx); err != nil {
				log.Printf("Usage expiry sweep failed: %v", err)
			}
			cancel()
			time.Sleep(5 * time.Minute)
		}
	}()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
