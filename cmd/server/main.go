package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"icu-backend-bed-allocation/internal/config"
	"icu-backend-bed-allocation/internal/database"
	"icu-backend-bed-allocation/internal/engine"
	"icu-backend-bed-allocation/internal/handler"
	"icu-backend-bed-allocation/internal/middleware"
	"icu-backend-bed-allocation/internal/repository"
	"icu-backend-bed-allocation/internal/service"
	"icu-backend-bed-allocation/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log.Println("Configuration loaded successfully")

	// 2. Initialize JWT utilities with config
	utils.InitJWT(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// 3. Initialize database connection, schema and first-run seed
	db := database.Connect(cfg)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.Seed(db, cfg.Seed.NumBeds); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	// 4. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	patientRepo := repository.NewPatientRepo(db)
	bedRepo := repository.NewBedRepo(db)
	doctorRepo := repository.NewDoctorRepo(db)
	waitingRepo := repository.NewWaitingRepo(db)
	allocationRepo := repository.NewAllocationRepo(db)

	// 5. Load persisted state and build the allocation engine
	state, err := service.LoadInitialState(patientRepo, bedRepo, doctorRepo, waitingRepo, allocationRepo)
	if err != nil {
		log.Fatalf("Failed to load initial state: %v", err)
	}
	sink := service.NewPersistenceSink(patientRepo, bedRepo, doctorRepo, waitingRepo, allocationRepo)
	eng := engine.New(state, sink)
	log.Printf("Allocation engine initialized: %d beds, %d doctors, %d patients, %d waiting",
		len(state.Beds), len(state.Doctors), len(state.Patients), len(state.Waiting))

	// 6. Initialize services
	authService := service.NewAuthService(userRepo, auditRepo)
	allocationService := service.NewAllocationService(eng, auditRepo)
	sweepService := service.NewSweepService(eng, cfg.Sweep.Interval, cfg.Sweep.ErrorBackoff)

	// 7. Start background sweep in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweepService.Start(ctx)

	// 8. Setup Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// 9. Setup Gin router
	r := gin.Default()

	// Apply CORS middleware
	r.Use(middleware.CORS(cfg))

	// 10. Register handlers
	authHandler := handler.NewAuthHandler(authService)
	allocationHandler := handler.NewAllocationHandler(allocationService)
	statusHandler := handler.NewStatusHandler(allocationService)

	// 11. Define routes
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "icu-backend-bed-allocation",
		})
	})

	// Auth routes (public)
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	// ICU routes (authenticated)
	icu := r.Group("/")
	icu.Use(middleware.AuthMiddleware())
	{
		icu.GET("/status", statusHandler.GetStatus)
		icu.GET("/beds/status", statusHandler.GetBedStatus)
		icu.GET("/queue/waiting", statusHandler.GetWaitingQueue)
		icu.GET("/doctors/workload", statusHandler.GetDoctorWorkloads)
		icu.GET("/patients/:id", allocationHandler.GetPatient)
		icu.GET("/logs/allocations", statusHandler.GetAllocationLog)
		icu.GET("/logs/allocations/export", statusHandler.ExportAllocationLog)

		// Admin-only routes
		icu.POST("/patients/admit", middleware.RequireAdmin(), allocationHandler.AdmitPatient)
		icu.POST("/patients/:id/discharge", middleware.RequireAdmin(), allocationHandler.DischargePatient)
		icu.POST("/doctors", middleware.RequireAdmin(), allocationHandler.AddDoctor)
	}

	// 12. Setup graceful shutdown
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := r.Run(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel background sweep context
	cancel()
	log.Println("Server exited")
}
