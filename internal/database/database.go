package database

import (
	"fmt"
	"log"
	"time"

	"icu-backend-bed-allocation/internal/config"
	"icu-backend-bed-allocation/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect initializes and returns a GORM database connection
func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
	)

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.GinMode == "release" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Successfully connected to database")

	return db
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Bed{},
		&models.Doctor{},
		&models.Patient{},
		&models.WaitingEntry{},
		&models.AllocationRecord{},
		&models.User{},
		&models.RefreshToken{},
		&models.AuditLog{},
	)
}

// Seed populates the bed fleet and a default doctor roster on first
// run. It is a no-op when beds already exist.
func Seed(db *gorm.DB, numBeds int) error {
	var count int64
	if err := db.Model(&models.Bed{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Database already contains data, skipping seeding")
		return nil
	}

	log.Println("First run detected - seeding default data")

	// Bed fleet: ids 0..N-1, cycling through the bed types so every
	// type has capacity.
	for i := 0; i < numBeds; i++ {
		bed := &models.Bed{
			BedID:   i,
			BedType: models.BedTypes[i%len(models.BedTypes)],
		}
		if err := db.Create(bed).Error; err != nil {
			return fmt.Errorf("failed to seed bed %d: %w", i, err)
		}
	}
	log.Printf("Created %d ICU beds", numBeds)

	defaultDoctors := []*models.Doctor{
		{DoctorID: 1, Name: "Dr. Sarah Johnson", ExperienceYears: 15, Specialization: models.SpecCardiac, MaxCapacity: 5, IsAvailable: true},
		{DoctorID: 2, Name: "Dr. Michael Chen", ExperienceYears: 12, Specialization: models.SpecNeuro, MaxCapacity: 5, IsAvailable: true},
		{DoctorID: 3, Name: "Dr. Emily Rodriguez", ExperienceYears: 10, Specialization: models.SpecPulmonary, MaxCapacity: 5, IsAvailable: true},
		{DoctorID: 4, Name: "Dr. James Wilson", ExperienceYears: 8, Specialization: models.SpecGeneral, MaxCapacity: 6, IsAvailable: true},
		{DoctorID: 5, Name: "Dr. Lisa Anderson", ExperienceYears: 6, Specialization: models.SpecGeneral, MaxCapacity: 6, IsAvailable: true},
	}
	for _, d := range defaultDoctors {
		if err := db.Create(d).Error; err != nil {
			return fmt.Errorf("failed to seed doctor %d: %w", d.DoctorID, err)
		}
	}
	log.Printf("Created %d doctors", len(defaultDoctors))

	return nil
}
