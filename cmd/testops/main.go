package main

import (
	"errors"
	"os"

	"github.com/cybro8/TestOps-HealthCare-Project/db"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/auth"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/handlers"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/router"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("No .env file loaded: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		log.Fatalf("Could not connect to the database after retries: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := ensureAdminUser(); err != nil {
		log.Fatalf("Failed to bootstrap admin user: %v", err)
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	handlers.InitGeneration(os.Getenv("OPENAI_API_KEY"))

	r := router.NewRouter()

	port := os.Getenv("PORT")

	if port == "" {
		port = "8000"
		log.Info("PORT not set, defaulting to 8000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureAdminUser creates the bootstrap admin account on first start.
func ensureAdminUser() error {
	username := os.Getenv("ADMIN_USERNAME")

	if username == "" {
		username = "admin"
	}

	password := os.Getenv("ADMIN_PASSWORD")

	if password == "" {
		password = "admin123"
	}

	var existing models.User

	err := db.DB.Where("username = ?", username).First(&existing).Error

	if err == nil {
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return err
	}

	admin := models.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		Role:         models.RoleAdmin,
	}

	if err := db.DB.Create(&admin).Error; err != nil {
		return err
	}

	log.Infof("Bootstrapped admin user %q", username)
	return nil
}
