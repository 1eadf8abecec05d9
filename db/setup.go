package db

import (
	"time"

	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

const (
	connectAttempts = 15
	connectBackoff  = 3 * time.Second
)

// ConnectDatabase opens the connection, retrying with a fixed backoff. The
// process must not serve requests against a database it cannot reach.
func ConnectDatabase(dsn string) error {
	var err error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

		if err == nil {
			log.Info("Database connected")
			return nil
		}

		log.Warnf("Database connection failed (%d/%d): %v", attempt, connectAttempts, err)
		time.Sleep(connectBackoff)
	}

	return err
}

func MigrateDatabase() error {
	models := []interface{}{
		&models.User{},
		&models.Project{},
		&models.ProjectUser{},
		&models.ProjectFile{},
	}

	migrator := DB.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := DB.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}
