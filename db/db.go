package db

import (
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/config"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/models"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(cfg *config.Config) {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		Logger: utils.GetGormLogger(),
	})
	if err != nil {
		utils.LogError(err, "Error connecting to the database")
		panic("Could not connect to the database")
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Plan{},
		&models.Payment{},
		&models.UserSubscription{},
		&models.OpteryMember{},
		&models.ScanHistoryRecord{},
	)
	if err != nil {
		utils.LogError(err, "Error migrating database")
		panic("Could not migrate database")
	}

	utils.LogSuccess("Database connection successful")
}
