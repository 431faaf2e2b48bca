package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arcadefolio/arcadefolio/internal/infra/database/models"
)

// Seed inserts starter content into collections that are still empty, so a
// fresh deployment renders something before the admin fills it in.
func Seed(db *gorm.DB) error {

	var reviewCount int64
	if err := db.Model(&models.Review{}).Count(&reviewCount).Error; err != nil {
		return err
	}
	if reviewCount == 0 {
		reviews := []models.Review{
			{ID: uuid.NewString(), Name: "Ada", Role: "Engineer", Text: "Shipped on time, every time.", Rating: 5},
			{ID: uuid.NewString(), Name: "Grace", Role: "Team Lead", Text: "A pleasure to work with.", Rating: 5},
		}
		if err := db.Create(&reviews).Error; err != nil {
			return err
		}
	}

	var skillCount int64
	if err := db.Model(&models.Skill{}).Count(&skillCount).Error; err != nil {
		return err
	}
	if skillCount == 0 {
		skills := []models.Skill{
			{ID: uuid.NewString(), Name: "Go", Category: "backend", Level: 90},
			{ID: uuid.NewString(), Name: "PostgreSQL", Category: "backend", Level: 80},
			{ID: uuid.NewString(), Name: "React", Category: "frontend", Level: 75},
		}
		if err := db.Create(&skills).Error; err != nil {
			return err
		}
	}

	var socialCount int64
	if err := db.Model(&models.Social{}).Count(&socialCount).Error; err != nil {
		return err
	}
	if socialCount == 0 {
		socials := []models.Social{
			{ID: uuid.NewString(), Platform: "github", URL: "https://github.com", Icon: "github"},
		}
		if err := db.Create(&socials).Error; err != nil {
			return err
		}
	}

	return nil
}
