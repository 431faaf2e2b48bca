package models

import (
	"time"
)

type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Role      string    `json:"role" gorm:"type:text;not null"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index"`
}

type Project struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string    `json:"title" gorm:"type:text;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Tech        string    `json:"tech" gorm:"type:text;not null"`
	Link        string    `json:"link" gorm:"type:text"`
	Image       string    `json:"image" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index"`
}

type Skill struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Category  string    `json:"category" gorm:"type:text;not null"`
	Level     int       `json:"level" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index"`
}

type Social struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Platform  string    `json:"platform" gorm:"type:text;not null"`
	URL       string    `json:"url" gorm:"type:text;not null"`
	Icon      string    `json:"icon" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index"`
}
