package api

import (
	"time"
)

type equipmentModel struct {
	ID          string     `gorm:"type:text;primaryKey"`
	Category    string     `gorm:"type:text;not null"`
	Location    string     `gorm:"type:text"`
	InstallDate *time.Time `gorm:"type:date"`
	Status      string     `gorm:"type:text;not null;default:'active'"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime"`
}

func (equipmentModel) TableName() string { return "equipment" }

func (m equipmentModel) toAPI() Equipment {
	return Equipment{
		ID:          m.ID,
		Category:    m.Category,
		Location:    m.Location,
		InstallDate: m.InstallDate,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
