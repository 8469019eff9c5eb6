package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompletionHistory snapshots how many habits a user completed on one
// date. Rows are written once by the day reset and never overwritten.
type CompletionHistory struct {
	ID             string `gorm:"type:char(36);primaryKey" json:"id"`
	UserID         string `gorm:"type:char(36);not null;uniqueIndex:completion_history_unique" json:"userId"`
	RecordDate     string `gorm:"size:10;not null;uniqueIndex:completion_history_unique" json:"recordDate"`
	CompletedCount int    `gorm:"not null;default:0" json:"completedCount"`
	User           User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (h *CompletionHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// UserStreak is the per-user singleton tracking consecutive qualifying
// days. LastComputed gates the day reset to once per calendar day.
type UserStreak struct {
	UserID        string `gorm:"type:char(36);primaryKey" json:"userId"`
	CurrentStreak int    `gorm:"not null;default:0" json:"currentStreak"`
	MaxStreak     int    `gorm:"not null;default:0" json:"maxStreak"`
	LastComputed  string `gorm:"size:10" json:"lastComputed"`
	User          User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
