package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Habit is one card on a user's board, created from a template.
// A user holds at most one habit per template.
type Habit struct {
	ID                    string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID                string    `gorm:"type:char(36);not null;index;uniqueIndex:user_habit_unique" json:"userId"`
	TemplateID            string    `gorm:"size:50;not null;uniqueIndex:user_habit_unique" json:"templateId"`
	ColumnStatus          string    `gorm:"size:20;not null;default:'todo'" json:"columnStatus"`
	SortOrder             int       `gorm:"not null;default:0" json:"sortOrder"`
	DateAdded             string    `gorm:"size:10;not null" json:"dateAdded"`
	TotalMinutesSpent     int       `gorm:"not null;default:0" json:"totalMinutesSpent"`
	CoverImageURL         string    `gorm:"size:512" json:"coverImageUrl"`
	CustomDurationMinutes *int      `json:"customDurationMinutes"`
	ProphecyText          string    `gorm:"type:text" json:"prophecyText"`
	CreatedAt             time.Time `json:"createdAt"`
	User                  User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// Completion marks a habit done on one calendar date. The (habit, date)
// pair is unique; a second insert for the same day is a no-op.
type Completion struct {
	ID            string    `gorm:"type:char(36);primaryKey" json:"id"`
	HabitID       string    `gorm:"type:char(36);not null;uniqueIndex:completion_unique" json:"habitId"`
	UserID        string    `gorm:"type:char(36);not null;index:idx_completions_user_date" json:"userId"`
	CompletedDate string    `gorm:"size:10;not null;uniqueIndex:completion_unique;index:idx_completions_user_date" json:"completedDate"`
	CreatedAt     time.Time `json:"createdAt"`
	Habit         Habit     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (c *Completion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// LogEntry is a free-text diary note attached to a habit. When it carries
// a duration the minutes roll into the habit's running total.
type LogEntry struct {
	ID              string    `gorm:"type:char(36);primaryKey" json:"id"`
	HabitID         string    `gorm:"type:char(36);not null;index" json:"habitId"`
	UserID          string    `gorm:"type:char(36);not null;index" json:"userId"`
	EntryDate       string    `gorm:"size:10;not null" json:"date"`
	Text            string    `gorm:"type:text;not null" json:"text"`
	DurationMinutes *int      `json:"durationMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	Habit           Habit     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (l *LogEntry) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// ChecklistItem is an ordered sub-task under a habit. Checklist updates
// replace the whole set, so item identity is not stable across updates.
type ChecklistItem struct {
	ID        string `gorm:"type:char(36);primaryKey" json:"id"`
	HabitID   string `gorm:"type:char(36);not null;index" json:"habitId"`
	Text      string `gorm:"size:500;not null" json:"text"`
	Done      bool   `gorm:"not null;default:false" json:"done"`
	SortOrder int    `gorm:"not null;default:0" json:"sortOrder"`
	Habit     Habit  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (c *ChecklistItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CustomTemplate is a user-authored habit definition, separate from the
// built-in template catalog shipped with the client.
type CustomTemplate struct {
	ID              string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID          string    `gorm:"type:char(36);not null;index" json:"userId"`
	Layer           string    `gorm:"size:20;not null" json:"layer"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Science         string    `gorm:"type:text" json:"science"`
	TimeOfDay       string    `gorm:"size:10;not null;default:'morning'" json:"timeOfDay"`
	DurationMinutes int       `gorm:"not null;default:10" json:"durationMinutes"`
	Difficulty      string    `gorm:"size:10;not null;default:'easy'" json:"difficulty"`
	TinyHabitAnchor string    `gorm:"type:text" json:"tinyHabitAnchor"`
	WhatYouFeel     string    `gorm:"type:text" json:"whatYouFeel"`
	CommonMistakes  string    `gorm:"type:text" json:"commonMistakes"`
	CustomName      string    `gorm:"size:255" json:"customName"`
	CreatedAt       time.Time `json:"createdAt"`
	User            User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (t *CustomTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
