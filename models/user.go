package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth methods accepted for User.AuthMethod.
const (
	AuthMethodGoogle    = "google"
	AuthMethodEmail     = "email"
	AuthMethodAnonymous = "anonymous"
)

// User represents an application account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`
	GoogleID     *string   `gorm:"size:255;uniqueIndex" json:"-"`
	Email        string    `gorm:"size:255;not null;index" json:"email"`
	DisplayName  string    `gorm:"size:255;not null" json:"displayName"`
	AvatarURL    string    `gorm:"size:512" json:"avatarUrl"`
	AuthMethod   string    `gorm:"size:20;not null" json:"authMethod"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActive   time.Time `json:"lastActive"`
}

// BeforeCreate assigns a UUID and fills timestamps when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.LastActive.IsZero() {
		u.LastActive = now
	}
	return nil
}

// Onboarding holds the one-per-user survey captured during first launch.
type Onboarding struct {
	ID                  string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID              string    `gorm:"type:char(36);not null;uniqueIndex" json:"userId"`
	MainPain            string    `gorm:"size:20" json:"mainPain"`
	DesiredOutcome      string    `gorm:"type:text" json:"desiredOutcome"`
	PriorityAreas       []string  `gorm:"serializer:json;type:text" json:"priorityAreas"`
	DailyMinutes        int       `json:"dailyMinutes"`
	WakeTime            string    `gorm:"size:10" json:"wakeTime"`
	TrackerExperience   string    `gorm:"size:20" json:"trackerExperience"`
	OnboardingCompleted bool      `gorm:"not null;default:false" json:"onboardingCompleted"`
	CreatedAt           time.Time `json:"createdAt"`
	User                User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (o *Onboarding) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// AdminUser is a separate credential table for the statistics dashboard.
type AdminUser struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (a *AdminUser) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
