package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The six journal kinds share {user, entryDate, createdAt} but each has
// its own fixed field set and its own table. Routing by type tag lives in
// the journal controller.
const (
	JournalLuck      = "luck"
	JournalGratitude = "gratitude"
	JournalDecisions = "decisions"
	JournalWoop      = "woop"
	JournalProphecy  = "prophecy"
	JournalBeliefs   = "beliefs"
)

// LuckEntry records up to three lucky events noticed during the day.
type LuckEntry struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:char(36);not null;index" json:"userId"`
	EntryDate string    `gorm:"size:10;not null" json:"entryDate"`
	Event1    string    `gorm:"type:text;not null" json:"event1"`
	Event2    string    `gorm:"type:text;not null" json:"event2"`
	Event3    string    `gorm:"type:text;not null" json:"event3"`
	CreatedAt time.Time `json:"createdAt"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (e *LuckEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// GratitudeEntry records three things the user is grateful for.
type GratitudeEntry struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:char(36);not null;index" json:"userId"`
	EntryDate string    `gorm:"size:10;not null" json:"entryDate"`
	Item1     string    `gorm:"type:text;not null" json:"item1"`
	Item2     string    `gorm:"type:text;not null" json:"item2"`
	Item3     string    `gorm:"type:text;not null" json:"item3"`
	CreatedAt time.Time `json:"createdAt"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (e *GratitudeEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// DecisionEntry captures a decision plus the reasoning behind it, for
// later review.
type DecisionEntry struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID         string    `gorm:"type:char(36);not null;index" json:"userId"`
	EntryDate      string    `gorm:"size:10;not null" json:"entryDate"`
	Decision       string    `gorm:"type:text;not null" json:"decision"`
	Logic          string    `gorm:"type:text;not null" json:"logic"`
	Expectation    string    `gorm:"type:text;not null" json:"expectation"`
	EmotionalState string    `gorm:"type:text;not null" json:"emotionalState"`
	CreatedAt      time.Time `json:"createdAt"`
	User           User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (e *DecisionEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// WoopEntry follows the wish/outcome/obstacle/plan exercise.
type WoopEntry struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:char(36);not null;index" json:"userId"`
	EntryDate string    `gorm:"size:10;not null" json:"entryDate"`
	Wish      string    `gorm:"type:text;not null" json:"wish"`
	Outcome   string    `gorm:"type:text;not null" json:"outcome"`
	Obstacle  string    `gorm:"type:text;not null" json:"obstacle"`
	Plan      string    `gorm:"type:text;not null" json:"plan"`
	CreatedAt time.Time `json:"createdAt"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (e *WoopEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// ProphecyEntry is a self-fulfilling prophecy statement with reasoning
// and concrete steps.
type ProphecyEntry struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:char(36);not null;index" json:"userId"`
	EntryDate string    `gorm:"size:10;not null" json:"entryDate"`
	Prophecy  string    `gorm:"type:text;not null" json:"prophecy"`
	Reasoning string    `gorm:"type:text;not null" json:"reasoning"`
	Steps     string    `gorm:"type:text;not null" json:"steps"`
	CreatedAt time.Time `json:"createdAt"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (e *ProphecyEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// BeliefEntry examines an empowering or limiting belief.
type BeliefEntry struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID     string    `gorm:"type:char(36);not null;index" json:"userId"`
	EntryDate  string    `gorm:"size:10;not null" json:"entryDate"`
	Belief     string    `gorm:"type:text;not null" json:"belief"`
	Origin     string    `gorm:"type:text;not null" json:"origin"`
	Impact     string    `gorm:"type:text;not null" json:"impact"`
	BeliefType string    `gorm:"size:10;not null" json:"beliefType"` // empowering | limiting
	CreatedAt  time.Time `json:"createdAt"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (e *BeliefEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
