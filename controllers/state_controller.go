package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/habitflow/backend/models"
	"github.com/habitflow/backend/utils"
)

// StateController owns the offline-first sync surface: the full-state
// snapshot read, the once-per-day board reset, and the full-replace import.
type StateController struct {
	db *gorm.DB
	// now is injectable so day-boundary behavior is testable
	now func() time.Time
}

// NewStateController creates a new controller instance.
func NewStateController(db *gorm.DB) *StateController {
	return &StateController{db: db, now: time.Now}
}

// Snapshot is the complete serialized representation of one user's mutable
// data. It is both the GET /state response and the import payload shape.
type Snapshot struct {
	Habits            []HabitState           `json:"habits"`
	CompletionHistory map[string]int         `json:"completionHistory"`
	Streak            int                    `json:"streak"`
	MaxStreak         int                    `json:"maxStreak"`
	Onboarding        *models.Onboarding     `json:"onboarding"`
	CustomTemplates   []models.CustomTemplate `json:"customTemplates"`
	LuckEntries       []models.LuckEntry     `json:"luckEntries"`
	GratitudeEntries  []models.GratitudeEntry `json:"gratitudeEntries"`
	DecisionEntries   []models.DecisionEntry `json:"decisionEntries"`
	WoopEntries       []models.WoopEntry     `json:"woopEntries"`
	ProphecyEntries   []models.ProphecyEntry `json:"prophecyEntries"`
	BeliefEntries     []models.BeliefEntry   `json:"beliefEntries"`
	CurrentDate       string                 `json:"currentDate"`
}

// HabitState is a habit enriched with its relations for client hydration.
type HabitState struct {
	models.Habit
	CompletionDates []string         `json:"completionDates"`
	LogEntries      []LogEntryState  `json:"logEntries"`
	Checklist       []ChecklistState `json:"checklist"`
}

// LogEntryState is the client-facing shape of one log entry.
type LogEntryState struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Text            string `json:"text"`
	DurationMinutes *int   `json:"durationMinutes"`
}

// ChecklistState is the client-facing shape of one checklist item.
type ChecklistState struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// GetState returns the full snapshot used by the client to rehydrate local
// state. Read-only; unlike the profile fetch it does not touch lastActive.
func (s *StateController) GetState(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	snapshot, err := s.assembleSnapshot(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load state")
		return
	}
	utils.Success(ctx, snapshot)
}

func (s *StateController) assembleSnapshot(userID string) (*Snapshot, error) {
	habits, err := loadHabitsWithRelations(s.db, userID)
	if err != nil {
		return nil, err
	}

	var history []models.CompletionHistory
	if err := s.db.Where("user_id = ?", userID).Order("record_date DESC").Find(&history).Error; err != nil {
		return nil, err
	}
	historyMap := make(map[string]int, len(history))
	for _, h := range history {
		historyMap[h.RecordDate] = h.CompletedCount
	}

	snapshot := &Snapshot{
		Habits:            habits,
		CompletionHistory: historyMap,
		CurrentDate:       utils.FormatDate(s.now()),
	}

	var streak models.UserStreak
	if err := s.db.First(&streak, "user_id = ?", userID).Error; err == nil {
		snapshot.Streak = streak.CurrentStreak
		snapshot.MaxStreak = streak.MaxStreak
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var onboarding models.Onboarding
	if err := s.db.First(&onboarding, "user_id = ?", userID).Error; err == nil {
		snapshot.Onboarding = &onboarding
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err := s.db.Where("user_id = ?", userID).Find(&snapshot.CustomTemplates).Error; err != nil {
		return nil, err
	}

	byDateDesc := func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ?", userID).Order("entry_date DESC")
	}
	if err := byDateDesc(s.db).Find(&snapshot.LuckEntries).Error; err != nil {
		return nil, err
	}
	if err := byDateDesc(s.db).Find(&snapshot.GratitudeEntries).Error; err != nil {
		return nil, err
	}
	if err := byDateDesc(s.db).Find(&snapshot.DecisionEntries).Error; err != nil {
		return nil, err
	}
	if err := byDateDesc(s.db).Find(&snapshot.WoopEntries).Error; err != nil {
		return nil, err
	}
	if err := byDateDesc(s.db).Find(&snapshot.ProphecyEntries).Error; err != nil {
		return nil, err
	}
	if err := byDateDesc(s.db).Find(&snapshot.BeliefEntries).Error; err != nil {
		return nil, err
	}

	// Empty slices instead of nulls so the client can merge without guards
	if snapshot.Habits == nil {
		snapshot.Habits = []HabitState{}
	}
	if snapshot.CustomTemplates == nil {
		snapshot.CustomTemplates = []models.CustomTemplate{}
	}

	return snapshot, nil
}

// loadHabitsWithRelations fetches a user's habits ordered by board position,
// each enriched with completion dates, log entries and checklist.
func loadHabitsWithRelations(db *gorm.DB, userID string) ([]HabitState, error) {
	var habits []models.Habit
	if err := db.Where("user_id = ?", userID).Order("sort_order").Find(&habits).Error; err != nil {
		return nil, err
	}

	result := make([]HabitState, 0, len(habits))
	for _, habit := range habits {
		var completions []models.Completion
		if err := db.Where("habit_id = ?", habit.ID).Order("completed_date DESC").Find(&completions).Error; err != nil {
			return nil, err
		}
		var logs []models.LogEntry
		if err := db.Where("habit_id = ?", habit.ID).Order("entry_date DESC").Find(&logs).Error; err != nil {
			return nil, err
		}
		var checklist []models.ChecklistItem
		if err := db.Where("habit_id = ?", habit.ID).Order("sort_order").Find(&checklist).Error; err != nil {
			return nil, err
		}

		state := HabitState{
			Habit:           habit,
			CompletionDates: make([]string, 0, len(completions)),
			LogEntries:      make([]LogEntryState, 0, len(logs)),
			Checklist:       make([]ChecklistState, 0, len(checklist)),
		}
		for _, c := range completions {
			state.CompletionDates = append(state.CompletionDates, c.CompletedDate)
		}
		for _, l := range logs {
			state.LogEntries = append(state.LogEntries, LogEntryState{ID: l.ID, Date: l.EntryDate, Text: l.Text, DurationMinutes: l.DurationMinutes})
		}
		for _, c := range checklist {
			state.Checklist = append(state.Checklist, ChecklistState{ID: c.ID, Text: c.Text, Done: c.Done})
		}
		result = append(result, state)
	}
	return result, nil
}

// DayReset evaluates yesterday's completions, updates the streak and
// clears the board for a new day. At most once per local calendar day:
// lastComputed is the idempotence key, so repeated client calls are no-ops.
func (s *StateController) DayReset(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	release := utils.LockUser(userID)
	defer release()

	today := utils.FormatDate(s.now())

	var streak models.UserStreak
	err := s.db.First(&streak, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		streak = models.UserStreak{UserID: userID}
		if err = s.db.Create(&streak).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to init streak")
			return
		}
	} else if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load streak")
		return
	}

	if streak.LastComputed == today {
		utils.Success(ctx, gin.H{
			"message":   "already reset",
			"streak":    streak.CurrentStreak,
			"maxStreak": streak.MaxStreak,
		})
		return
	}

	yesterday := utils.FormatDate(s.now().AddDate(0, 0, -1))

	var totalHabits int64
	if err := s.db.Model(&models.Habit{}).Where("user_id = ?", userID).Count(&totalHabits).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to count habits")
		return
	}
	var doneCount int64
	if err := s.db.Model(&models.Completion{}).Where("user_id = ? AND completed_date = ?", userID, yesterday).Count(&doneCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to count completions")
		return
	}

	// History is immutable once recorded; a row already written for
	// yesterday (by an earlier crash-interrupted run) is left untouched.
	if totalHabits > 0 {
		record := models.CompletionHistory{UserID: userID, RecordDate: yesterday, CompletedCount: int(doneCount)}
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
			utils.Sugar.Warnf("day-reset: history insert failed user=%s date=%s: %v", userID, yesterday, err)
		}
	}

	// A day qualifies when at least half the board was completed. A user
	// with zero habits never advances.
	newStreak := streak.CurrentStreak
	newMax := streak.MaxStreak
	if totalHabits > 0 && float64(doneCount) >= float64(totalHabits)*0.5 {
		newStreak++
		if newStreak > newMax {
			newMax = newStreak
		}
	} else {
		newStreak = 0
	}

	// Fresh board: back to the initial column. Minutes, completions and
	// logs are historical and stay put.
	if err := s.db.Model(&models.Habit{}).Where("user_id = ?", userID).
		Updates(map[string]interface{}{"column_status": "todo", "sort_order": 0}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to reset board")
		return
	}

	if err := s.db.Model(&models.UserStreak{}).Where("user_id = ?", userID).
		Updates(map[string]interface{}{"current_streak": newStreak, "max_streak": newMax, "last_computed": today}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to save streak")
		return
	}

	utils.Success(ctx, gin.H{"streak": newStreak, "maxStreak": newMax})
}
