package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"github.com/habitflow/backend/models"
	"github.com/habitflow/backend/utils"
)

// ImportSnapshot is the client-pushed payload for the full-replace sync.
// The client-side store predates the server and uses slightly different
// key names in places (column/order, date), so both spellings are accepted.
type ImportSnapshot struct {
	Habits            []ImportHabit           `json:"habits"`
	LuckEntries       []ImportJournalEntry    `json:"luckEntries"`
	GratitudeEntries  []ImportJournalEntry    `json:"gratitudeEntries"`
	DecisionEntries   []ImportJournalEntry    `json:"decisionEntries"`
	WoopEntries       []ImportJournalEntry    `json:"woopEntries"`
	ProphecyEntries   []ImportJournalEntry    `json:"prophecyEntries"`
	BeliefEntries     []ImportJournalEntry    `json:"beliefEntries"`
	CompletionHistory map[string]int          `json:"completionHistory"`
	Streak            *int                    `json:"streak"`
	MaxStreak         *int                    `json:"maxStreak"`
	CustomTemplates   []ImportCustomTemplate  `json:"customTemplates"`
}

// ImportHabit mirrors the client's local habit shape.
type ImportHabit struct {
	TemplateID            string                `json:"templateId"`
	Column                string                `json:"column"`
	ColumnStatus          string                `json:"columnStatus"`
	Order                 int                   `json:"order"`
	SortOrder             int                   `json:"sortOrder"`
	DateAdded             string                `json:"dateAdded"`
	TotalMinutesSpent     int                   `json:"totalMinutesSpent"`
	CoverImageURL         string                `json:"coverImageUrl"`
	CustomDurationMinutes *int                  `json:"customDurationMinutes"`
	ProphecyText          string                `json:"prophecyText"`
	CompletionDates       []string              `json:"completionDates"`
	LogEntries            []ImportLogEntry      `json:"logEntries"`
	Checklist             []ImportChecklistItem `json:"checklist"`
}

// ImportLogEntry mirrors the client's log entry shape.
type ImportLogEntry struct {
	Date            string `json:"date"`
	EntryDate       string `json:"entryDate"`
	Text            string `json:"text"`
	DurationMinutes *int   `json:"durationMinutes"`
}

// ImportChecklistItem mirrors the client's checklist item shape.
type ImportChecklistItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// ImportJournalEntry carries the union of all six kinds' fields; the
// per-kind importer picks the ones it knows and defaults the rest.
type ImportJournalEntry struct {
	Date      string `json:"date"`
	EntryDate string `json:"entryDate"`

	Event1 string `json:"event1"`
	Event2 string `json:"event2"`
	Event3 string `json:"event3"`

	Item1 string `json:"item1"`
	Item2 string `json:"item2"`
	Item3 string `json:"item3"`

	Decision       string `json:"decision"`
	Logic          string `json:"logic"`
	Expectation    string `json:"expectation"`
	EmotionalState string `json:"emotionalState"`

	Wish     string `json:"wish"`
	Outcome  string `json:"outcome"`
	Obstacle string `json:"obstacle"`
	Plan     string `json:"plan"`

	Prophecy  string `json:"prophecy"`
	Reasoning string `json:"reasoning"`
	Steps     string `json:"steps"`

	Belief     string `json:"belief"`
	Origin     string `json:"origin"`
	Impact     string `json:"impact"`
	BeliefType string `json:"beliefType"`
}

// ImportCustomTemplate mirrors the client's custom template shape.
type ImportCustomTemplate struct {
	Layer           string `json:"layer"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Science         string `json:"science"`
	TimeOfDay       string `json:"timeOfDay"`
	DurationMinutes int    `json:"durationMinutes"`
	Difficulty      string `json:"difficulty"`
	TinyHabitAnchor string `json:"tinyHabitAnchor"`
	WhatYouFeel     string `json:"whatYouFeel"`
	CommonMistakes  string `json:"commonMistakes"`
	CustomName      string `json:"customName"`
}

// importReport records what a best-effort import actually did. The HTTP
// contract collapses it to {success:true}; the detail goes to the log.
type importReport struct {
	Habits    int
	Journals  int
	History   int
	Templates int
	Skipped   []string
}

func (r *importReport) skip(reason string) {
	r.Skipped = append(r.Skipped, reason)
}

// ImportState replaces all of a user's mutable data with a client
// snapshot. Client identifiers cannot be reconciled against server ones,
// so sync is wholesale replacement: wipe, then re-insert, tolerating
// per-item failure. Only total storage failure aborts the call.
func (s *StateController) ImportState(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var snapshot ImportSnapshot
	if err := ctx.ShouldBindJSON(&snapshot); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid snapshot payload")
		return
	}

	release := utils.LockUser(userID)
	defer release()

	if err := s.wipeUserData(userID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to clear existing data")
		return
	}

	report := &importReport{}
	s.importHabits(userID, snapshot.Habits, report)
	s.importJournals(userID, &snapshot, report)
	s.importHistory(userID, snapshot.CompletionHistory, report)
	s.importTemplates(userID, snapshot.CustomTemplates, report)
	s.upsertStreak(userID, snapshot.Streak, snapshot.MaxStreak, report)

	if len(report.Skipped) > 0 {
		utils.Sugar.Warnf("import: user=%s habits=%d journals=%d history=%d templates=%d skipped=%v",
			userID, report.Habits, report.Journals, report.History, report.Templates, report.Skipped)
	} else {
		utils.Sugar.Infof("import: user=%s habits=%d journals=%d history=%d templates=%d",
			userID, report.Habits, report.Journals, report.History, report.Templates)
	}

	utils.Success(ctx, gin.H{"success": true})
}

// wipeUserData removes every mutable row owned by the user. The streak
// singleton and the user row survive the wipe. Habit children are removed
// explicitly before their parents so the result does not depend on the
// storage engine's cascade configuration.
func (s *StateController) wipeUserData(userID string) error {
	steps := []func() error{
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.Completion{}).Error },
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.LogEntry{}).Error },
		func() error {
			return s.db.Where("habit_id IN (?)", s.db.Model(&models.Habit{}).Select("id").Where("user_id = ?", userID)).
				Delete(&models.ChecklistItem{}).Error
		},
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.Habit{}).Error },
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.LuckEntry{}).Error },
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.GratitudeEntry{}).Error },
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.DecisionEntry{}).Error },
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.WoopEntry{}).Error },
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.ProphecyEntry{}).Error },
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.BeliefEntry{}).Error },
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.CompletionHistory{}).Error },
		func() error { return s.db.Where("user_id = ?", userID).Delete(&models.CustomTemplate{}).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (s *StateController) importHabits(userID string, habits []ImportHabit, report *importReport) {
	today := utils.FormatDate(s.now())

	for _, h := range habits {
		if h.TemplateID == "" {
			report.skip("habit missing templateId")
			continue
		}

		habit := models.Habit{
			UserID:                userID,
			TemplateID:            h.TemplateID,
			ColumnStatus:          firstNonEmpty(h.Column, h.ColumnStatus, "todo"),
			SortOrder:             firstNonZero(h.Order, h.SortOrder),
			DateAdded:             firstNonEmpty(h.DateAdded, today),
			TotalMinutesSpent:     h.TotalMinutesSpent,
			CoverImageURL:         h.CoverImageURL,
			CustomDurationMinutes: h.CustomDurationMinutes,
			ProphecyText:          h.ProphecyText,
		}
		if err := s.db.Create(&habit).Error; err != nil {
			report.skip(fmt.Sprintf("habit %s: %v", h.TemplateID, err))
			continue
		}
		report.Habits++

		// Duplicate dates inside one habit are expected from stale client
		// copies; the unique index absorbs them.
		for _, d := range h.CompletionDates {
			if !utils.ValidDate(d) {
				report.skip(fmt.Sprintf("habit %s: bad completion date %q", h.TemplateID, d))
				continue
			}
			completion := models.Completion{HabitID: habit.ID, UserID: userID, CompletedDate: d}
			if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion).Error; err != nil {
				report.skip(fmt.Sprintf("habit %s: completion %s: %v", h.TemplateID, d, err))
			}
		}

		if len(h.LogEntries) > 0 {
			logs := make([]models.LogEntry, 0, len(h.LogEntries))
			for _, l := range h.LogEntries {
				logs = append(logs, models.LogEntry{
					HabitID:         habit.ID,
					UserID:          userID,
					EntryDate:       firstNonEmpty(l.Date, l.EntryDate, today),
					Text:            l.Text,
					DurationMinutes: l.DurationMinutes,
				})
			}
			if err := s.db.Create(&logs).Error; err != nil {
				report.skip(fmt.Sprintf("habit %s: log entries: %v", h.TemplateID, err))
			}
		}

		if len(h.Checklist) > 0 {
			items := make([]models.ChecklistItem, 0, len(h.Checklist))
			for i, c := range h.Checklist {
				items = append(items, models.ChecklistItem{HabitID: habit.ID, Text: c.Text, Done: c.Done, SortOrder: i})
			}
			if err := s.db.Create(&items).Error; err != nil {
				report.skip(fmt.Sprintf("habit %s: checklist: %v", h.TemplateID, err))
			}
		}
	}
}

func (s *StateController) importJournals(userID string, snapshot *ImportSnapshot, report *importReport) {
	today := utils.FormatDate(s.now())
	date := func(e ImportJournalEntry) string {
		return firstNonEmpty(e.Date, e.EntryDate, today)
	}

	kinds := []struct {
		name    string
		entries []ImportJournalEntry
		build   func(e ImportJournalEntry) interface{}
	}{
		{models.JournalLuck, snapshot.LuckEntries, func(e ImportJournalEntry) interface{} {
			return &models.LuckEntry{UserID: userID, EntryDate: date(e), Event1: e.Event1, Event2: e.Event2, Event3: e.Event3}
		}},
		{models.JournalGratitude, snapshot.GratitudeEntries, func(e ImportJournalEntry) interface{} {
			return &models.GratitudeEntry{UserID: userID, EntryDate: date(e), Item1: e.Item1, Item2: e.Item2, Item3: e.Item3}
		}},
		{models.JournalDecisions, snapshot.DecisionEntries, func(e ImportJournalEntry) interface{} {
			return &models.DecisionEntry{UserID: userID, EntryDate: date(e), Decision: e.Decision, Logic: e.Logic, Expectation: e.Expectation, EmotionalState: e.EmotionalState}
		}},
		{models.JournalWoop, snapshot.WoopEntries, func(e ImportJournalEntry) interface{} {
			return &models.WoopEntry{UserID: userID, EntryDate: date(e), Wish: e.Wish, Outcome: e.Outcome, Obstacle: e.Obstacle, Plan: e.Plan}
		}},
		{models.JournalProphecy, snapshot.ProphecyEntries, func(e ImportJournalEntry) interface{} {
			return &models.ProphecyEntry{UserID: userID, EntryDate: date(e), Prophecy: e.Prophecy, Reasoning: e.Reasoning, Steps: e.Steps}
		}},
		{models.JournalBeliefs, snapshot.BeliefEntries, func(e ImportJournalEntry) interface{} {
			return &models.BeliefEntry{UserID: userID, EntryDate: date(e), Belief: e.Belief, Origin: e.Origin, Impact: e.Impact, BeliefType: firstNonEmpty(e.BeliefType, "empowering")}
		}},
	}

	for _, kind := range kinds {
		for _, entry := range kind.entries {
			if err := s.db.Create(kind.build(entry)).Error; err != nil {
				report.skip(fmt.Sprintf("%s entry: %v", kind.name, err))
				continue
			}
			report.Journals++
		}
	}
}

func (s *StateController) importHistory(userID string, history map[string]int, report *importReport) {
	for date, count := range history {
		if !utils.ValidDate(date) {
			report.skip(fmt.Sprintf("history: bad date %q", date))
			continue
		}
		record := models.CompletionHistory{UserID: userID, RecordDate: date, CompletedCount: count}
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
			report.skip(fmt.Sprintf("history %s: %v", date, err))
			continue
		}
		report.History++
	}
}

func (s *StateController) importTemplates(userID string, templates []ImportCustomTemplate, report *importReport) {
	for _, t := range templates {
		tpl := models.CustomTemplate{
			UserID:          userID,
			Layer:           firstNonEmpty(t.Layer, "biology"),
			Name:            t.Name,
			Description:     t.Description,
			Science:         t.Science,
			TimeOfDay:       firstNonEmpty(t.TimeOfDay, "morning"),
			DurationMinutes: firstNonZero(t.DurationMinutes, 10),
			Difficulty:      firstNonEmpty(t.Difficulty, "easy"),
			TinyHabitAnchor: t.TinyHabitAnchor,
			WhatYouFeel:     t.WhatYouFeel,
			CommonMistakes:  t.CommonMistakes,
			CustomName:      t.CustomName,
		}
		if err := s.db.Create(&tpl).Error; err != nil {
			report.skip(fmt.Sprintf("template %s: %v", t.Name, err))
			continue
		}
		report.Templates++
	}
}

// upsertStreak overwrites only the fields present in the snapshot; an
// absent streak or maxStreak keeps the server-held value.
func (s *StateController) upsertStreak(userID string, streak, maxStreak *int, report *importReport) {
	var existing models.UserStreak
	err := s.db.First(&existing, "user_id = ?", userID).Error
	if err == nil {
		updates := map[string]interface{}{}
		if streak != nil {
			updates["current_streak"] = *streak
		}
		if maxStreak != nil {
			updates["max_streak"] = *maxStreak
		}
		if len(updates) == 0 {
			return
		}
		if err := s.db.Model(&models.UserStreak{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			report.skip(fmt.Sprintf("streak update: %v", err))
		}
		return
	}

	record := models.UserStreak{UserID: userID}
	if streak != nil {
		record.CurrentStreak = *streak
	}
	if maxStreak != nil {
		record.MaxStreak = *maxStreak
	}
	if err := s.db.Create(&record).Error; err != nil {
		report.skip(fmt.Sprintf("streak insert: %v", err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
