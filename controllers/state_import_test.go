package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitflow/backend/models"
)

func runImport(t *testing.T, s *StateController, userID string, snapshot interface{}) {
	t.Helper()
	ctx, w := authedRequest(t, userID, http.MethodPost, "/api/v1/state/import", snapshot)
	s.ImportState(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func fetchSnapshot(t *testing.T, s *StateController, userID string) Snapshot {
	t.Helper()
	ctx, w := authedRequest(t, userID, http.MethodGet, "/api/v1/state", nil)
	s.GetState(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var snap Snapshot
	decodeData(t, w, &snap)
	return snap
}

func TestImportReplacesExistingState(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	// Pre-existing server state that must be gone after the import.
	old := seedHabit(t, s, user.ID, "old-habit", "done")
	seedCompletion(t, s, user.ID, old.ID, "2026-03-10")
	require.NoError(t, db.Create(&models.LuckEntry{
		UserID: user.ID, EntryDate: "2026-03-10", Event1: "old event",
	}).Error)

	runImport(t, s, user.ID, ImportSnapshot{
		Habits: []ImportHabit{{
			TemplateID:      "meditation",
			Column:          "inprogress",
			Order:           2,
			CompletionDates: []string{"2026-03-13", "2026-03-14"},
			LogEntries:      []ImportLogEntry{{Date: "2026-03-14", Text: "focused", DurationMinutes: intPtr(15)}},
			Checklist:       []ImportChecklistItem{{Text: "open window", Done: true}},
		}},
		LuckEntries:       []ImportJournalEntry{{Date: "2026-03-14", Event1: "found a coin"}},
		CompletionHistory: map[string]int{"2026-03-13": 1},
		Streak:            intPtr(3),
		MaxStreak:         intPtr(7),
	})

	snap := fetchSnapshot(t, s, user.ID)
	require.Len(t, snap.Habits, 1)
	assert.Equal(t, "meditation", snap.Habits[0].TemplateID)
	assert.Equal(t, "inprogress", snap.Habits[0].ColumnStatus)
	assert.Equal(t, 2, snap.Habits[0].SortOrder)
	assert.Equal(t, []string{"2026-03-14", "2026-03-13"}, snap.Habits[0].CompletionDates)
	require.Len(t, snap.Habits[0].LogEntries, 1)
	assert.Equal(t, "focused", snap.Habits[0].LogEntries[0].Text)
	require.Len(t, snap.Habits[0].Checklist, 1)

	require.Len(t, snap.LuckEntries, 1)
	assert.Equal(t, "found a coin", snap.LuckEntries[0].Event1)
	assert.Equal(t, map[string]int{"2026-03-13": 1}, snap.CompletionHistory)
	assert.Equal(t, 3, snap.Streak)
	assert.Equal(t, 7, snap.MaxStreak)
}

func TestImportToleratesMalformedItems(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	runImport(t, s, user.ID, ImportSnapshot{
		Habits: []ImportHabit{
			{TemplateID: "meditation"},
			{TemplateID: ""}, // malformed; skipped, not fatal
			{TemplateID: "reading", CompletionDates: []string{"not-a-date", "2026-03-14"}},
		},
		CompletionHistory: map[string]int{"2026-03-14": 2, "garbage": 1},
	})

	snap := fetchSnapshot(t, s, user.ID)
	assert.Len(t, snap.Habits, 2)
	assert.Equal(t, map[string]int{"2026-03-14": 2}, snap.CompletionHistory)

	var reading models.Habit
	require.NoError(t, db.First(&reading, "user_id = ? AND template_id = ?", user.ID, "reading").Error)
	var dates []string
	require.NoError(t, db.Model(&models.Completion{}).Where("habit_id = ?", reading.ID).Pluck("completed_date", &dates).Error)
	assert.Equal(t, []string{"2026-03-14"}, dates)
}

func TestImportAppliesDefaults(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	runImport(t, s, user.ID, ImportSnapshot{
		Habits:        []ImportHabit{{TemplateID: "meditation"}},
		BeliefEntries: []ImportJournalEntry{{Belief: "I can focus"}},
		CustomTemplates: []ImportCustomTemplate{{
			Name: "cold shower",
		}},
	})

	var habit models.Habit
	require.NoError(t, db.First(&habit, "user_id = ?", user.ID).Error)
	assert.Equal(t, "todo", habit.ColumnStatus)
	assert.Equal(t, "2026-03-15", habit.DateAdded)

	var belief models.BeliefEntry
	require.NoError(t, db.First(&belief, "user_id = ?", user.ID).Error)
	assert.Equal(t, "2026-03-15", belief.EntryDate)
	assert.Equal(t, "empowering", belief.BeliefType)

	var tpl models.CustomTemplate
	require.NoError(t, db.First(&tpl, "user_id = ?", user.ID).Error)
	assert.Equal(t, "biology", tpl.Layer)
	assert.Equal(t, "morning", tpl.TimeOfDay)
	assert.Equal(t, 10, tpl.DurationMinutes)
	assert.Equal(t, "easy", tpl.Difficulty)
}

func TestImportPreservesStreakWhenAbsent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	require.NoError(t, db.Create(&models.UserStreak{
		UserID: user.ID, CurrentStreak: 5, MaxStreak: 9,
	}).Error)

	// Snapshot carries only maxStreak; currentStreak must survive.
	runImport(t, s, user.ID, ImportSnapshot{MaxStreak: intPtr(11)})

	var streak models.UserStreak
	require.NoError(t, db.First(&streak, "user_id = ?", user.ID).Error)
	assert.Equal(t, 5, streak.CurrentStreak)
	assert.Equal(t, 11, streak.MaxStreak)
}

func TestImportDoesNotTouchOtherUsers(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	other := &models.User{Email: "other@example.com", DisplayName: "Other", AuthMethod: models.AuthMethodEmail}
	require.NoError(t, db.Create(other).Error)

	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	seedHabit(t, s, other.ID, "their-habit", "todo")

	runImport(t, s, user.ID, ImportSnapshot{
		Habits: []ImportHabit{{TemplateID: "my-habit"}},
	})

	var theirCount int64
	require.NoError(t, db.Model(&models.Habit{}).Where("user_id = ?", other.ID).Count(&theirCount).Error)
	assert.EqualValues(t, 1, theirCount)
}

func TestExportImportRoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	habit := seedHabit(t, s, user.ID, "meditation", "inprogress")
	seedCompletion(t, s, user.ID, habit.ID, "2026-03-14")
	require.NoError(t, db.Create(&models.LogEntry{
		HabitID: habit.ID, UserID: user.ID, EntryDate: "2026-03-14", Text: "deep focus", DurationMinutes: intPtr(20),
	}).Error)
	require.NoError(t, db.Create(&models.ChecklistItem{
		HabitID: habit.ID, Text: "silence phone", Done: true,
	}).Error)
	require.NoError(t, db.Create(&models.WoopEntry{
		UserID: user.ID, EntryDate: "2026-03-14", Wish: "run a 10k", Outcome: "fitness", Obstacle: "laziness", Plan: "shoes by the door",
	}).Error)
	require.NoError(t, db.Create(&models.CompletionHistory{
		UserID: user.ID, RecordDate: "2026-03-14", CompletedCount: 1,
	}).Error)
	require.NoError(t, db.Create(&models.UserStreak{
		UserID: user.ID, CurrentStreak: 2, MaxStreak: 4,
	}).Error)
	require.NoError(t, db.Create(&models.CustomTemplate{
		UserID: user.ID, Layer: "psychology", Name: "evening review", TimeOfDay: "evening", DurationMinutes: 5, Difficulty: "easy",
	}).Error)

	before := fetchSnapshot(t, s, user.ID)

	// Feed the export straight back: the snapshot shape doubles as the
	// import payload shape.
	payload, err := json.Marshal(before)
	require.NoError(t, err)
	ctx, w := rawAuthedRequest(t, user.ID, http.MethodPost, "/api/v1/state/import", payload)
	s.ImportState(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	after := fetchSnapshot(t, s, user.ID)

	require.Len(t, after.Habits, 1)
	assert.Equal(t, before.Habits[0].TemplateID, after.Habits[0].TemplateID)
	assert.Equal(t, before.Habits[0].ColumnStatus, after.Habits[0].ColumnStatus)
	assert.Equal(t, before.Habits[0].CompletionDates, after.Habits[0].CompletionDates)
	require.Len(t, after.Habits[0].LogEntries, 1)
	assert.Equal(t, before.Habits[0].LogEntries[0].Text, after.Habits[0].LogEntries[0].Text)
	assert.Equal(t, before.Habits[0].LogEntries[0].DurationMinutes, after.Habits[0].LogEntries[0].DurationMinutes)
	require.Len(t, after.Habits[0].Checklist, 1)
	assert.Equal(t, before.Habits[0].Checklist[0].Text, after.Habits[0].Checklist[0].Text)

	require.Len(t, after.WoopEntries, 1)
	assert.Equal(t, before.WoopEntries[0].Wish, after.WoopEntries[0].Wish)
	assert.Equal(t, before.CompletionHistory, after.CompletionHistory)
	assert.Equal(t, before.Streak, after.Streak)
	assert.Equal(t, before.MaxStreak, after.MaxStreak)
	require.Len(t, after.CustomTemplates, 1)
	assert.Equal(t, before.CustomTemplates[0].Name, after.CustomTemplates[0].Name)
}
