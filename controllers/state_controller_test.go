package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitflow/backend/models"
)

func seedHabit(t *testing.T, s *StateController, userID, templateID, column string) *models.Habit {
	t.Helper()
	habit := &models.Habit{
		UserID:       userID,
		TemplateID:   templateID,
		ColumnStatus: column,
		DateAdded:    "2026-03-01",
	}
	require.NoError(t, s.db.Create(habit).Error)
	return habit
}

func seedCompletion(t *testing.T, s *StateController, userID, habitID, date string) {
	t.Helper()
	require.NoError(t, s.db.Create(&models.Completion{
		HabitID:       habitID,
		UserID:        userID,
		CompletedDate: date,
	}).Error)
}

type dayResetResult struct {
	Message   string `json:"message"`
	Streak    int    `json:"streak"`
	MaxStreak int    `json:"maxStreak"`
}

func runDayReset(t *testing.T, s *StateController, userID string) dayResetResult {
	t.Helper()
	ctx, w := authedRequest(t, userID, http.MethodPost, "/api/v1/state/day-reset", nil)
	s.DayReset(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res dayResetResult
	decodeData(t, w, &res)
	return res
}

func TestDayResetAdvancesStreakAtHalfThreshold(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	// 1 of 2 completed yesterday: exactly the threshold.
	h1 := seedHabit(t, s, user.ID, "meditation", "done")
	seedHabit(t, s, user.ID, "reading", "todo")
	seedCompletion(t, s, user.ID, h1.ID, "2026-03-14")

	res := runDayReset(t, s, user.ID)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, 1, res.MaxStreak)
}

func TestDayResetBreaksStreakBelowHalf(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	require.NoError(t, db.Create(&models.UserStreak{
		UserID: user.ID, CurrentStreak: 4, MaxStreak: 6, LastComputed: "2026-03-14",
	}).Error)

	// 1 of 3 completed: below threshold, streak resets but max survives.
	h1 := seedHabit(t, s, user.ID, "meditation", "done")
	seedHabit(t, s, user.ID, "reading", "todo")
	seedHabit(t, s, user.ID, "exercise", "todo")
	seedCompletion(t, s, user.ID, h1.ID, "2026-03-14")

	res := runDayReset(t, s, user.ID)
	assert.Equal(t, 0, res.Streak)
	assert.Equal(t, 6, res.MaxStreak)
}

func TestDayResetZeroHabitsNeverAdvances(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	res := runDayReset(t, s, user.ID)
	assert.Equal(t, 0, res.Streak)
	assert.Equal(t, 0, res.MaxStreak)

	// No board means no history row either.
	var count int64
	require.NoError(t, db.Model(&models.CompletionHistory{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDayResetIdempotentWithinOneDay(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	h1 := seedHabit(t, s, user.ID, "meditation", "done")
	seedCompletion(t, s, user.ID, h1.ID, "2026-03-14")

	first := runDayReset(t, s, user.ID)
	assert.Equal(t, 1, first.Streak)

	second := runDayReset(t, s, user.ID)
	assert.Equal(t, "already reset", second.Message)
	assert.Equal(t, 1, second.Streak)

	var count int64
	require.NoError(t, db.Model(&models.CompletionHistory{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDayResetClearsBoard(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	habit := seedHabit(t, s, user.ID, "meditation", "done")
	require.NoError(t, db.Model(habit).Update("sort_order", 3).Error)
	seedCompletion(t, s, user.ID, habit.ID, "2026-03-14")

	runDayReset(t, s, user.ID)

	var reloaded models.Habit
	require.NoError(t, db.First(&reloaded, "id = ?", habit.ID).Error)
	assert.Equal(t, "todo", reloaded.ColumnStatus)
	assert.Equal(t, 0, reloaded.SortOrder)
	// Completions are history, not board state; the reset keeps them.
	var completions int64
	require.NoError(t, db.Model(&models.Completion{}).Where("habit_id = ?", habit.ID).Count(&completions).Error)
	assert.EqualValues(t, 1, completions)
}

func TestDayResetHistoryIsImmutable(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)

	habit := seedHabit(t, s, user.ID, "meditation", "done")
	seedCompletion(t, s, user.ID, habit.ID, "2026-03-14")

	s.now = clockAt(t, "2026-03-15")
	runDayReset(t, s, user.ID)

	// A stale client writes another completion for the already-recorded
	// day; the next reset must not rewrite that day's row.
	seedCompletion(t, s, user.ID, habit.ID, "2026-03-14")

	s.now = clockAt(t, "2026-03-16")
	runDayReset(t, s, user.ID)

	var day14 models.CompletionHistory
	require.NoError(t, db.First(&day14, "user_id = ? AND record_date = ?", user.ID, "2026-03-14").Error)
	assert.Equal(t, 1, day14.CompletedCount)

	var day15 models.CompletionHistory
	require.NoError(t, db.First(&day15, "user_id = ? AND record_date = ?", user.ID, "2026-03-15").Error)
	assert.Equal(t, 0, day15.CompletedCount)
}

func TestDayResetStreakAccumulatesAcrossDays(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)

	habit := seedHabit(t, s, user.ID, "meditation", "todo")

	days := []struct {
		completed string
		resetOn   string
	}{
		{"2026-03-14", "2026-03-15"},
		{"2026-03-15", "2026-03-16"},
		{"2026-03-16", "2026-03-17"},
	}
	for i, d := range days {
		seedCompletion(t, s, user.ID, habit.ID, d.completed)
		s.now = clockAt(t, d.resetOn)
		res := runDayReset(t, s, user.ID)
		assert.Equal(t, i+1, res.Streak)
		assert.Equal(t, i+1, res.MaxStreak)
	}
}

func TestGetStateAssemblesSnapshot(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	habit := seedHabit(t, s, user.ID, "meditation", "done")
	seedCompletion(t, s, user.ID, habit.ID, "2026-03-14")
	require.NoError(t, db.Create(&models.LogEntry{
		HabitID: habit.ID, UserID: user.ID, EntryDate: "2026-03-14", Text: "calm morning",
	}).Error)
	require.NoError(t, db.Create(&models.ChecklistItem{
		HabitID: habit.ID, Text: "prepare cushion", Done: true,
	}).Error)
	require.NoError(t, db.Create(&models.UserStreak{
		UserID: user.ID, CurrentStreak: 2, MaxStreak: 5,
	}).Error)
	require.NoError(t, db.Create(&models.CompletionHistory{
		UserID: user.ID, RecordDate: "2026-03-14", CompletedCount: 1,
	}).Error)
	require.NoError(t, db.Create(&models.GratitudeEntry{
		UserID: user.ID, EntryDate: "2026-03-14", Item1: "sunlight",
	}).Error)

	ctx, w := authedRequest(t, user.ID, http.MethodGet, "/api/v1/state", nil)
	s.GetState(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var snap Snapshot
	decodeData(t, w, &snap)

	require.Len(t, snap.Habits, 1)
	assert.Equal(t, "meditation", snap.Habits[0].TemplateID)
	assert.Equal(t, []string{"2026-03-14"}, snap.Habits[0].CompletionDates)
	require.Len(t, snap.Habits[0].LogEntries, 1)
	assert.Equal(t, "calm morning", snap.Habits[0].LogEntries[0].Text)
	require.Len(t, snap.Habits[0].Checklist, 1)
	assert.True(t, snap.Habits[0].Checklist[0].Done)

	assert.Equal(t, 2, snap.Streak)
	assert.Equal(t, 5, snap.MaxStreak)
	assert.Equal(t, map[string]int{"2026-03-14": 1}, snap.CompletionHistory)
	require.Len(t, snap.GratitudeEntries, 1)
	assert.Equal(t, "sunlight", snap.GratitudeEntries[0].Item1)
	assert.Equal(t, "2026-03-15", snap.CurrentDate)
	assert.Nil(t, snap.Onboarding)
}

func TestGetStateEmptyUser(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	s := NewStateController(db)
	s.now = clockAt(t, "2026-03-15")

	ctx, w := authedRequest(t, user.ID, http.MethodGet, "/api/v1/state", nil)
	s.GetState(ctx)
	require.Equal(t, http.StatusOK, w.Code)

	var snap Snapshot
	decodeData(t, w, &snap)
	assert.NotNil(t, snap.Habits)
	assert.Empty(t, snap.Habits)
	assert.Zero(t, snap.Streak)
	assert.Empty(t, snap.CompletionHistory)
}
