package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/habitflow/backend/models"
	"github.com/habitflow/backend/utils"
)

// HabitController serves the kanban board: the habits a user has adopted,
// their column placement, completions, time logs and checklists.
type HabitController struct {
	db  *gorm.DB
	now func() time.Time
}

func NewHabitController(db *gorm.DB) *HabitController {
	return &HabitController{db: db, now: time.Now}
}

// List returns the user's habits with completions, logs and checklist
// items attached, ordered by sort position.
func (h *HabitController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habits, err := loadHabitsWithRelations(h.db, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load habits")
		return
	}
	utils.Success(ctx, habits)
}

type addHabitRequest struct {
	TemplateID            string `json:"templateId"`
	ColumnStatus          string `json:"columnStatus"`
	SortOrder             int    `json:"sortOrder"`
	CoverImageURL         string `json:"coverImageUrl"`
	CustomDurationMinutes *int   `json:"customDurationMinutes"`
}

// Add puts a template on the user's board. Each template can be adopted
// at most once per user.
func (h *HabitController) Add(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req addHabitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.TemplateID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40050, "templateId is required")
		return
	}

	var count int64
	if err := h.db.Model(&models.Habit{}).
		Where("user_id = ? AND template_id = ?", userID, req.TemplateID).
		Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to check habit")
		return
	}
	if count > 0 {
		utils.Error(ctx, http.StatusConflict, 40901, "habit already on board")
		return
	}

	habit := models.Habit{
		UserID:                userID,
		TemplateID:            req.TemplateID,
		ColumnStatus:          firstNonEmpty(req.ColumnStatus, "todo"),
		SortOrder:             req.SortOrder,
		DateAdded:             utils.FormatDate(h.now()),
		CoverImageURL:         req.CoverImageURL,
		CustomDurationMinutes: req.CustomDurationMinutes,
	}
	if err := h.db.Create(&habit).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to add habit")
		return
	}
	utils.Created(ctx, habit)
}

type reorderRequest struct {
	Habits []struct {
		ID           string `json:"id"`
		ColumnStatus string `json:"columnStatus"`
		SortOrder    int    `json:"sortOrder"`
	} `json:"habits"`
}

// Reorder applies a batch of column/position moves in one call, the way
// the board persists a drag-and-drop. Entries for habits the user does
// not own are ignored by the ownership filter.
func (h *HabitController) Reorder(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req reorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid reorder payload")
		return
	}

	for _, move := range req.Habits {
		updates := map[string]interface{}{"sort_order": move.SortOrder}
		if move.ColumnStatus != "" {
			updates["column_status"] = move.ColumnStatus
		}
		if err := h.db.Model(&models.Habit{}).
			Where("id = ? AND user_id = ?", move.ID, userID).
			Updates(updates).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to reorder habits")
			return
		}
	}
	utils.Success(ctx, gin.H{"success": true})
}

type updateHabitRequest struct {
	ColumnStatus          *string `json:"columnStatus"`
	SortOrder             *int    `json:"sortOrder"`
	CoverImageURL         *string `json:"coverImageUrl"`
	CustomDurationMinutes *int    `json:"customDurationMinutes"`
	ProphecyText          *string `json:"prophecyText"`
	TotalMinutesSpent     *int    `json:"totalMinutesSpent"`
}

// Update patches the mutable fields of one habit. Absent fields are left
// untouched.
func (h *HabitController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habit, ok := h.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40052, "invalid habit payload")
		return
	}

	updates := map[string]interface{}{}
	if req.ColumnStatus != nil {
		updates["column_status"] = *req.ColumnStatus
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.CoverImageURL != nil {
		updates["cover_image_url"] = *req.CoverImageURL
	}
	if req.CustomDurationMinutes != nil {
		updates["custom_duration_minutes"] = *req.CustomDurationMinutes
	}
	if req.ProphecyText != nil {
		updates["prophecy_text"] = utils.Sanitize(*req.ProphecyText)
	}
	if req.TotalMinutesSpent != nil {
		updates["total_minutes_spent"] = *req.TotalMinutesSpent
	}
	if len(updates) == 0 {
		utils.Success(ctx, habit)
		return
	}

	if err := h.db.Model(&habit).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to update habit")
		return
	}
	utils.Success(ctx, habit)
}

// Delete removes a habit and everything hanging off it.
func (h *HabitController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habit, ok := h.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	steps := []func() error{
		func() error { return h.db.Where("habit_id = ?", habit.ID).Delete(&models.Completion{}).Error },
		func() error { return h.db.Where("habit_id = ?", habit.ID).Delete(&models.LogEntry{}).Error },
		func() error { return h.db.Where("habit_id = ?", habit.ID).Delete(&models.ChecklistItem{}).Error },
		func() error { return h.db.Delete(&habit).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50055, "failed to delete habit")
			return
		}
	}
	utils.Success(ctx, gin.H{"success": true})
}

type completeRequest struct {
	Date string `json:"date"`
}

// Complete marks a habit done for a calendar day. Repeating the call for
// the same day is a no-op.
func (h *HabitController) Complete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habit, ok := h.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	// An empty body means "today".
	var req completeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(ctx, http.StatusBadRequest, 40053, "invalid payload")
		return
	}
	date := req.Date
	if date == "" {
		date = utils.FormatDate(h.now())
	}
	if !utils.ValidDate(date) {
		utils.Error(ctx, http.StatusBadRequest, 40054, "invalid date")
		return
	}

	completion := models.Completion{HabitID: habit.ID, UserID: userID, CompletedDate: date}
	if err := h.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50056, "failed to record completion")
		return
	}
	utils.Success(ctx, gin.H{"habitId": habit.ID, "date": date})
}

type addLogRequest struct {
	Date            string `json:"date"`
	Text            string `json:"text"`
	DurationMinutes *int   `json:"durationMinutes"`
}

// AddLog appends a free-text log entry to a habit. Logged minutes roll up
// into the habit's total.
func (h *HabitController) AddLog(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habit, ok := h.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	var req addLogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40055, "invalid log payload")
		return
	}

	entry := models.LogEntry{
		HabitID:         habit.ID,
		UserID:          userID,
		EntryDate:       firstNonEmpty(req.Date, utils.FormatDate(h.now())),
		Text:            utils.Sanitize(req.Text),
		DurationMinutes: req.DurationMinutes,
	}
	if err := h.db.Create(&entry).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50057, "failed to add log entry")
		return
	}

	if req.DurationMinutes != nil && *req.DurationMinutes > 0 {
		if err := h.db.Model(&habit).
			Update("total_minutes_spent", gorm.Expr("total_minutes_spent + ?", *req.DurationMinutes)).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50057, "failed to add log entry")
			return
		}
	}
	utils.Created(ctx, entry)
}

type addTimeRequest struct {
	Minutes int `json:"minutes"`
}

// AddTime adds raw minutes to a habit's running total without a log entry.
func (h *HabitController) AddTime(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habit, ok := h.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	var req addTimeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Minutes <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40056, "minutes must be positive")
		return
	}

	if err := h.db.Model(&habit).
		Update("total_minutes_spent", gorm.Expr("total_minutes_spent + ?", req.Minutes)).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50058, "failed to add time")
		return
	}

	var updated models.Habit
	if err := h.db.First(&updated, "id = ?", habit.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50058, "failed to add time")
		return
	}
	utils.Success(ctx, gin.H{"totalMinutesSpent": updated.TotalMinutesSpent})
}

type updateChecklistRequest struct {
	Items []struct {
		Text string `json:"text"`
		Done bool   `json:"done"`
	} `json:"items"`
}

// UpdateChecklist replaces a habit's checklist wholesale with the posted
// items, preserving their order.
func (h *HabitController) UpdateChecklist(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habit, ok := h.ownedHabit(ctx, userID)
	if !ok {
		return
	}

	var req updateChecklistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40057, "invalid checklist payload")
		return
	}

	if err := h.db.Where("habit_id = ?", habit.ID).Delete(&models.ChecklistItem{}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50059, "failed to update checklist")
		return
	}

	items := make([]models.ChecklistItem, 0, len(req.Items))
	for i, item := range req.Items {
		items = append(items, models.ChecklistItem{
			HabitID:   habit.ID,
			Text:      utils.Sanitize(item.Text),
			Done:      item.Done,
			SortOrder: i,
		})
	}
	if len(items) > 0 {
		if err := h.db.Create(&items).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50059, "failed to update checklist")
			return
		}
	}
	utils.Success(ctx, items)
}

// ownedHabit loads the path habit and enforces ownership. A habit that
// exists but belongs to someone else reads as not found.
func (h *HabitController) ownedHabit(ctx *gin.Context, userID string) (models.Habit, bool) {
	var habit models.Habit
	err := h.db.First(&habit, "id = ? AND user_id = ?", ctx.Param("id"), userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40450, "habit not found")
		return models.Habit{}, false
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load habit")
		return models.Habit{}, false
	}
	return habit, true
}
