package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/habitflow/backend/models"
	"github.com/habitflow/backend/utils"
)

const adminTokenTTL = 24 * time.Hour

// AdminController serves the operator dashboard: aggregate metrics and
// per-user drill-down. Admin accounts are separate from app users.
type AdminController struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAdminController creates an AdminController.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db, now: time.Now}
}

// Login verifies admin credentials and issues a short-lived admin JWT.
func (a *AdminController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}

	var admin models.AdminUser
	if err := a.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&admin).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	if !utils.CheckPassword(admin.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateAdminToken(admin.ID, adminTokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "username": admin.Username})
}

// Dashboard returns aggregate counts. Counts drift slowly, so the
// assembled response is cached briefly to keep dashboard refreshes off
// the database.
func (a *AdminController) Dashboard(ctx *gin.Context) {
	const cacheKey = "cache:admin:dashboard"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	today := utils.FormatDate(a.now())
	weekAgo := utils.FormatDate(a.now().AddDate(0, 0, -7))

	count := func(query *gorm.DB) int64 {
		var n int64
		if err := query.Count(&n).Error; err != nil {
			n = 0
		}
		return n
	}

	totalUsers := count(a.db.Model(&models.User{}))
	anonymousUsers := count(a.db.Model(&models.User{}).Where("auth_method = ?", models.AuthMethodAnonymous))
	newToday := count(a.db.Model(&models.User{}).Where("created_at >= ?", today))
	newWeek := count(a.db.Model(&models.User{}).Where("created_at >= ?", weekAgo))
	activeToday := count(a.db.Model(&models.User{}).Where("last_active >= ?", today))
	activeWeek := count(a.db.Model(&models.User{}).Where("last_active >= ?", weekAgo))
	totalHabits := count(a.db.Model(&models.Habit{}))
	completionsToday := count(a.db.Model(&models.Completion{}).Where("completed_date = ?", today))
	totalCompletions := count(a.db.Model(&models.Completion{}))
	onboarded := count(a.db.Model(&models.Onboarding{}).Where("onboarding_completed = ?", true))

	journalEntries := count(a.db.Model(&models.LuckEntry{})) +
		count(a.db.Model(&models.GratitudeEntry{})) +
		count(a.db.Model(&models.DecisionEntry{})) +
		count(a.db.Model(&models.WoopEntry{})) +
		count(a.db.Model(&models.ProphecyEntry{})) +
		count(a.db.Model(&models.BeliefEntry{}))

	var totalMinutes int64
	_ = a.db.Model(&models.Habit{}).
		Select("COALESCE(SUM(total_minutes_spent), 0)").
		Scan(&totalMinutes).Error

	type templateCount struct {
		TemplateID string `json:"templateId" gorm:"column:template_id"`
		Count      int64  `json:"count"`
	}
	var topTemplates []templateCount
	_ = a.db.Model(&models.Habit{}).
		Select("template_id, COUNT(*) AS count").
		Group("template_id").
		Order("count DESC").
		Limit(10).
		Scan(&topTemplates).Error

	type dayCount struct {
		Day   string `json:"day"`
		Count int64  `json:"count"`
	}
	monthAgo := utils.FormatDate(a.now().AddDate(0, 0, -30))
	var registrations []dayCount
	_ = a.db.Model(&models.User{}).
		Select("DATE(created_at) AS day, COUNT(*) AS count").
		Where("created_at >= ?", monthAgo).
		Group("day").
		Order("day ASC").
		Scan(&registrations).Error

	payload := gin.H{
		"totalUsers":         totalUsers,
		"anonymousUsers":     anonymousUsers,
		"newUsersToday":      newToday,
		"newUsersThisWeek":   newWeek,
		"activeToday":        activeToday,
		"activeThisWeek":     activeWeek,
		"totalHabits":        totalHabits,
		"completionsToday":   completionsToday,
		"totalCompletions":   totalCompletions,
		"onboardedUsers":     onboarded,
		"journalEntries":     journalEntries,
		"totalMinutesSpent":  totalMinutes,
		"topTemplates":       topTemplates,
		"registrationsByDay": registrations,
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Minute)
	utils.Success(ctx, payload)
}

// Users returns a paginated user listing enriched with per-user counts.
func (a *AdminController) Users(ctx *gin.Context) {
	page, pageSize := 1, 20
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(ctx.Query("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}

	var total int64
	if err := a.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to count users")
		return
	}

	var users []models.User
	if err := a.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to list users")
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, u := range users {
		var habitCount, completionCount int64
		_ = a.db.Model(&models.Habit{}).Where("user_id = ?", u.ID).Count(&habitCount).Error
		_ = a.db.Model(&models.Completion{}).Where("user_id = ?", u.ID).Count(&completionCount).Error

		var minutes int64
		_ = a.db.Model(&models.Habit{}).Where("user_id = ?", u.ID).
			Select("COALESCE(SUM(total_minutes_spent), 0)").
			Scan(&minutes).Error

		var streak models.UserStreak
		currentStreak := 0
		if err := a.db.First(&streak, "user_id = ?", u.ID).Error; err == nil {
			currentStreak = streak.CurrentStreak
		}

		items = append(items, gin.H{
			"user":         u,
			"habitCount":   habitCount,
			"completions":  completionCount,
			"minutesSpent": minutes,
			"streak":       currentStreak,
		})
	}

	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// UserDetail returns one user with board, journal counts and completion
// history for the drill-down view.
func (a *AdminController) UserDetail(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		utils.Error(ctx, http.StatusBadRequest, 40081, "missing user id")
		return
	}

	var user models.User
	if err := a.db.First(&user, "id = ?", id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	habits, err := loadHabitsWithRelations(a.db, user.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to load user detail")
		return
	}

	count := func(model interface{}) int64 {
		var n int64
		if err := a.db.Model(model).Where("user_id = ?", user.ID).Count(&n).Error; err != nil {
			n = 0
		}
		return n
	}
	journals := gin.H{
		models.JournalLuck:      count(&models.LuckEntry{}),
		models.JournalGratitude: count(&models.GratitudeEntry{}),
		models.JournalDecisions: count(&models.DecisionEntry{}),
		models.JournalWoop:      count(&models.WoopEntry{}),
		models.JournalProphecy:  count(&models.ProphecyEntry{}),
		models.JournalBeliefs:   count(&models.BeliefEntry{}),
	}

	var history []models.CompletionHistory
	if err := a.db.Where("user_id = ?", user.ID).
		Order("record_date DESC").Limit(90).
		Find(&history).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to load user detail")
		return
	}

	var streak models.UserStreak
	_ = a.db.First(&streak, "user_id = ?", user.ID).Error

	var onboarding *models.Onboarding
	var record models.Onboarding
	if err := a.db.First(&record, "user_id = ?", user.ID).Error; err == nil {
		onboarding = &record
	}

	utils.Success(ctx, gin.H{
		"user":       user,
		"habits":     habits,
		"journals":   journals,
		"history":    history,
		"streak":     streak.CurrentStreak,
		"maxStreak":  streak.MaxStreak,
		"onboarding": onboarding,
	})
}
