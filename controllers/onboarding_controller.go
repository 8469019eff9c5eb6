package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/habitflow/backend/models"
	"github.com/habitflow/backend/utils"
)

// OnboardingController stores the intake questionnaire and turns its
// outcome into the user's starting board.
type OnboardingController struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOnboardingController(db *gorm.DB) *OnboardingController {
	return &OnboardingController{db: db, now: time.Now}
}

// Get returns the user's onboarding record, or null when they have not
// started it.
func (o *OnboardingController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var record models.Onboarding
	err := o.db.First(&record, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Success(ctx, nil)
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load onboarding")
		return
	}
	utils.Success(ctx, record)
}

type onboardingRequest struct {
	MainPain          *string   `json:"mainPain"`
	DesiredOutcome    *string   `json:"desiredOutcome"`
	PriorityAreas     *[]string `json:"priorityAreas"`
	DailyMinutes      *int      `json:"dailyMinutes"`
	WakeTime          *string   `json:"wakeTime"`
	TrackerExperience *string   `json:"trackerExperience"`
}

// Save upserts the questionnaire answers. Fields absent from the payload
// keep their stored values, so the client can save step by step.
func (o *OnboardingController) Save(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req onboardingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid onboarding payload")
		return
	}

	var record models.Onboarding
	err := o.db.First(&record, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.Onboarding{UserID: userID}
		o.apply(&record, &req)
		if err := o.db.Create(&record).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to save onboarding")
			return
		}
		utils.Success(ctx, record)
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to save onboarding")
		return
	}

	o.apply(&record, &req)
	if err := o.db.Save(&record).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to save onboarding")
		return
	}
	utils.Success(ctx, record)
}

func (o *OnboardingController) apply(record *models.Onboarding, req *onboardingRequest) {
	if req.MainPain != nil {
		record.MainPain = utils.Sanitize(*req.MainPain)
	}
	if req.DesiredOutcome != nil {
		record.DesiredOutcome = utils.Sanitize(*req.DesiredOutcome)
	}
	if req.PriorityAreas != nil {
		record.PriorityAreas = *req.PriorityAreas
	}
	if req.DailyMinutes != nil {
		record.DailyMinutes = *req.DailyMinutes
	}
	if req.WakeTime != nil {
		record.WakeTime = *req.WakeTime
	}
	if req.TrackerExperience != nil {
		record.TrackerExperience = *req.TrackerExperience
	}
}

type completeOnboardingRequest struct {
	TemplateIDs []string `json:"templateIds"`
}

// Complete marks onboarding finished and seeds the board with the chosen
// templates in their presented order. Templates already on the board are
// skipped rather than duplicated.
func (o *OnboardingController) Complete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req completeOnboardingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40071, "invalid payload")
		return
	}

	var record models.Onboarding
	err := o.db.First(&record, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.Onboarding{UserID: userID, OnboardingCompleted: true}
		err = o.db.Create(&record).Error
	} else if err == nil && !record.OnboardingCompleted {
		err = o.db.Model(&record).Update("onboarding_completed", true).Error
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50072, "failed to complete onboarding")
		return
	}

	today := utils.FormatDate(o.now())
	added := 0
	for i, templateID := range req.TemplateIDs {
		if templateID == "" {
			continue
		}
		habit := models.Habit{
			UserID:       userID,
			TemplateID:   templateID,
			ColumnStatus: "todo",
			SortOrder:    i,
			DateAdded:    today,
		}
		result := o.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&habit)
		if result.Error != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50073, "failed to seed habits")
			return
		}
		added += int(result.RowsAffected)
	}

	utils.Success(ctx, gin.H{"completed": true, "habitsAdded": added})
}
