package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/habitflow/backend/models"
	"github.com/habitflow/backend/utils"
)

// JournalController serves the six journal kinds through one pair of
// endpoints keyed by a type segment in the path.
type JournalController struct {
	db  *gorm.DB
	now func() time.Time
}

func NewJournalController(db *gorm.DB) *JournalController {
	return &JournalController{db: db, now: time.Now}
}

// List returns all entries of one kind for the user, newest first.
func (j *JournalController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	kind := ctx.Param("type")
	query := j.db.Where("user_id = ?", userID).Order("entry_date DESC, created_at DESC")

	var err error
	var result interface{}
	switch kind {
	case models.JournalLuck:
		entries := []models.LuckEntry{}
		err = query.Find(&entries).Error
		result = entries
	case models.JournalGratitude:
		entries := []models.GratitudeEntry{}
		err = query.Find(&entries).Error
		result = entries
	case models.JournalDecisions:
		entries := []models.DecisionEntry{}
		err = query.Find(&entries).Error
		result = entries
	case models.JournalWoop:
		entries := []models.WoopEntry{}
		err = query.Find(&entries).Error
		result = entries
	case models.JournalProphecy:
		entries := []models.ProphecyEntry{}
		err = query.Find(&entries).Error
		result = entries
	case models.JournalBeliefs:
		entries := []models.BeliefEntry{}
		err = query.Find(&entries).Error
		result = entries
	default:
		utils.Error(ctx, http.StatusBadRequest, 40060, "unknown journal type")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to load journal entries")
		return
	}
	utils.Success(ctx, result)
}

type journalEntryRequest struct {
	Date string `json:"date"`

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

// Create appends an entry of one kind. Entries are append-only; there is
// no update or delete. Each kind requires its headline field.
func (j *JournalController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req journalEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid journal payload")
		return
	}

	date := req.Date
	if date == "" {
		date = utils.FormatDate(j.now())
	}
	if !utils.ValidDate(date) {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid date")
		return
	}

	var record interface{}
	switch ctx.Param("type") {
	case models.JournalLuck:
		if req.Event1 == "" {
			utils.Error(ctx, http.StatusBadRequest, 40063, "event1 is required")
			return
		}
		record = &models.LuckEntry{
			UserID: userID, EntryDate: date,
			Event1: utils.Sanitize(req.Event1),
			Event2: utils.Sanitize(req.Event2),
			Event3: utils.Sanitize(req.Event3),
		}
	case models.JournalGratitude:
		if req.Item1 == "" {
			utils.Error(ctx, http.StatusBadRequest, 40063, "item1 is required")
			return
		}
		record = &models.GratitudeEntry{
			UserID: userID, EntryDate: date,
			Item1: utils.Sanitize(req.Item1),
			Item2: utils.Sanitize(req.Item2),
			Item3: utils.Sanitize(req.Item3),
		}
	case models.JournalDecisions:
		if req.Decision == "" {
			utils.Error(ctx, http.StatusBadRequest, 40063, "decision is required")
			return
		}
		record = &models.DecisionEntry{
			UserID: userID, EntryDate: date,
			Decision:       utils.Sanitize(req.Decision),
			Logic:          utils.Sanitize(req.Logic),
			Expectation:    utils.Sanitize(req.Expectation),
			EmotionalState: utils.Sanitize(req.EmotionalState),
		}
	case models.JournalWoop:
		if req.Wish == "" {
			utils.Error(ctx, http.StatusBadRequest, 40063, "wish is required")
			return
		}
		record = &models.WoopEntry{
			UserID: userID, EntryDate: date,
			Wish:     utils.Sanitize(req.Wish),
			Outcome:  utils.Sanitize(req.Outcome),
			Obstacle: utils.Sanitize(req.Obstacle),
			Plan:     utils.Sanitize(req.Plan),
		}
	case models.JournalProphecy:
		if req.Prophecy == "" {
			utils.Error(ctx, http.StatusBadRequest, 40063, "prophecy is required")
			return
		}
		record = &models.ProphecyEntry{
			UserID: userID, EntryDate: date,
			Prophecy:  utils.Sanitize(req.Prophecy),
			Reasoning: utils.Sanitize(req.Reasoning),
			Steps:     utils.Sanitize(req.Steps),
		}
	case models.JournalBeliefs:
		if req.Belief == "" {
			utils.Error(ctx, http.StatusBadRequest, 40063, "belief is required")
			return
		}
		record = &models.BeliefEntry{
			UserID: userID, EntryDate: date,
			Belief:     utils.Sanitize(req.Belief),
			Origin:     utils.Sanitize(req.Origin),
			Impact:     utils.Sanitize(req.Impact),
			BeliefType: firstNonEmpty(req.BeliefType, "empowering"),
		}
	default:
		utils.Error(ctx, http.StatusBadRequest, 40060, "unknown journal type")
		return
	}

	if err := j.db.Create(record).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to save journal entry")
		return
	}
	utils.Created(ctx, record)
}
