package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/habitflow/backend/config"
	"github.com/habitflow/backend/middleware"
	"github.com/habitflow/backend/models"
	"github.com/habitflow/backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.SetForTesting(config.AppConfig{
		JWTSecret:          "testing-secret",
		RateLimitPerMinute: 1000,
	})
	utils.ResetLocationForTesting()
}

// newTestDB opens a throwaway in-memory database with all tables migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Onboarding{},
		&models.AdminUser{},
		&models.Habit{},
		&models.Completion{},
		&models.LogEntry{},
		&models.ChecklistItem{},
		&models.CustomTemplate{},
		&models.CompletionHistory{},
		&models.UserStreak{},
		&models.LuckEntry{},
		&models.GratitudeEntry{},
		&models.DecisionEntry{},
		&models.WoopEntry{},
		&models.ProphecyEntry{},
		&models.BeliefEntry{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Email:       "test@example.com",
		DisplayName: "Test User",
		AuthMethod:  models.AuthMethodEmail,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// authedRequest builds a gin context carrying an authenticated user and an
// optional JSON body. Path params are set by the caller via ctx.Params.
func authedRequest(t *testing.T, userID, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	ctx.Request = httptest.NewRequest(method, path, &buf)
	ctx.Request.Header.Set("Content-Type", "application/json")
	if userID != "" {
		ctx.Set(middleware.ContextUserIDKey, userID)
	}
	return ctx, w
}

// rawAuthedRequest is authedRequest with a verbatim JSON body.
func rawAuthedRequest(t *testing.T, userID, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(method, path, bytes.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")
	if userID != "" {
		ctx.Set(middleware.ContextUserIDKey, userID)
	}
	return ctx, w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return e
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	e := decodeEnvelope(t, w)
	if err := json.Unmarshal(e.Data, out); err != nil {
		t.Fatalf("failed to decode data %q: %v", string(e.Data), err)
	}
}

// clockAt returns an injectable clock frozen at noon on the given date.
func clockAt(t *testing.T, date string) func() time.Time {
	t.Helper()
	day, err := time.ParseInLocation(utils.DateLayout, date, utils.AppLocation())
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	frozen := day.Add(12 * time.Hour)
	return func() time.Time { return frozen }
}

func intPtr(v int) *int { return &v }
