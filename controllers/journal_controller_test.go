package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitflow/backend/models"
)

func journalRequest(t *testing.T, j *JournalController, userID, kind string, body interface{}) (int, *models.BeliefEntry) {
	t.Helper()
	ctx, w := authedRequest(t, userID, http.MethodPost, "/api/v1/journals/"+kind, body)
	ctx.Params = gin.Params{{Key: "type", Value: kind}}
	j.Create(ctx)
	if w.Code != http.StatusCreated {
		return w.Code, nil
	}
	var entry models.BeliefEntry
	decodeData(t, w, &entry)
	return w.Code, &entry
}

func TestJournalCreateAndList(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	j := NewJournalController(db)
	j.now = clockAt(t, "2026-03-15")

	ctx, w := authedRequest(t, user.ID, http.MethodPost, "/api/v1/journals/woop", gin.H{
		"wish": "run a 10k", "outcome": "fitness", "obstacle": "laziness", "plan": "shoes by the door",
	})
	ctx.Params = gin.Params{{Key: "type", Value: models.JournalWoop}}
	j.Create(ctx)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	ctx, w = authedRequest(t, user.ID, http.MethodPost, "/api/v1/journals/woop", gin.H{
		"wish": "read more", "date": "2026-03-16",
	})
	ctx.Params = gin.Params{{Key: "type", Value: models.JournalWoop}}
	j.Create(ctx)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	ctx, w = authedRequest(t, user.ID, http.MethodGet, "/api/v1/journals/woop", nil)
	ctx.Params = gin.Params{{Key: "type", Value: models.JournalWoop}}
	j.List(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var entries []models.WoopEntry
	decodeData(t, w, &entries)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, "read more", entries[0].Wish)
	assert.Equal(t, "2026-03-16", entries[0].EntryDate)
	assert.Equal(t, "run a 10k", entries[1].Wish)
	assert.Equal(t, "2026-03-15", entries[1].EntryDate)
}

func TestJournalUnknownTypeRejected(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	j := NewJournalController(db)

	ctx, w := authedRequest(t, user.ID, http.MethodGet, "/api/v1/journals/dreams", nil)
	ctx.Params = gin.Params{{Key: "type", Value: "dreams"}}
	j.List(ctx)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ctx, w = authedRequest(t, user.ID, http.MethodPost, "/api/v1/journals/dreams", gin.H{"text": "flying"})
	ctx.Params = gin.Params{{Key: "type", Value: "dreams"}}
	j.Create(ctx)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJournalHeadlineFieldRequired(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	j := NewJournalController(db)
	j.now = clockAt(t, "2026-03-15")

	cases := []struct {
		kind string
		body gin.H
	}{
		{models.JournalLuck, gin.H{"event2": "secondary only"}},
		{models.JournalGratitude, gin.H{"item2": "secondary only"}},
		{models.JournalDecisions, gin.H{"logic": "no decision"}},
		{models.JournalWoop, gin.H{"plan": "no wish"}},
		{models.JournalProphecy, gin.H{"reasoning": "no prophecy"}},
		{models.JournalBeliefs, gin.H{"origin": "no belief"}},
	}
	for _, tc := range cases {
		ctx, w := authedRequest(t, user.ID, http.MethodPost, "/api/v1/journals/"+tc.kind, tc.body)
		ctx.Params = gin.Params{{Key: "type", Value: tc.kind}}
		j.Create(ctx)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.kind)
	}
}

func TestBeliefTypeDefaultsToEmpowering(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	j := NewJournalController(db)
	j.now = clockAt(t, "2026-03-15")

	code, entry := journalRequest(t, j, user.ID, models.JournalBeliefs, gin.H{"belief": "I finish what I start"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "empowering", entry.BeliefType)

	code, entry = journalRequest(t, j, user.ID, models.JournalBeliefs, gin.H{"belief": "I always fail", "beliefType": "limiting"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "limiting", entry.BeliefType)
}

func TestJournalSanitizesMarkup(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	j := NewJournalController(db)
	j.now = clockAt(t, "2026-03-15")

	ctx, w := authedRequest(t, user.ID, http.MethodPost, "/api/v1/journals/luck", gin.H{
		"event1": `met a friend<script>alert("x")</script>`,
	})
	ctx.Params = gin.Params{{Key: "type", Value: models.JournalLuck}}
	j.Create(ctx)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var entry models.LuckEntry
	decodeData(t, w, &entry)
	assert.NotContains(t, entry.Event1, "<script>")
	assert.Contains(t, entry.Event1, "met a friend")
}
