package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/habitflow/backend/middleware"
)

// getUserID pulls the authenticated user's id set by the auth middleware.
func getUserID(ctx *gin.Context) (string, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
