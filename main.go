package main

import (
	"github.com/habitflow/backend/config"
	"github.com/habitflow/backend/models"
	"github.com/habitflow/backend/routes"
	"github.com/habitflow/backend/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
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

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
