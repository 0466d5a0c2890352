package internal

import (
	"net/http"
	"streakd/internal/controllers"
	"streakd/internal/providers"
	"streakd/internal/structures"
)

func InitRoutes(engagementController *controllers.EngagementController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/events", http.HandlerFunc(engagementController.ReceiveEvent))
	routers.Get("/streak", http.HandlerFunc(engagementController.GetStreak))
	routers.Get("/profiles", http.HandlerFunc(engagementController.GetProfiles))
	routers.Post("/prompt", http.HandlerFunc(engagementController.ConsumePrompt))
	if conf.Debug {
		routers.Post("/reset", http.HandlerFunc(engagementController.Reset))
	}
	return routers
}
