package main

import (
	"github.com/gin-gonic/gin"

	"github.com/goleaf/tribal-clone-sub002/internal/api"
	"github.com/goleaf/tribal-clone-sub002/internal/config"
	"github.com/goleaf/tribal-clone-sub002/internal/constants"
	"github.com/goleaf/tribal-clone-sub002/internal/engine"
	"github.com/goleaf/tribal-clone-sub002/internal/logging"
	"github.com/goleaf/tribal-clone-sub002/internal/service"
)

func main() {
	env, err := config.ParseEnv()
	if err != nil {
		logging.Fatal("Invalid environment configuration", err, nil)
	}
	if env.SessionSecret == "" {
		logging.Warn("SESSION_SECRET not set, using an in-memory dev secret", nil, nil)
	}

	cfg := loadConfigOrExit(env.ConfigPath)
	repo := createRepositoryOrExit(env.DBPath, cfg)

	svc := service.New(repo, cfg.World, engine.System)
	handler := api.NewHandler(svc)
	authHandler := api.NewAuthHandler(repo)

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.POST(constants.RouteAuthLogin, authHandler.Login)
		apiRoutes.GET(constants.RouteVersion, api.Version)

		// Authenticated endpoints
		protected := apiRoutes.Group("")
		protected.Use(api.AuthRequired())

		protected.GET(constants.RouteVillages, handler.ListVillages)
		protected.GET(constants.RouteVillageByID, handler.GetVillage)
		protected.POST(constants.RouteVillageDispatch, handler.Dispatch)
		protected.GET(constants.RouteOperations, handler.ListOperations)
		protected.POST(constants.RouteOperationCancel, handler.CancelOperation)
		protected.POST(constants.RouteProcessDue, handler.ProcessDue)
		protected.GET(constants.RouteReports, handler.ListReports)
		protected.GET(constants.RouteReportByID, handler.GetReport)
	}

	addr := cfg.ServerAddress
	if env.Addr != "" {
		addr = env.Addr
	}
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
