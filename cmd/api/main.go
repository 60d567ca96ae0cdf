package main

import (
	"os"

	"github.com/yigit/alumnitrack/internal/pkg/logger"
	"github.com/yigit/alumnitrack/internal/server"
)

// @title Alumni Tracker API
// @version 1.0
// @description Registrar API for alumni records, their lifecycle, bulk ingest and the admin audit trail

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}
