package main

import (
	"berth/config"
	"berth/di"
	"berth/shared/logger"
)

// @title Berth API
// @version 1.0
// @description Booking ledger and capacity reconciliation service for community support sessions.
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	http := di.InitializeService()
	http.Serve()
}
