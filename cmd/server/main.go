package main

import (
	"log"
	"net/http"

	_ "comunidad/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"comunidad/internal/cache"
	"comunidad/internal/config"
	"comunidad/internal/handler"
	"comunidad/internal/provider"
	"comunidad/internal/router"
)

// @title Comunidad API
// @version 1.0
// @description Community-management application: registration, login, password recovery, property onboarding and dashboard, backed by a hosted identity/data provider.
// @host localhost:8080
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the provider access token.
func main() {
	cfg := config.Load()
	if cfg.ProviderAnonKey == "" {
		log.Println("warning: PROVIDER_ANON_KEY is empty, provider calls will be rejected")
	}

	e := echo.New()
	e.Use(middleware.RequestID())

	client := provider.New(cfg.ProviderURL, cfg.ProviderAnonKey, cfg.ProviderTimeout)
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(client, cfg.AppBaseURL, cacheClient)
	dashboardHandler := handler.NewDashboardHandler(client, client)
	pageHandler := handler.NewPageHandler()
	apiHandler := handler.NewAPIHandler(client, client)

	// Register routes
	router.Register(
		e,
		cfg,
		client,
		cacheClient,
		authHandler,
		dashboardHandler,
		pageHandler,
		apiHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
