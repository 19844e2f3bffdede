package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/auth"
	"inventory-backend/internal/catalog"
	"inventory-backend/internal/config"
	"inventory-backend/internal/storage"
	"inventory-backend/internal/store"
	"inventory-backend/internal/users"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s:%d/%s)", cfg.Server.Port, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	fields, err := catalog.ParseFields(cfg.Catalog.Fields)
	if err != nil {
		log.Fatalf("Invalid catalog field enumeration: %v", err)
	}

	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap system tables: %v", err)
	}
	log.Println("System tables ready")

	statsEval, err := catalog.NewStatsEvaluator(
		cfg.Stats.LowStockRule, cfg.Stats.OutOfStockRule, cfg.Stats.ValueExpr)
	if err != nil {
		log.Fatalf("Invalid stats expressions: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Static("/uploads", cfg.Uploads.Path)

	userStore := users.NewStore(db, fields)

	// Auth routes take no middleware; registration gates itself on
	// the persisted user count.
	authHandler := auth.NewHandler(db, userStore, fields, cfg.JWTSecret)
	auth.RegisterRoutes(app, authHandler)

	authMW := auth.Middleware(cfg.JWTSecret, userStore)
	adminMW := auth.RequireAdmin()

	auth.RegisterMeRoute(app, authHandler, authMW)

	userHandler := users.NewHandler(userStore, fields)
	users.RegisterRoutes(app, userHandler, authMW, adminMW)
	users.RegisterMatrixRoutes(app, userHandler, authMW, adminMW)

	uploads := storage.NewLocalStorage(cfg.Uploads.Path)
	catalogHandler := catalog.NewHandler(db, uploads, fields, cfg.Uploads.MaxFileSize, statsEval)
	catalog.RegisterRoutes(app, catalogHandler, authMW)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(apperr.ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(apperr.ErrorResponse{
		Error: apperr.Internal("Internal server error"),
	})
}
