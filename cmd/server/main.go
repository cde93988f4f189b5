package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/PeXusQ/Gallery-Project/internal/config"
	"github.com/PeXusQ/Gallery-Project/internal/database"
	"github.com/PeXusQ/Gallery-Project/internal/handlers"
	"github.com/PeXusQ/Gallery-Project/internal/middleware"
	"github.com/PeXusQ/Gallery-Project/internal/storage"
	"github.com/PeXusQ/Gallery-Project/pkg/logger"
	"github.com/PeXusQ/Gallery-Project/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	store, err := storage.NewLocalStore(cfg.Upload)
	if err != nil {
		log.Fatalf("upload storage initialization failed: %v", err)
	}

	authHandler := handlers.NewAuthHandler(db)
	photosHandler := handlers.NewPhotosHandler(db, store)
	albumsHandler := handlers.NewAlbumsHandler(db)
	commentsHandler := handlers.NewCommentsHandler(db)
	usersHandler := handlers.NewUsersHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/verify", authMiddleware.RequireAuth, authHandler.Verify)

	photoRoutes := api.Group("/photos")
	photoRoutes.Get("/", authMiddleware.OptionalAuth, photosHandler.List)
	photoRoutes.Post("/upload", authMiddleware.RequireAuth, photosHandler.Upload)
	photoRoutes.Post("/like", authMiddleware.RequireAuth, photosHandler.Like)
	photoRoutes.Post("/rate", authMiddleware.RequireAuth, photosHandler.Rate)
	photoRoutes.Post("/profile", authMiddleware.RequireAuth, photosHandler.UploadProfilePhoto)
	photoRoutes.Delete("/:id", authMiddleware.RequireAuth, photosHandler.Delete)

	albumRoutes := api.Group("/albums", authMiddleware.RequireAuth)
	albumRoutes.Get("/", albumsHandler.List)
	albumRoutes.Post("/", albumsHandler.Create)
	albumRoutes.Delete("/:id", albumsHandler.Delete)

	commentRoutes := api.Group("/comments")
	commentRoutes.Get("/:photoId", commentsHandler.List)
	commentRoutes.Post("/", authMiddleware.RequireAuth, commentsHandler.Add)

	userRoutes := api.Group("/users")
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Put("/me", authMiddleware.RequireAuth, usersHandler.UpdateMe)
	userRoutes.Put("/password", authMiddleware.RequireAuth, usersHandler.ChangePassword)

	// uploaded files and the frontend pages
	app.Static("/uploads", store.Root())
	app.Static("/", cfg.Server.WebDir)
	for _, page := range []string{"login", "signup", "main"} {
		page := page
		app.Get("/"+page, func(c *fiber.Ctx) error {
			return c.SendFile(filepath.Join(cfg.Server.WebDir, page+".html"))
		})
	}
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendFile(filepath.Join(cfg.Server.WebDir, "main.html"))
	})

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":        cfg.Server.Port,
		"upload_root": store.Root(),
		"db_driver":   cfg.DB.Driver,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
