package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/PeXusQ/Gallery-Project/internal/config"
	"github.com/PeXusQ/Gallery-Project/internal/middleware"
	"github.com/PeXusQ/Gallery-Project/internal/models"
	"github.com/PeXusQ/Gallery-Project/internal/storage"
	"github.com/PeXusQ/Gallery-Project/pkg/logger"
	"github.com/PeXusQ/Gallery-Project/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	store *storage.LocalStore
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Album{},
		&models.Photo{},
		&models.PhotoLike{},
		&models.PhotoComment{},
		&models.PhotoRating{},
	)
	if err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	store, err := storage.NewLocalStore(config.UploadConfig{
		Root:         t.TempDir(),
		MaxFileSize:  5 * 1024 * 1024,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	})
	if err != nil {
		t.Fatalf("failed creating upload store: %v", err)
	}

	authHandler := NewAuthHandler(db)
	photosHandler := NewPhotosHandler(db, store)
	albumsHandler := NewAlbumsHandler(db)
	commentsHandler := NewCommentsHandler(db)
	usersHandler := NewUsersHandler(db)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

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

	return &testEnv{app: app, db: db, store: store}
}

func createTestUser(t *testing.T, db *gorm.DB, username, email, password string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Album{UserID: user.ID, Name: models.DefaultAlbumName}).Error
	})
	if err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestPhoto(t *testing.T, db *gorm.DB, userID uint, albumID *uint) *models.Photo {
	t.Helper()

	photo := &models.Photo{
		UserID:   userID,
		Filename: uuid.New().String() + ".jpg",
		AlbumID:  albumID,
	}
	if err := db.Create(photo).Error; err != nil {
		t.Fatalf("failed creating test photo: %v", err)
	}
	return photo
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

// performUploadRequest builds a multipart body with one file part (carrying an
// explicit Content-Type) plus optional form fields.
func performUploadRequest(t *testing.T, app *fiber.App, path, fileName, contentType string, content []byte, fields map[string]string, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	partHeader.Set("Content-Type", contentType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("failed creating multipart file part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed writing multipart file content: %v", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed writing multipart field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	requestHeaders := map[string]string{"Content-Type": writer.FormDataContentType()}
	for key, value := range headers {
		requestHeaders[key] = value
	}

	return performRequest(t, app, http.MethodPost, path, &buf, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func decodeData(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	body := decodeJSONMap(t, resp)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in envelope, got %+v", body)
	}
	return data
}

func decodeDataList(t *testing.T, resp *http.Response) []any {
	t.Helper()

	body := decodeJSONMap(t, resp)
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array in envelope, got %+v", body)
	}
	return data
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
