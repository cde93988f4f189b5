package handlers

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/PeXusQ/Gallery-Project/internal/middleware"
	"github.com/PeXusQ/Gallery-Project/internal/models"
	"github.com/PeXusQ/Gallery-Project/internal/storage"
	"github.com/PeXusQ/Gallery-Project/pkg/logger"
	"github.com/PeXusQ/Gallery-Project/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PhotosHandler struct {
	DB    *gorm.DB
	Store *storage.LocalStore
}

func NewPhotosHandler(db *gorm.DB, store *storage.LocalStore) *PhotosHandler {
	return &PhotosHandler{DB: db, Store: store}
}

// sortOrders maps the public sort values to ORDER BY clauses. Every order
// falls back to descending id so equal sort keys list newest first.
var sortOrders = map[string]string{
	"newest":     "photos.created_at DESC, photos.id DESC",
	"oldest":     "photos.created_at ASC, photos.id DESC",
	"most-liked": "likes_count DESC, photos.id DESC",
	"top-rated":  "COALESCE(ratings.avg_rating, 0) DESC, photos.id DESC",
}

// List is public: it returns all photos joined with author username, album
// name and the aggregate like/rating counters.
func (h *PhotosHandler) List(c *fiber.Ctx) error {
	order, ok := sortOrders[c.Query("sort")]
	if !ok {
		order = sortOrders["newest"]
	}

	query := h.DB.Table("photos").
		Select(`photos.id, photos.user_id, photos.title, photos.description, photos.filename,
			photos.album_id, photos.created_at,
			users.username AS username, albums.name AS album_name,
			COALESCE(likes.likes_count, 0) AS likes_count,
			ratings.avg_rating AS avg_rating,
			COALESCE(ratings.ratings_count, 0) AS ratings_count`).
		Joins("JOIN users ON users.id = photos.user_id").
		Joins("LEFT JOIN albums ON albums.id = photos.album_id").
		Joins(`LEFT JOIN (SELECT photo_id, COUNT(*) AS likes_count
			FROM photo_likes GROUP BY photo_id) likes ON likes.photo_id = photos.id`).
		Joins(`LEFT JOIN (SELECT photo_id, AVG(rating) AS avg_rating, COUNT(*) AS ratings_count
			FROM photo_ratings GROUP BY photo_id) ratings ON ratings.photo_id = photos.id`).
		Order(order)

	if albumFilter := strings.TrimSpace(c.Query("album")); albumFilter != "" {
		albumID, err := parseID(albumFilter)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid album filter")
		}
		query = query.Where("photos.album_id = ?", albumID)
	}

	views := make([]models.PhotoView, 0)
	if err := query.Scan(&views).Error; err != nil {
		logger.Error("photos_list_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing photos")
	}

	return utils.Success(c, fiber.StatusOK, views)
}

func (h *PhotosHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	if fileHeader.Size > h.Store.MaxFileSize() {
		return utils.Error(c, fiber.StatusBadRequest,
			fmt.Sprintf("file exceeds the %d MB limit", h.Store.MaxFileSize()/(1024*1024)))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if !h.Store.AllowedType(contentType) {
		return utils.Error(c, fiber.StatusBadRequest, "file type not allowed")
	}

	var albumID *uint
	if raw := strings.TrimSpace(c.FormValue("album_id")); raw != "" {
		parsed, parseErr := parseID(raw)
		if parseErr != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid album_id")
		}

		var album models.Album
		if err := h.DB.First(&album, "id = ? AND user_id = ?", parsed, currentUser.ID).Error; err != nil {
			// a foreign album is reported as missing, not forbidden
			return utils.Error(c, fiber.StatusNotFound, "album not found")
		}
		albumID = &parsed
	}

	stream, err := fileHeader.Open()
	if err != nil {
		logger.ErrorWithUser(currentUser.Username, "photo_upload_open_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	objectName := h.Store.NewObjectName("", fileHeader.Filename)
	if _, err := h.Store.Save(objectName, stream); err != nil {
		logger.ErrorWithUser(currentUser.Username, "photo_upload_store_failed", err, map[string]interface{}{
			"filename": objectName,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed storing file")
	}

	var title, description *string
	if value := strings.TrimSpace(c.FormValue("title")); value != "" {
		title = &value
	}
	if value := strings.TrimSpace(c.FormValue("description")); value != "" {
		description = &value
	}

	photo := models.Photo{
		UserID:      currentUser.ID,
		Title:       title,
		Description: description,
		Filename:    objectName,
		AlbumID:     albumID,
	}

	if err := h.DB.Create(&photo).Error; err != nil {
		// compensating cleanup: no row, no file
		_ = h.Store.Delete(objectName)
		logger.ErrorWithUser(currentUser.Username, "photo_upload_insert_failed", err, map[string]interface{}{
			"filename": objectName,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating photo record")
	}

	logger.InfoWithUser(currentUser.Username, "photo_uploaded", map[string]interface{}{
		"photo_id":  photo.ID,
		"filename":  objectName,
		"file_size": fileHeader.Size,
		"mime_type": contentType,
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": "photo uploaded",
		"photo":   photo,
	})
}

func (h *PhotosHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	photoID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid photo id")
	}

	var photo models.Photo
	if err := h.DB.First(&photo, "id = ?", photoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "photo not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading photo")
	}

	if photo.UserID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "not the photo owner")
	}

	// likes, comments and ratings go with the photo in one transaction; the
	// file is removed afterwards, best-effort
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", photo.ID).Delete(&models.PhotoLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("photo_id = ?", photo.ID).Delete(&models.PhotoComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("photo_id = ?", photo.ID).Delete(&models.PhotoRating{}).Error; err != nil {
			return err
		}
		return tx.Delete(&photo).Error
	})
	if err != nil {
		logger.ErrorWithUser(currentUser.Username, "photo_delete_failed", err, map[string]interface{}{
			"photo_id": photo.ID,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting photo")
	}

	if err := h.Store.Delete(photo.Filename); err != nil {
		logger.WarnWithUser(currentUser.Username, "photo_file_cleanup_failed", map[string]interface{}{
			"photo_id": photo.ID,
			"filename": photo.Filename,
			"error":    err.Error(),
		})
	}

	logger.InfoWithUser(currentUser.Username, "photo_deleted", map[string]interface{}{
		"photo_id": photo.ID,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "photo deleted"})
}

type likeRequest struct {
	PhotoID uint `json:"photo_id"`
}

// Like inserts the (user, photo) pair; the unique index is the arbiter and a
// duplicate is reported as an explicit conflict.
func (h *PhotosHandler) Like(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req likeRequest
	if err := c.BodyParser(&req); err != nil || req.PhotoID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "photo_id is required")
	}

	var photo models.Photo
	if err := h.DB.First(&photo, "id = ?", req.PhotoID).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "photo not found")
	}

	like := models.PhotoLike{UserID: currentUser.ID, PhotoID: photo.ID}
	if err := h.DB.Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Error(c, fiber.StatusConflict, "photo already liked")
		}
		logger.ErrorWithUser(currentUser.Username, "photo_like_failed", err, map[string]interface{}{
			"photo_id": photo.ID,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed liking photo")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "photo liked"})
}

type rateRequest struct {
	PhotoID uint `json:"photo_id"`
	Rating  int  `json:"rating"`
}

// Rate upserts the caller's rating keyed on the (user, photo) unique pair.
func (h *PhotosHandler) Rate(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req rateRequest
	if err := c.BodyParser(&req); err != nil || req.PhotoID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "photo_id is required")
	}

	if req.Rating < 1 || req.Rating > 5 {
		return utils.Error(c, fiber.StatusBadRequest, "rating must be between 1 and 5")
	}

	var photo models.Photo
	if err := h.DB.First(&photo, "id = ?", req.PhotoID).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "photo not found")
	}

	rating := models.PhotoRating{
		UserID:  currentUser.ID,
		PhotoID: photo.ID,
		Rating:  req.Rating,
	}
	err := h.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "photo_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating"}),
	}).Create(&rating).Error
	if err != nil {
		logger.ErrorWithUser(currentUser.Username, "photo_rate_failed", err, map[string]interface{}{
			"photo_id": photo.ID,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed rating photo")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "photo rated"})
}

// UploadProfilePhoto stores the image under the profiles/ partition and points
// users.profile_photo at it, replacing any previous file.
func (h *PhotosHandler) UploadProfilePhoto(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	if fileHeader.Size > h.Store.MaxFileSize() {
		return utils.Error(c, fiber.StatusBadRequest,
			fmt.Sprintf("file exceeds the %d MB limit", h.Store.MaxFileSize()/(1024*1024)))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if !h.Store.AllowedType(contentType) {
		return utils.Error(c, fiber.StatusBadRequest, "file type not allowed")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	objectName := h.Store.NewObjectName(storage.ProfilesDir, fileHeader.Filename)
	if _, err := h.Store.Save(objectName, stream); err != nil {
		logger.ErrorWithUser(currentUser.Username, "profile_photo_store_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed storing file")
	}

	previous := currentUser.ProfilePhoto
	if err := h.DB.Model(&models.User{}).
		Where("id = ?", currentUser.ID).
		Update("profile_photo", objectName).Error; err != nil {
		_ = h.Store.Delete(objectName)
		logger.ErrorWithUser(currentUser.Username, "profile_photo_update_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating profile photo")
	}

	if previous != nil && *previous != objectName {
		_ = h.Store.Delete(*previous)
	}

	logger.InfoWithUser(currentUser.Username, "profile_photo_updated", map[string]interface{}{
		"filename": objectName,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":       "profile photo updated",
		"profile_photo": objectName,
	})
}
