package handlers

import (
	"errors"
	"strings"

	"github.com/PeXusQ/Gallery-Project/internal/middleware"
	"github.com/PeXusQ/Gallery-Project/internal/models"
	"github.com/PeXusQ/Gallery-Project/pkg/logger"
	"github.com/PeXusQ/Gallery-Project/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AlbumsHandler struct {
	DB *gorm.DB
}

func NewAlbumsHandler(db *gorm.DB) *AlbumsHandler {
	return &AlbumsHandler{DB: db}
}

// List returns the caller's albums, newest first.
func (h *AlbumsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	albums := make([]models.Album, 0)
	if err := h.DB.
		Where("user_id = ?", currentUser.ID).
		Order("id DESC").
		Find(&albums).Error; err != nil {
		logger.ErrorWithUser(currentUser.Username, "albums_list_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing albums")
	}

	return utils.Success(c, fiber.StatusOK, albums)
}

type createAlbumRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *AlbumsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createAlbumRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "album name is required")
	}
	if len(req.Name) > 100 {
		return utils.Error(c, fiber.StatusBadRequest, "album name must be at most 100 characters")
	}

	album := models.Album{
		UserID:      currentUser.ID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.DB.Create(&album).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Error(c, fiber.StatusConflict, "album name already in use")
		}
		logger.ErrorWithUser(currentUser.Username, "album_create_failed", err, map[string]interface{}{
			"name": req.Name,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating album")
	}

	logger.InfoWithUser(currentUser.Username, "album_created", map[string]interface{}{
		"album_id": album.ID,
		"name":     album.Name,
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": "album created",
		"album":   album,
	})
}

// Delete removes an owned album. The default album is rejected regardless of
// caller; the album's photos survive with album_id cleared.
func (h *AlbumsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	albumID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid album id")
	}

	var album models.Album
	if err := h.DB.First(&album, "id = ?", albumID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "album not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading album")
	}

	if album.UserID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "not the album owner")
	}
	if album.IsDefault() {
		return utils.Error(c, fiber.StatusForbidden, "default album cannot be deleted")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Photo{}).
			Where("album_id = ?", album.ID).
			Update("album_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&album).Error
	})
	if err != nil {
		logger.ErrorWithUser(currentUser.Username, "album_delete_failed", err, map[string]interface{}{
			"album_id": album.ID,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting album")
	}

	logger.InfoWithUser(currentUser.Username, "album_deleted", map[string]interface{}{
		"album_id": album.ID,
		"name":     album.Name,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "album deleted"})
}
