package handlers

import (
	"strings"

	"github.com/PeXusQ/Gallery-Project/internal/middleware"
	"github.com/PeXusQ/Gallery-Project/internal/models"
	"github.com/PeXusQ/Gallery-Project/pkg/logger"
	"github.com/PeXusQ/Gallery-Project/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UsersHandler struct {
	DB *gorm.DB
}

func NewUsersHandler(db *gorm.DB) *UsersHandler {
	return &UsersHandler{DB: db}
}

type userDirectoryEntry struct {
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	Bio          *string `json:"bio"`
	ProfilePhoto *string `json:"profile_photo"`
	PhotosCount  int64   `json:"photos_count"`
}

// List backs the public user directory page: public profile fields plus a
// photo count per user.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	entries := make([]userDirectoryEntry, 0)
	err := h.DB.Table("users").
		Select(`users.id, users.username, users.bio, users.profile_photo,
			COALESCE(photos.photos_count, 0) AS photos_count`).
		Joins(`LEFT JOIN (SELECT user_id, COUNT(*) AS photos_count
			FROM photos GROUP BY user_id) photos ON photos.user_id = users.id`).
		Order("users.username ASC").
		Scan(&entries).Error
	if err != nil {
		logger.Error("users_list_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	return utils.Success(c, fiber.StatusOK, entries)
}

type updateMeRequest struct {
	Bio      *string `json:"bio"`
	Avatar   *string `json:"avatar"`
	Theme    *string `json:"theme"`
	Language *string `json:"language"`
}

func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Bio != nil {
		if trimmed := strings.TrimSpace(*req.Bio); trimmed == "" {
			updates["bio"] = nil
		} else {
			updates["bio"] = trimmed
		}
	}
	if req.Avatar != nil {
		if trimmed := strings.TrimSpace(*req.Avatar); trimmed == "" {
			updates["avatar"] = nil
		} else {
			updates["avatar"] = trimmed
		}
	}
	if req.Theme != nil {
		value := strings.TrimSpace(*req.Theme)
		if value != "light" && value != "dark" {
			return utils.Error(c, fiber.StatusBadRequest, "theme must be light or dark")
		}
		updates["theme"] = value
	}
	if req.Language != nil {
		value := strings.TrimSpace(*req.Language)
		if len(value) < 2 || len(value) > 10 {
			return utils.Error(c, fiber.StatusBadRequest, "invalid language code")
		}
		updates["language"] = value
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Updates(updates).Error; err != nil {
		logger.ErrorWithUser(currentUser.Username, "profile_update_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating profile")
	}

	var updated models.User
	if err := h.DB.First(&updated, "id = ?", currentUser.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching updated profile")
	}

	logger.InfoWithUser(updated.Username, "profile_updated", map[string]interface{}{
		"user_id": updated.ID,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"user": updated})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.NewPassword) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "new password must be at least 8 characters")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", currentUser.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	if !utils.CheckPassword(req.OldPassword, user.PasswordHash) {
		return utils.Error(c, fiber.StatusBadRequest, "old password is incorrect")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("password_hash", hash).Error; err != nil {
		logger.ErrorWithUser(user.Username, "password_change_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating password")
	}

	logger.InfoWithUser(user.Username, "password_changed", map[string]interface{}{
		"user_id": user.ID,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "password updated"})
}
