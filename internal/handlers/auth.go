package handlers

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/PeXusQ/Gallery-Project/internal/middleware"
	"github.com/PeXusQ/Gallery-Project/internal/models"
	"github.com/PeXusQ/Gallery-Project/pkg/logger"
	"github.com/PeXusQ/Gallery-Project/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if len(req.Username) < 3 || len(req.Username) > 50 {
		return utils.Error(c, fiber.StatusBadRequest, "username must be between 3 and 50 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	var count int64
	if err := h.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		logger.Error("register_lookup_failed", err, map[string]interface{}{"username": req.Username})
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing user")
	}
	if count > 0 {
		return utils.Error(c, fiber.StatusConflict, "username or email already taken")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("register_hash_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}

	// the user and their default album are created atomically: no user exists
	// without an "Ogólne" album
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Album{
			UserID: user.ID,
			Name:   models.DefaultAlbumName,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Error(c, fiber.StatusConflict, "username or email already taken")
		}
		logger.Error("register_create_failed", err, map[string]interface{}{"username": req.Username})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	logger.InfoWithUser(user.Username, "user_registered", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"user": user})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "identifier and password are required")
	}

	var user models.User
	if err := h.DB.
		Where("username = ? OR email = ?", req.Identifier, strings.ToLower(req.Identifier)).
		First(&user).Error; err != nil {
		logger.Warn("login_failed_user_not_found", map[string]interface{}{
			"identifier": req.Identifier,
			"ip":         c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		logger.WarnWithUser(user.Username, "login_failed_invalid_password", map[string]interface{}{
			"ip": c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		logger.ErrorWithUser(user.Username, "login_token_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.Username, "user_login", map[string]interface{}{
		"user_id": user.ID,
		"ip":      c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "user": user})
}

// Verify confirms the bearer token the middleware already validated and
// returns the current user, so the client can restore a session on page load.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"user": user})
}
