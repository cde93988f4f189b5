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

type CommentsHandler struct {
	DB *gorm.DB
}

func NewCommentsHandler(db *gorm.DB) *CommentsHandler {
	return &CommentsHandler{DB: db}
}

// List is public and returns a photo's comments with author usernames, oldest
// first.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	photoID, err := parseID(c.Params("photoId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid photo id")
	}

	var photo models.Photo
	if err := h.DB.First(&photo, "id = ?", photoID).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "photo not found")
	}

	comments := make([]models.CommentView, 0)
	err = h.DB.Table("photo_comments").
		Select(`photo_comments.id, photo_comments.user_id, photo_comments.photo_id,
			photo_comments.comment_text, photo_comments.created_at,
			users.username AS username`).
		Joins("JOIN users ON users.id = photo_comments.user_id").
		Where("photo_comments.photo_id = ?", photo.ID).
		Order("photo_comments.id ASC").
		Scan(&comments).Error
	if err != nil {
		logger.Error("comments_list_failed", err, map[string]interface{}{"photo_id": photo.ID})
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing comments")
	}

	return utils.Success(c, fiber.StatusOK, comments)
}

type addCommentRequest struct {
	PhotoID     uint   `json:"photo_id"`
	CommentText string `json:"comment_text"`
}

func (h *CommentsHandler) Add(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req addCommentRequest
	if err := c.BodyParser(&req); err != nil || req.PhotoID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "photo_id is required")
	}

	req.CommentText = strings.TrimSpace(req.CommentText)
	if req.CommentText == "" {
		return utils.Error(c, fiber.StatusBadRequest, "comment text is required")
	}

	var photo models.Photo
	if err := h.DB.First(&photo, "id = ?", req.PhotoID).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "photo not found")
	}

	comment := models.PhotoComment{
		UserID:      currentUser.ID,
		PhotoID:     photo.ID,
		CommentText: req.CommentText,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		logger.ErrorWithUser(currentUser.Username, "comment_create_failed", err, map[string]interface{}{
			"photo_id": photo.ID,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating comment")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message": "comment added",
		"comment": comment,
	})
}
