package models

import "time"

type PhotoComment struct {
	BaseModel
	UserID      uint   `json:"user_id" gorm:"not null;index"`
	PhotoID     uint   `json:"photo_id" gorm:"not null;index"`
	CommentText string `json:"comment_text" gorm:"type:text;not null"`

	User  User  `json:"-" gorm:"foreignKey:UserID"`
	Photo Photo `json:"-" gorm:"foreignKey:PhotoID"`
}

// CommentView is a comment joined with its author's username.
type CommentView struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	PhotoID     uint      `json:"photo_id"`
	CommentText string    `json:"comment_text"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"created_at"`
}
