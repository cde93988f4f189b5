package models

import "time"

type Photo struct {
	BaseModel
	UserID      uint    `json:"user_id" gorm:"not null;index"`
	Title       *string `json:"title,omitempty" gorm:"type:varchar(200)"`
	Description *string `json:"description,omitempty" gorm:"type:text"`
	Filename    string  `json:"filename" gorm:"type:varchar(255);not null"`
	AlbumID     *uint   `json:"album_id,omitempty" gorm:"index"`

	Owner    User           `json:"-" gorm:"foreignKey:UserID"`
	Album    *Album         `json:"-" gorm:"foreignKey:AlbumID"`
	Likes    []PhotoLike    `json:"-" gorm:"foreignKey:PhotoID"`
	Comments []PhotoComment `json:"-" gorm:"foreignKey:PhotoID"`
	Ratings  []PhotoRating  `json:"-" gorm:"foreignKey:PhotoID"`
}

// PhotoView is the listing row shape: a photo joined with its author, album
// name and aggregate feedback counters.
type PhotoView struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Filename     string    `json:"filename"`
	AlbumID      *uint     `json:"album_id"`
	CreatedAt    time.Time `json:"created_at"`
	Username     string    `json:"username"`
	AlbumName    *string   `json:"album_name"`
	LikesCount   int64     `json:"likes_count"`
	AvgRating    *float64  `json:"avg_rating"`
	RatingsCount int64     `json:"ratings_count"`
}
