package models

// PhotoRating holds one bounded 1..5 rating per (user, photo). Rating the same
// photo again overwrites the previous value (upsert on the unique pair).
type PhotoRating struct {
	BaseModel
	UserID  uint `json:"user_id" gorm:"not null;uniqueIndex:idx_photo_ratings_user_photo"`
	PhotoID uint `json:"photo_id" gorm:"not null;index;uniqueIndex:idx_photo_ratings_user_photo"`
	Rating  int  `json:"rating" gorm:"not null"`

	User  User  `json:"-" gorm:"foreignKey:UserID"`
	Photo Photo `json:"-" gorm:"foreignKey:PhotoID"`
}
