package models

// PhotoLike is a junction fact: one like per (user, photo), enforced by the
// unique index rather than application-level locking.
type PhotoLike struct {
	BaseModel
	UserID  uint `json:"user_id" gorm:"not null;uniqueIndex:idx_photo_likes_user_photo"`
	PhotoID uint `json:"photo_id" gorm:"not null;index;uniqueIndex:idx_photo_likes_user_photo"`

	User  User  `json:"-" gorm:"foreignKey:UserID"`
	Photo Photo `json:"-" gorm:"foreignKey:PhotoID"`
}
