package models

// DefaultAlbumName is the album every user receives at signup. It cannot be
// deleted.
const DefaultAlbumName = "Ogólne"

type User struct {
	BaseModel
	Username     string  `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Email        string  `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string  `json:"-" gorm:"type:text;not null"`
	Bio          *string `json:"bio,omitempty" gorm:"type:text"`
	Avatar       *string `json:"avatar,omitempty" gorm:"type:varchar(255)"`
	Theme        string  `json:"theme" gorm:"type:varchar(10);not null;default:'light'"`
	Language     string  `json:"language" gorm:"type:varchar(10);not null;default:'pl'"`
	ProfilePhoto *string `json:"profile_photo,omitempty" gorm:"type:varchar(255)"`

	Albums []Album `json:"-" gorm:"foreignKey:UserID"`
	Photos []Photo `json:"-" gorm:"foreignKey:UserID"`
}
