package models

type Album struct {
	BaseModel
	UserID      uint    `json:"user_id" gorm:"not null;index;uniqueIndex:idx_albums_owner_name"`
	Name        string  `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_albums_owner_name"`
	Description *string `json:"description,omitempty" gorm:"type:text"`

	Owner  User    `json:"-" gorm:"foreignKey:UserID"`
	Photos []Photo `json:"-" gorm:"foreignKey:AlbumID"`
}

// IsDefault reports whether this is the non-deletable album created at signup.
func (a *Album) IsDefault() bool {
	return a.Name == DefaultAlbumName
}
