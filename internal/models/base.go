package models

import "time"

// BaseModel carries the autoincrement primary key and creation timestamp shared
// by every table. Integer ids double as an insertion-order tie-breaker for the
// photo listing sorts.
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`
}
