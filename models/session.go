package models

import "time"

// Session is a server-side login session. The bearer token issued at
// login references a row here, so deleting the row revokes the token.
type Session struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"unique;not null;size:64"`
	UserID    int       `json:"user_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
