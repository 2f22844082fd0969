package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is a server-stored refresh token.
type Session struct {
	Token     string
	UserID    string
	Expires   time.Time
	CreatedAt time.Time
}
