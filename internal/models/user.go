package models

import (
	"time"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	DisplayName  string
	Role         string // e.g. "subscriber", "admin"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
