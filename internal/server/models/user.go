// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
}
