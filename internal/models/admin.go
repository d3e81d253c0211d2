package models

import "time"

// Admin is a reviewer account. Accounts are provisioned from the command line.
type Admin struct {
	ID           int64     `db:"id"`
	Username     string    `db:"usuario"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
