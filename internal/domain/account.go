package domain

import "time"

type Account struct {
	ID            string
	UserID        *string
	AccountNumber string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
