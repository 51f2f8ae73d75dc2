package models

import "time"

// InitialBalance is credited to every account at registration.
const InitialBalance = 100

// User represents a marketplace account. Email is the immutable identity.
type User struct {
	Email           string    `json:"email" gorm:"primaryKey;type:varchar(120)"`
	Username        string    `json:"username" gorm:"type:varchar(80);not null"`
	PasswordHash    string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	ShippingAddress *string   `json:"shipping_address" gorm:"type:varchar(120)"`
	PostalCode      *string   `json:"postal_code" gorm:"type:varchar(16)"`
	Balance         int       `json:"balance" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
