package models

import "time"

// DateLayout is the format of Product.LastModifiedDate.
const DateLayout = "2006-01-02"

// Product represents a listing offered by its owner.
type Product struct {
	ID               string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title            string    `json:"title" gorm:"uniqueIndex;type:varchar(80);not null"`
	Description      string    `json:"description" gorm:"type:varchar(2000)"`
	Price            int       `json:"price" gorm:"not null"`
	LastModifiedDate string    `json:"last_modified_date" gorm:"type:varchar(10);not null"`
	OwnerEmail       string    `json:"owner_email" gorm:"index;type:varchar(120);not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
