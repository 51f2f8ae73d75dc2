package models

import "time"

// Transaction is the immutable record of a sold product. Purchase history
// is looked up by BuyerEmail.
type Transaction struct {
	ID               string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Price            int       `json:"price" gorm:"not null"`
	Title            string    `json:"title" gorm:"type:varchar(80);not null"`
	Description      string    `json:"description" gorm:"type:varchar(2000)"`
	LastModifiedDate string    `json:"last_modified_date" gorm:"type:varchar(10);not null"`
	BuyerEmail       string    `json:"buyer_email" gorm:"index;type:varchar(120);not null"`
	SellerEmail      string    `json:"seller_email" gorm:"index;type:varchar(120);not null"`
	CreatedAt        time.Time `json:"created_at"`
}
