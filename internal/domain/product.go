package domain

import "time"

// Product represents a catalog item. Price is kept as text and returned
// verbatim; the server never does arithmetic on it.
type Product struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       string    `gorm:"size:64" json:"price"`
	Icon        string    `gorm:"size:64" json:"icon,omitempty"`
	Image       string    `gorm:"size:1024" json:"image,omitempty"` // relative path under the upload dir
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}
