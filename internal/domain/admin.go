package domain

import "time"

// AdminUser is the operator account checked by /api/admin/login.
//
// Passwords are stored and compared as plaintext. This mirrors the
// original backend's behavior and is documented in the README; do not
// reuse this table for anything beyond the demo credential check.
type AdminUser struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:128" json:"username"`
	Password  string    `gorm:"size:128" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (AdminUser) TableName() string {
	return "admin"
}
