package models

import "time"

// Staff account roles. Admins may admit, discharge and manage the
// doctor roster; staff accounts get read-only access to the unit.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// ValidRole reports whether r is a known account role.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleStaff
}

// User represents the users table: hospital staff accounts for the
// allocation backend, not patients or doctors.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:50" json:"username"`
	FullName     string    `gorm:"size:100" json:"full_name,omitempty"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	Role         string    `gorm:"type:enum('admin','staff');default:'staff'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// RefreshToken represents the refresh_tokens table. Only the SHA-256
// hash of a token is stored; the token itself lives in an HttpOnly
// cookie on the client.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TokenHash string    `gorm:"not null;size:255;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
