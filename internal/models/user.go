package models

import (
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	Name      string
	Nickname  string
	Sub       string `gorm:"index"` // Subject identifier shared with sibling applications
	Password  string `gorm:"not null" json:"-"`
	Role      string `gorm:"default:'employee'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HashPassword replaces the plain password with its bcrypt hash.
func (u *User) HashPassword() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword compares password against the stored hash in constant time.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Identifier is the string form of the primary key, used as the token user id.
func (u *User) Identifier() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

// Subject returns the sub claim, falling back to the identifier.
func (u *User) Subject() string {
	if u.Sub != "" {
		return u.Sub
	}
	return u.Identifier()
}
