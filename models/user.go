package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is a dashboard account. Credentials are verified locally; the
// HPC password is never stored here, it only lives inside an active
// remote session.
type User struct {
	gorm.Model
	Username     string `gorm:"unique" json:"username"`
	PasswordHash string `json:"-"`
	Admin        bool   `gorm:"default:false" json:"admin"`
}

func (user *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedPassword)
	return nil
}

func (user *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}
