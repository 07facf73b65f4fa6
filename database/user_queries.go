package database

import (
	"github.com/cognition-bio/cognition/config"
	"github.com/cognition-bio/cognition/models"
)

// GetUserByUsername returns the user with the given username.
func GetUserByUsername(username string) (*models.User, error) {
	var user models.User

	result := config.DB.Where("username = ?", username).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}

// GetUserByID returns the user with the given id.
func GetUserByID(userID int) (*models.User, error) {
	var user models.User

	result := config.DB.Where("id = ?", userID).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}
