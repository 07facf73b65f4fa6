package database

import (
	"github.com/google/uuid"

	"github.com/cognition-bio/cognition/config"
	"github.com/cognition-bio/cognition/models"
)

// CreateSession opens a login session for the user and returns it.
func CreateSession(userID int) (*models.Session, error) {
	session := models.Session{
		Token:  uuid.New().String(),
		UserID: userID,
	}

	result := config.DB.Create(&session)
	if result.Error != nil {
		return nil, result.Error
	}

	return &session, nil
}

// ValidateSession returns the session matching the token, or an error
// when the token is unknown (revoked or never issued).
func ValidateSession(token string) (*models.Session, error) {
	var session models.Session

	result := config.DB.Where("token = ?", token).First(&session)
	if result.Error != nil {
		return nil, result.Error
	}

	return &session, nil
}

// DeleteSession revokes a login session. Deleting an already-deleted
// token is not an error.
func DeleteSession(token string) error {
	result := config.DB.Where("token = ?", token).Delete(&models.Session{})
	return result.Error
}
