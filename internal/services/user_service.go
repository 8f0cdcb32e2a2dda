package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

func findLink(db *gorm.DB, externalID string) (*models.IdentityLink, error) {
	var link models.IdentityLink
	if err := db.Where("clerk_user_id = ?", externalID).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func displayName(identity Identity) string {
	name := strings.TrimSpace(identity.FirstName + " " + identity.LastName)
	if name == "" {
		return "Usuario"
	}
	return name
}

// ResolveAccount returns the local user id for an external identity,
// creating the user and its link on first sight.
func (s *userService) ResolveAccount(ctx context.Context, identity Identity) (string, error) {
	if identity.ExternalID == "" {
		return "", apperrors.ErrUnauthorized
	}
	db := s.db.WithContext(ctx)

	link, err := findLink(db, identity.ExternalID)
	if err == nil {
		return link.UserID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var userID string
	err = db.Transaction(func(tx *gorm.DB) error {
		existing, err := findLink(tx, identity.ExternalID)
		if err == nil {
			userID = existing.UserID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user := &models.User{Name: displayName(identity), Role: models.RoleFree}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		link := &models.IdentityLink{
			ExternalID: identity.ExternalID,
			UserID:     user.ID,
			Email:      identity.Email,
			FirstName:  identity.FirstName,
			LastName:   identity.LastName,
		}
		if err := tx.Create(link).Error; err != nil {
			return err
		}
		userID = user.ID
		logger.Get().Infow("mapped new identity", "clerk_user_id", identity.ExternalID, "user_id", user.ID)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if link, lookupErr := findLink(db, identity.ExternalID); lookupErr == nil {
				return link.UserID, nil
			}
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return userID, nil
}

// GetUserByID returns a user by ID.
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetProfile returns the user together with its identity details.
func (s *userService) GetProfile(id string) (*Profile, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: *user}
	var link models.IdentityLink
	err = s.db.Where("user_id = ?", id).Order("created_at ASC").First(&link).Error
	switch {
	case err == nil:
		profile.ExternalID = link.ExternalID
		profile.Email = link.Email
		profile.FirstName = link.FirstName
		profile.LastName = link.LastName
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return profile, nil
}
