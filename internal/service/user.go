package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tastebook-backend/internal/models"
)

type UserService struct {
	db     *gorm.DB
	images *ImageService
}

func NewUserService(db *gorm.DB, images *ImageService) *UserService {
	return &UserService{
		db:     db,
		images: images,
	}
}

func (s *UserService) Get(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns a page of users ordered by username, plus the total count.
func (s *UserService) List(limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.db.Order("username").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

// SetAvatar stores a base64 data-URI avatar and returns the stored path.
// Any previous avatar file is removed.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error) {
	user, err := s.Get(userID)
	if err != nil {
		return "", err
	}

	path, err := s.images.SaveDataURI(ctx, dataURI, "users/avatars")
	if err != nil {
		return "", err
	}

	old := user.Avatar
	if err := s.db.Model(user).Update("avatar", path).Error; err != nil {
		return "", err
	}
	_ = s.images.Delete(old)

	return path, nil
}

func (s *UserService) DeleteAvatar(userID uint) error {
	user, err := s.Get(userID)
	if err != nil {
		return err
	}

	old := user.Avatar
	if err := s.db.Model(user).Update("avatar", "").Error; err != nil {
		return err
	}
	return s.images.Delete(old)
}

// Subscribe adds a subscription from userID to authorID and returns the
// author. Self-subscription is rejected before the existence check.
func (s *UserService) Subscribe(userID, authorID uint) (*models.User, error) {
	if userID == authorID {
		return nil, validationError("cannot subscribe to yourself")
	}

	author, err := s.Get(authorID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Subscription
		err := tx.Where("user_id = ? AND author_id = ?", userID, authorID).First(&existing).Error
		if err == nil {
			return validationError("already subscribed to this author")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&models.Subscription{UserID: userID, AuthorID: authorID}).Error
	})
	if err != nil {
		return nil, err
	}

	return author, nil
}

func (s *UserService) Unsubscribe(userID, authorID uint) error {
	if _, err := s.Get(authorID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Subscription
		err := tx.Where("user_id = ? AND author_id = ?", userID, authorID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationError("not subscribed to this author")
		}
		if err != nil {
			return err
		}
		return tx.Delete(&existing).Error
	})
}

// Subscriptions returns the authors the user follows, ordered by username.
func (s *UserService) Subscriptions(userID uint, limit, offset int) ([]models.User, int64, error) {
	base := s.db.Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err := base.Order("users.username").Limit(limit).Offset(offset).Find(&authors).Error
	return authors, total, err
}

// SubscribedSet reports which of the given author ids the viewer follows.
// Empty for the anonymous viewer.
func (s *UserService) SubscribedSet(viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if viewerID == 0 || len(authorIDs) == 0 {
		return set, nil
	}

	var followed []uint
	err := s.db.Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewerID, authorIDs).
		Pluck("author_id", &followed).Error
	if err != nil {
		return nil, err
	}

	for _, id := range followed {
		set[id] = true
	}
	return set, nil
}

// RecipesByAuthor returns the author's recipes, newest first, optionally
// capped. limit <= 0 means no cap.
func (s *UserService) RecipesByAuthor(authorID uint, limit int) ([]models.Recipe, error) {
	query := s.db.Where("author_id = ?", authorID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var recipes []models.Recipe
	err := query.Find(&recipes).Error
	return recipes, err
}

func (s *UserService) RecipeCount(authorID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Recipe{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}
