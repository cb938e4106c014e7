package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luminalab/lumina/backend/internal/auth"
	"github.com/luminalab/lumina/backend/internal/ident"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("users: email already registered")
	ErrInvalidCredentials = errors.New("users: incorrect email or password")
	ErrUserNotFound       = errors.New("users: user not found")
	ErrSelfFollow         = errors.New("users: cannot follow yourself")
)

// ServiceConfig describes the dependencies required by the account service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ident.Provider
}

// Service manages accounts and follow relationships.
type Service struct {
	db  *gorm.DB
	now func() time.Time
	ids ident.Provider
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = ident.NewUUIDProvider()
	}
	return &Service{db: cfg.Database, now: clock, ids: ids}, nil
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	var existing User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	id, err := s.ids.NewID()
	if err != nil {
		return err
	}

	user := User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	return s.db.WithContext(ctx).Create(&user).Error
}

// Authenticate verifies the credentials and returns the matching account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ByID fetches a single account.
func (s *Service) ByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ByIDs fetches accounts keyed by identifier, for populating feed entries.
func (s *Service) ByIDs(ctx context.Context, userIDs []string) (map[string]User, error) {
	result := make(map[string]User, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	var accounts []User
	if err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&accounts).Error; err != nil {
		return nil, err
	}
	for _, account := range accounts {
		result[account.ID] = account
	}
	return result, nil
}

// ProfileUpdate carries the optional fields of a profile edit.
type ProfileUpdate struct {
	Bio        string
	Gender     string
	PictureURL string
}

// UpdateProfile applies the non-empty fields and returns the updated account.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (User, error) {
	_, err := s.ByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	changes := map[string]interface{}{}
	if bio := strings.TrimSpace(update.Bio); bio != "" {
		changes["bio"] = bio
	}
	if gender := strings.TrimSpace(update.Gender); gender != "" {
		changes["gender"] = gender
	}
	if update.PictureURL != "" {
		changes["profile_picture"] = update.PictureURL
	}
	if len(changes) > 0 {
		if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(changes).Error; err != nil {
			return User{}, err
		}
	}
	return s.ByID(ctx, userID)
}

// Suggested returns every account except the caller's own.
func (s *Service) Suggested(ctx context.Context, selfID string) ([]User, error) {
	var accounts []User
	err := s.db.WithContext(ctx).Where("id <> ?", selfID).Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// ToggleFollowResult reports the outcome of a follow toggle.
type ToggleFollowResult struct {
	Following     bool
	FollowerCount int64
}

// ToggleFollow follows the target when no edge exists and unfollows when one
// does. Both directions of the relationship live in a single row, and the
// check-then-write runs inside a transaction, so concurrent toggles cannot
// leave the pair half-linked.
func (s *Service) ToggleFollow(ctx context.Context, followerID, targetID string) (ToggleFollowResult, error) {
	if followerID == targetID {
		return ToggleFollowResult{}, ErrSelfFollow
	}

	result := ToggleFollowResult{}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("id IN ?", []string{followerID, targetID}).Count(&count).Error; err != nil {
			return err
		}
		if count != 2 {
			return ErrUserNotFound
		}

		var edge FollowEdge
		err := tx.Where("follower_id = ? AND followee_id = ?", followerID, targetID).First(&edge).Error
		switch {
		case err == nil:
			if err := tx.Delete(&FollowEdge{}, "follower_id = ? AND followee_id = ?", followerID, targetID).Error; err != nil {
				return err
			}
			result.Following = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			edge = FollowEdge{FollowerID: followerID, FolloweeID: targetID, CreatedAt: s.now().UTC()}
			if err := tx.Create(&edge).Error; err != nil {
				return err
			}
			result.Following = true
		default:
			return err
		}

		return tx.Model(&FollowEdge{}).Where("followee_id = ?", targetID).Count(&result.FollowerCount).Error
	})
	if txErr != nil {
		return ToggleFollowResult{}, txErr
	}
	return result, nil
}

// FollowerIDs lists the identifiers of accounts following userID.
func (s *Service) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := s.db.WithContext(ctx).
		Model(&FollowEdge{}).
		Where("followee_id = ?", userID).
		Order("created_at ASC").
		Pluck("follower_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FollowingIDs lists the identifiers of accounts userID follows.
func (s *Service) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := s.db.WithContext(ctx).
		Model(&FollowEdge{}).
		Where("follower_id = ?", userID).
		Order("created_at ASC").
		Pluck("followee_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
