package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"gophercalc/internal/model"
	"gophercalc/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	users  UserStore
	logger *logrus.Logger
}

// UpdateUserInput carries the fields to change. Empty fields keep
// their current value.
type UpdateUserInput struct {
	Username string
	Email    string
	Password string
}

func NewUserService(users UserStore, logger *logrus.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]model.User, error) {
	return s.users.List(ctx, offset, limit)
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	username := strings.TrimSpace(input.Username)
	if username != "" && username != user.Username {
		existing, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != user.ID {
			return nil, ErrUsernameExists
		}
		user.Username = username
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email != "" && email != user.Email {
		existing, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != user.ID {
			return nil, ErrEmailExists
		}
		user.Email = email
	}

	if input.Password != "" {
		if len(input.Password) < 8 {
			return nil, ErrInvalidInput
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password failed: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// The pre-checks raced a concurrent write; re-read to
			// attribute the conflict to the right column.
			if existing, lookupErr := s.users.GetByUsername(ctx, user.Username); lookupErr == nil && existing != nil && existing.ID != user.ID {
				return nil, ErrUsernameExists
			}
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("user updated")
	return user, nil
}

// Delete removes the user and returns the deleted username for the
// confirmation message.
func (s *UserService) Delete(ctx context.Context, id uint) (string, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	if err := s.users.Delete(ctx, user); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user deleted")
	return user.Username, nil
}
