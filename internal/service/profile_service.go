package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"levelup/internal/domain"
	"levelup/internal/repository"
	"levelup/internal/storage"
)

// ProfileService updates a user's display name and avatar image.
type ProfileService interface {
	UpdateName(ctx context.Context, ownerID int64, name string) (*domain.User, error)
	UpdateImage(ctx context.Context, ownerID int64, filename string, file io.Reader) (*domain.User, error)
}

type profileService struct {
	users       repository.UserRepository
	store       storage.Service
	allowedExts map[string]struct{}
}

func NewProfileService(users repository.UserRepository, store storage.Service, allowedExts []string) ProfileService {
	allowed := make(map[string]struct{}, len(allowedExts))
	for _, ext := range allowedExts {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &profileService{
		users:       users,
		store:       store,
		allowedExts: allowed,
	}
}

func (s *profileService) UpdateName(ctx context.Context, ownerID int64, name string) (*domain.User, error) {
	if ownerID == 0 {
		return nil, ErrNotAuthenticated
	}
	name = foldUsername(name)
	if name == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}

	// Renames honor the same uniqueness rule as registration.
	if existing, err := s.users.GetByUsername(ctx, name); err == nil {
		if existing.ID != ownerID {
			return nil, ErrUserAlreadyExists
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.users.UpdateName(ctx, ownerID, name); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrUserAlreadyExists
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *profileService) UpdateImage(ctx context.Context, ownerID int64, filename string, file io.Reader) (*domain.User, error) {
	if ownerID == 0 {
		return nil, ErrNotAuthenticated
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := s.allowedExts[ext]; !ok {
		return nil, fmt.Errorf("%w: .%s", ErrInvalidFormat, ext)
	}

	// Client filenames are never trusted; the stored key is a fresh uuid.
	key := uuid.NewString() + "." + ext
	contentType := mime.TypeByExtension("." + ext)

	if _, err := s.store.Save(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	if err := s.users.UpdateProfileImage(ctx, ownerID, key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}
