package service

import (
	"context"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/store"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type ProfileService struct {
	Store store.Store
}

// ProfilePage is one page of the admin listing.
type ProfilePage struct {
	Profiles []domain.Profile
	Total    int64
	Limit    int
	Offset   int
}

// List pages through profiles, clamping limit to [1, MaxPageSize].
func (s *ProfileService) List(ctx context.Context, limit, offset int) (ProfilePage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	profiles, err := s.Store.Profiles().ListProfiles(ctx, limit, offset)
	if err != nil {
		return ProfilePage{}, err
	}
	total, err := s.Store.Profiles().CountProfiles(ctx)
	if err != nil {
		return ProfilePage{}, err
	}
	return ProfilePage{Profiles: profiles, Total: total, Limit: limit, Offset: offset}, nil
}

// Get returns store.ErrNotFound for users that were never provisioned.
func (s *ProfileService) Get(ctx context.Context, userID string) (domain.Profile, error) {
	return s.Store.Profiles().GetProfileByUserID(ctx, userID)
}
