package service

import (
	"context"

	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/observability"
	"scribe/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// FollowStats are the edge counts shown on a profile.
type FollowStats struct {
	Followers int64
	Following int64
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow subscribes followerID to the author named username and returns the
// author. Following an already followed author is a no-op; following
// yourself returns ErrSelfFollow.
func (s *FollowService) Follow(ctx context.Context, followerID uint, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == followerID {
		return author, ErrSelfFollow
	}
	created, err := s.followRepo.Create(ctx, followerID, author.ID)
	if err != nil {
		return author, err
	}
	if created {
		observability.ContentCreated.WithLabelValues("follow").Inc()
		middleware.Logger.InfoContext(ctx, "author followed", "author_id", author.ID)
	}
	return author, nil
}

// Unfollow removes the subscription if it exists.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if _, err := s.followRepo.Delete(ctx, followerID, author.ID); err != nil {
		return author, err
	}
	return author, nil
}

// IsFollowing reports whether viewerID follows authorID. Anonymous viewers follow nobody.
func (s *FollowService) IsFollowing(ctx context.Context, viewerID, authorID uint) (bool, error) {
	if viewerID == 0 || viewerID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, viewerID, authorID)
}

func (s *FollowService) Stats(ctx context.Context, userID uint) (FollowStats, error) {
	var stats FollowStats
	var err error
	if stats.Followers, err = s.followRepo.CountFollowers(ctx, userID); err != nil {
		return stats, err
	}
	if stats.Following, err = s.followRepo.CountFollowing(ctx, userID); err != nil {
		return stats, err
	}
	return stats, nil
}
