package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"scribe/internal/models"
	"scribe/internal/repository"
)

const (
	maxGroupTitleLen = 200
	maxGroupSlugLen  = 50
)

var groupSlugRegex = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

type GroupService struct {
	groupRepo repository.GroupRepository
}

type CreateGroupInput struct {
	Title       string
	Slug        string
	Description string
}

func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

func (s *GroupService) Create(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	title := strings.TrimSpace(in.Title)
	slug := strings.TrimSpace(in.Slug)

	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxGroupTitleLen {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if len(slug) > maxGroupSlugLen {
		return nil, models.NewValidationError("Slug too long (max 50 characters)")
	}
	if !groupSlugRegex.MatchString(slug) {
		return nil, models.NewValidationError("Slug must contain lowercase letters, digits, hyphens or underscores")
	}

	group := &models.Group{Title: title, Slug: slug, Description: strings.TrimSpace(in.Description)}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.groupRepo.GetBySlug(ctx, slug)
}

// Delete removes the group; its posts stay without a group.
func (s *GroupService) Delete(ctx context.Context, slug string) (*models.Group, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.groupRepo.Delete(ctx, group.ID); err != nil {
		return nil, err
	}
	return group, nil
}
