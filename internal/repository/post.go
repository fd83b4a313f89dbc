package repository

import (
	"context"

	"scribe/internal/feed"
	"scribe/internal/models"
	"scribe/internal/observability"

	"gorm.io/gorm"
)

// PostFilter narrows a feed query. Zero values mean "no restriction".
type PostFilter struct {
	GroupID    uint
	AuthorID   uint
	FollowerID uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
	Page(ctx context.Context, filter PostFilter, rawPage string, perPage int) (*feed.Page[models.Post], error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func withPostRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Group")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("get_by_id", "posts")()
	var post models.Post
	if err := withPostRelations(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, lookupError(err, "post", id)
	}
	return &post, nil
}

// Update writes the editable columns of post. Authorship and creation time never change.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()
	res := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("post", post.ID)
	}
	return nil
}

// Delete removes the post and its comments atomically.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("post", id)
		}
		return nil
	})
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Page returns one newest-first window of the posts matching filter.
func (r *postRepository) Page(ctx context.Context, filter PostFilter, rawPage string, perPage int) (*feed.Page[models.Post], error) {
	defer observability.TrackQuery("page", "posts")()
	query := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.GroupID != 0 {
		query = query.Where("posts.group_id = ?", filter.GroupID)
	}
	if filter.AuthorID != 0 {
		query = query.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.FollowerID != 0 {
		query = query.Where("posts.author_id IN (?)",
			r.db.WithContext(ctx).Model(&models.Follow{}).Select("author_id").Where("user_id = ?", filter.FollowerID))
	}
	query = query.Order("posts.created_at DESC").Order("posts.id DESC")

	page, err := feed.Paginate[models.Post](ctx, query, rawPage, perPage, withPostRelations)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return page, nil
}
