package service

import (
	"context"

	"scribe/internal/feed"
	"scribe/internal/forms"
	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/observability"
	"scribe/internal/repository"
)

// ImageStore prepares and persists post images.
type ImageStore interface {
	Prepare(up *forms.Upload) (*PreparedImage, error)
	Save(ctx context.Context, img *PreparedImage) (string, error)
}

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	images      ImageStore
	perPage     int
}

type CreatePostInput struct {
	AuthorID uint
	Values   forms.Values
	Image    *forms.Upload
}

type UpdatePostInput struct {
	ActorID uint
	PostID  uint
	Values  forms.Values
	Image   *forms.Upload
}

// PostDetail is everything the post page shows.
type PostDetail struct {
	Post            *models.Post
	Comments        []models.Comment
	AuthorPostCount int64
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	images ImageStore,
	perPage int,
) *PostService {
	if perPage <= 0 {
		perPage = feed.DefaultPageSize
	}
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		images:      images,
		perPage:     perPage,
	}
}

// Create validates the submission and stores a post owned by the author.
// Field problems are returned as *FormError and nothing is written.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "Create")
	defer func() { observability.EndSpan(span, err) }()

	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	post = &models.Post{}
	if err := s.bind(ctx, post, in.Values, in.Image); err != nil {
		return nil, err
	}
	authorID := in.AuthorID
	post.AuthorID = &authorID
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("post").Inc()
	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.ID)
	return post, nil
}

// Update rewrites the text, group and optionally the image of a post.
// Only the author may do so; everyone else gets ErrNotAuthor.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "Update")
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthoredBy(in.ActorID) {
		return post, ErrNotAuthor
	}

	staged := *post
	if err := s.bind(ctx, &staged, in.Values, in.Image); err != nil {
		return post, err
	}
	if err := s.postRepo.Update(ctx, &staged); err != nil {
		return post, err
	}
	return &staged, nil
}

// Delete removes a post and its comments. Only the author may do so.
func (s *PostService) Delete(ctx context.Context, postID, actorID uint) (_ *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "Delete")
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthoredBy(actorID) {
		return post, ErrNotAuthor
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return post, err
	}
	middleware.Logger.InfoContext(ctx, "post deleted", "post_id", postID)
	return post, nil
}

func (s *PostService) Get(ctx context.Context, postID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

// Detail loads a post with its comments and the number of posts by its author.
func (s *PostService) Detail(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	detail := &PostDetail{Post: post, Comments: comments}
	if post.AuthorID != nil {
		if detail.AuthorPostCount, err = s.postRepo.CountByAuthor(ctx, *post.AuthorID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// Index is the site-wide feed.
func (s *PostService) Index(ctx context.Context, page string) (*feed.Page[models.Post], error) {
	return s.postRepo.Page(ctx, repository.PostFilter{}, page, s.perPage)
}

// GroupFeed is the feed of one group, looked up by slug.
func (s *PostService) GroupFeed(ctx context.Context, slug, page string) (*models.Group, *feed.Page[models.Post], error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.postRepo.Page(ctx, repository.PostFilter{GroupID: group.ID}, page, s.perPage)
	if err != nil {
		return nil, nil, err
	}
	return group, posts, nil
}

// ProfileFeed is the feed of one author, looked up by username.
func (s *PostService) ProfileFeed(ctx context.Context, username, page string) (*models.User, *feed.Page[models.Post], error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.postRepo.Page(ctx, repository.PostFilter{AuthorID: author.ID}, page, s.perPage)
	if err != nil {
		return nil, nil, err
	}
	return author, posts, nil
}

// FollowFeed holds the posts of every author the viewer follows.
func (s *PostService) FollowFeed(ctx context.Context, viewerID uint, page string) (*feed.Page[models.Post], error) {
	if viewerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.postRepo.Page(ctx, repository.PostFilter{FollowerID: viewerID}, page, s.perPage)
}

// bind maps the submission onto post. The image is only written once every
// field is valid.
func (s *PostService) bind(ctx context.Context, post *models.Post, values forms.Values, upload *forms.Upload) error {
	errs, err := forms.PostSchema(s.groupRepo).Bind(ctx, values, post)
	if err != nil {
		return err
	}

	var prepared *PreparedImage
	if !upload.Empty() && s.images != nil {
		prepared, err = s.images.Prepare(upload)
		if err != nil {
			if !models.HasCode(err, models.CodeValidation) {
				return err
			}
			errs.Add("image", appMessage(err))
		}
	}
	if err := formError(errs); err != nil {
		return err
	}

	if prepared != nil {
		name, err := s.images.Save(ctx, prepared)
		if err != nil {
			return err
		}
		post.Image = name
	}
	return nil
}
