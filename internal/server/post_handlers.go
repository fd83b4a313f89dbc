package server

import (
	"errors"

	"scribe/internal/forms"
	"scribe/internal/models"
	"scribe/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index renders the home feed. The page is cached for every visitor alike,
// so it is rendered without viewer-specific fragments.
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.postService.Index(c.UserContext(), c.Query("page"))
	if err != nil {
		return err
	}
	return c.Render("posts/index", fiber.Map{"Page": page})
}

// GroupPosts renders the feed of one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.postService.GroupFeed(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}
	return c.Render("posts/group", fiber.Map{
		"Group":  group,
		"Page":   page,
		"Viewer": s.viewer(c),
	})
}

// Profile renders an author's posts together with follow state.
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, page, err := s.postService.ProfileFeed(ctx, c.Params("username"), c.Query("page"))
	if err != nil {
		return err
	}
	viewer := s.viewer(c)
	following, err := s.followService.IsFollowing(ctx, s.viewerID(c), author.ID)
	if err != nil {
		return err
	}
	stats, err := s.followService.Stats(ctx, author.ID)
	if err != nil {
		return err
	}
	return c.Render("users/profile", fiber.Map{
		"Author":    author,
		"Page":      page,
		"Stats":     stats,
		"Following": following,
		"Viewer":    viewer,
	})
}

// PostDetail renders a post with its comments.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	detail, err := s.postService.Detail(c.UserContext(), id)
	if err != nil {
		return err
	}
	viewer := s.viewer(c)
	return c.Render("posts/detail", fiber.Map{
		"Post":            detail.Post,
		"Comments":        detail.Comments,
		"AuthorPostCount": detail.AuthorPostCount,
		"CanEdit":         viewer != nil && detail.Post.IsAuthoredBy(viewer.ID),
		"Viewer":          viewer,
	})
}

// FollowIndex renders posts by every author the viewer follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.postService.FollowFeed(c.UserContext(), s.viewerID(c), c.Query("page"))
	if err != nil {
		return err
	}
	return c.Render("posts/follow", fiber.Map{"Page": page, "Viewer": s.viewer(c)})
}

func (s *Server) NewPostPage(c *fiber.Ctx) error {
	return s.renderPostForm(c, fiber.StatusOK, forms.NewPostForm(forms.Values{}, nil), "/create/", false)
}

// CreatePost stores a new post and sends the author to their profile.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	viewer := s.viewer(c)
	values := formValues(c, "text", "group")
	upload, err := formUpload(c, "image")
	if err != nil {
		return err
	}

	_, err = s.postService.Create(c.UserContext(), service.CreatePostInput{
		AuthorID: viewer.ID,
		Values:   values,
		Image:    upload,
	})
	var formErr *service.FormError
	if errors.As(err, &formErr) {
		form := forms.NewPostForm(values, upload)
		form.Errors = formErr.Errors
		return s.renderPostForm(c, fiber.StatusOK, form, "/create/", false)
	}
	if err != nil {
		return err
	}
	return c.Redirect(profileURL(viewer.Username), fiber.StatusFound)
}

// EditPostPage shows the edit form to the author. Anyone else is sent back
// to the post.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !post.IsAuthoredBy(s.viewerID(c)) {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}
	return s.renderPostForm(c, fiber.StatusOK, forms.PostFormFrom(post), editURL(post.ID), true)
}

func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	values := formValues(c, "text", "group")
	upload, err := formUpload(c, "image")
	if err != nil {
		return err
	}

	post, err := s.postService.Update(c.UserContext(), service.UpdatePostInput{
		ActorID: s.viewerID(c),
		PostID:  id,
		Values:  values,
		Image:   upload,
	})
	var formErr *service.FormError
	switch {
	case errors.Is(err, service.ErrNotAuthor):
		return c.Redirect(postURL(id), fiber.StatusFound)
	case errors.As(err, &formErr):
		form := forms.NewPostForm(values, upload)
		form.Errors = formErr.Errors
		return s.renderPostForm(c, fiber.StatusOK, form, editURL(id), true)
	case err != nil:
		return err
	}
	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}

// DeletePost removes the post and its comments. Non-authors are silently
// sent back to the post.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	viewer := s.viewer(c)
	_, err = s.postService.Delete(c.UserContext(), id, viewer.ID)
	if errors.Is(err, service.ErrNotAuthor) {
		return c.Redirect(postURL(id), fiber.StatusFound)
	}
	if err != nil {
		return err
	}
	return c.Redirect(profileURL(viewer.Username), fiber.StatusFound)
}

// AddComment attaches a comment to a post. An empty comment is dropped
// without a message.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	_, err = s.commentService.Add(c.UserContext(), service.AddCommentInput{
		PostID:   id,
		AuthorID: s.viewerID(c),
		Values:   formValues(c, "text"),
	})
	var formErr *service.FormError
	if err != nil && !errors.As(err, &formErr) {
		return err
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}

func (s *Server) renderPostForm(c *fiber.Ctx, status int, form *forms.PostForm, action string, isEdit bool) error {
	groups, err := s.groupService.List(c.UserContext())
	if err != nil {
		return err
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return c.Status(status).Render("posts/form", fiber.Map{
		"Form":   form,
		"Groups": groups,
		"Action": action,
		"IsEdit": isEdit,
		"Viewer": s.viewer(c),
	})
}

func editURL(id uint) string {
	return postURL(id) + "edit/"
}
