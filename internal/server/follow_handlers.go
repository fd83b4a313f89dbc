package server

import (
	"errors"

	"scribe/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FollowAuthor subscribes the viewer to an author. Following yourself is
// ignored and still lands on the profile.
func (s *Server) FollowAuthor(c *fiber.Ctx) error {
	username := c.Params("username")
	_, err := s.followService.Follow(c.UserContext(), s.viewerID(c), username)
	if err != nil && !errors.Is(err, service.ErrSelfFollow) {
		return err
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}

func (s *Server) UnfollowAuthor(c *fiber.Ctx) error {
	username := c.Params("username")
	if _, err := s.followService.Unfollow(c.UserContext(), s.viewerID(c), username); err != nil {
		return err
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}
