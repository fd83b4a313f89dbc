package server

import (
	"errors"

	"scribe/internal/middleware"
	"scribe/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders 404 and 5xx pages; other statuses get a plain body.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := models.HTTPStatus(err)
	message := err.Error()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	}

	ctx := c.UserContext()
	switch {
	case status == fiber.StatusNotFound:
		c.Status(status)
		if rerr := c.Render("core/404", fiber.Map{"Path": c.Path(), "Viewer": s.viewer(c)}); rerr == nil {
			return nil
		}
		return c.SendString("Not Found")
	case status >= fiber.StatusInternalServerError:
		middleware.Logger.ErrorContext(ctx, "request failed",
			"error", err, "method", c.Method(), "path", c.Path())
		c.Status(status)
		requestID, _ := c.Locals("requestid").(string)
		if rerr := c.Render("core/500", fiber.Map{"RequestID": requestID}); rerr == nil {
			return nil
		}
		return c.SendString("Internal Server Error")
	default:
		return c.Status(status).SendString(message)
	}
}
