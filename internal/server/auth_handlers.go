package server

import (
	"errors"

	"scribe/internal/forms"
	"scribe/internal/middleware"
	"scribe/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) SignupPage(c *fiber.Ctx) error {
	return c.Render("users/signup", fiber.Map{"Values": forms.Values{}, "Errors": forms.Errors{}})
}

// Signup creates an account, logs it in and sends it to the home page.
func (s *Server) Signup(c *fiber.Ctx) error {
	values := formValues(c, "username", "email", "password1", "password2")
	user, err := s.userService.Register(c.UserContext(), values)
	var formErr *service.FormError
	if errors.As(err, &formErr) {
		return c.Render("users/signup", fiber.Map{
			"Values": forms.Values{"username": values["username"], "email": values["email"]},
			"Errors": formErr.Errors,
		})
	}
	if err != nil {
		return err
	}
	if err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) LoginPage(c *fiber.Ctx) error {
	return c.Render("users/login", fiber.Map{
		"Values": forms.Values{},
		"Errors": forms.Errors{},
		"Next":   c.Query("next"),
	})
}

// Login checks the credentials and redirects to next when it is a local path.
func (s *Server) Login(c *fiber.Ctx) error {
	values := formValues(c, "username", "password")
	next := c.FormValue("next", c.Query("next"))
	renderForm := func(errs forms.Errors, message string) error {
		return c.Render("users/login", fiber.Map{
			"Values": forms.Values{"username": values["username"]},
			"Errors": errs,
			"Error":  message,
			"Next":   next,
		})
	}

	creds, errs := forms.BindLogin(values)
	if !errs.Valid() {
		return renderForm(errs, "")
	}
	user, err := s.userService.Authenticate(c.UserContext(), creds.Username, creds.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		middleware.Logger.InfoContext(c.UserContext(), "login failed", "username", creds.Username)
		return renderForm(forms.Errors{}, forms.MsgInvalidLogin)
	}
	if err != nil {
		return err
	}
	if err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect(safeNext(next), fiber.StatusFound)
}

func (s *Server) Logout(c *fiber.Ctx) error {
	s.clearSession(c)
	return c.Render("users/logged_out", fiber.Map{})
}
