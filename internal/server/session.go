package server

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scribe/internal/middleware"
	"scribe/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookie   = "scribe_session"
	tokenIssuer     = "scribe"
	tokenAudience   = "scribe-web"
	sessionLifetime = 7 * 24 * time.Hour
	loginPath       = "/auth/login/"
)

// generateToken signs a session token for user.
func (s *Server) generateToken(user *models.User) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionLifetime)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
}

// parseToken validates a session token and returns the user id it was issued for.
func (s *Server) parseToken(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(s.config.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return 0, errors.New("invalid subject claim")
	}
	return uint(userID), nil
}

func sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(sessionCookie); token != "" {
		return token
	}
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// SessionMiddleware identifies the requesting user from the session cookie
// or a Bearer token. Anonymous requests pass through untouched.
func (s *Server) SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			return c.Next()
		}
		userID, err := s.parseToken(token)
		if err != nil {
			middleware.Logger.DebugContext(c.UserContext(), "ignoring invalid session", "error", err)
			s.clearSession(c)
			return c.Next()
		}
		c.Locals("userID", userID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

// LoginRequired sends anonymous visitors to the login page, remembering
// where they were going.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.viewer(c) == nil {
			return c.Redirect(loginURL(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}

func loginURL(next string) string {
	return loginPath + "?next=" + url.QueryEscape(next)
}

// viewer returns the authenticated user or nil. The account is loaded once per request.
func (s *Server) viewer(c *fiber.Ctx) *models.User {
	if u, ok := c.Locals("viewer").(*models.User); ok {
		return u
	}
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return nil
	}
	user, err := s.userService.GetByID(c.UserContext(), userID)
	if err != nil {
		if !models.HasCode(err, models.CodeNotFound) {
			middleware.Logger.ErrorContext(c.UserContext(), "failed to load session user", "error", err)
		}
		s.clearSession(c)
		c.Locals("userID", nil)
		return nil
	}
	c.Locals("viewer", user)
	return user
}

func (s *Server) viewerID(c *fiber.Ctx) uint {
	if u := s.viewer(c); u != nil {
		return u.ID
	}
	return 0
}

func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	token, err := s.generateToken(user)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(sessionLifetime),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// safeNext accepts only local absolute paths as redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}
