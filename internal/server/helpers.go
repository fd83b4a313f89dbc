package server

import (
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"

	"scribe/internal/forms"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// parseID extracts a positive numeric route parameter. Anything else is a 404,
// the same as an id that does not exist.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// formValues collects the named fields of a urlencoded or multipart body.
func formValues(c *fiber.Ctx, fields ...string) forms.Values {
	values := make(forms.Values, len(fields))
	for _, field := range fields {
		values[field] = c.FormValue(field)
	}
	return values
}

// formUpload reads an optional file field. A missing field, a non-multipart
// body and an empty file input all yield nil. A multipart body that does not
// parse is a 400.
func formUpload(c *fiber.Ctx, field string) (*forms.Upload, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, fasthttp.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "malformed multipart body")
	}
	if fh.Size == 0 {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &forms.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

func redirectToPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}

func redirectToProfile(c *fiber.Ctx) error {
	return c.Redirect(profileURL(c.Params("username")), fiber.StatusFound)
}
