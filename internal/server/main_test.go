package server

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"scribe/internal/config"
	"scribe/internal/models"
	"scribe/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t   *testing.T
	db  *gorm.DB
	srv *Server
	app *fiber.App
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret",
		Env:               "test",
		PostsPerPage:      10,
		IndexCacheSeconds: 20,
		MediaRoot:         t.TempDir(),
	}
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithRedis(t, nil)
}

func newTestEnvWithRedis(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	srv, err := NewServerWithDeps(testConfig(t), db, rdb)
	require.NoError(t, err)
	return &testEnv{t: t, db: db, srv: srv, app: srv.NewApp()}
}

// sessionFor returns a Cookie header value logging user in.
func (e *testEnv) sessionFor(user *models.User) string {
	e.t.Helper()
	token, err := e.srv.generateToken(user)
	require.NoError(e.t, err)
	return sessionCookie + "=" + token
}

func (e *testEnv) do(req *http.Request, cookie string) *http.Response {
	e.t.Helper()
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func (e *testEnv) get(path, cookie string) *http.Response {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), cookie)
}

func (e *testEnv) postForm(path string, form url.Values, cookie string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, cookie)
}

func (e *testEnv) postMultipart(path string, fields map[string]string, file string, content []byte, cookie string) *http.Response {
	e.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, w.WriteField(k, v))
	}
	if file != "" {
		part, err := w.CreateFormFile("image", file)
		require.NoError(e.t, err)
		_, err = part.Write(content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(req, cookie)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
