package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"scribe/internal/forms"
	"scribe/internal/models"
	"scribe/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostRequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/create/", "")

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=%2Fcreate%2F", resp.Header.Get("Location"))
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	cookie := env.sessionFor(leo)

	resp := env.get("/create/", cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.postForm("/create/", url.Values{"text": {"Hello from the test"}}, cookie)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.Post{}))

	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	assert.Equal(t, "Hello from the test", post.Text)
	require.NotNil(t, post.AuthorID)
	assert.Equal(t, leo.ID, *post.AuthorID)
	assert.Nil(t, post.GroupID)
}

func TestCreatePostWithGroupAndImage(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	group := testutil.CreateGroup(t, env.db, "novels")

	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	resp := env.postMultipart("/create/", map[string]string{
		"text":  "with picture",
		"group": strconv.FormatUint(uint64(group.ID), 10),
	}, "pic.png", buf.Bytes(), env.sessionFor(leo))

	require.Equal(t, http.StatusFound, resp.StatusCode)
	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
	assert.True(t, strings.HasPrefix(post.Image, "posts/"), post.Image)
	_, err := os.Stat(filepath.Join(env.srv.imageService.MediaRoot(), post.Image))
	assert.NoError(t, err)

	resp = env.get("/media/"+post.Image, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreatePostInvalidForm(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	cookie := env.sessionFor(leo)

	tests := []struct {
		name    string
		form    url.Values
		message string
	}{
		{name: "empty text", form: url.Values{"text": {"   "}}, message: forms.MsgEmptyPostText},
		{name: "unknown group", form: url.Values{"text": {"ok"}, "group": {"999"}}, message: forms.MsgInvalidChoice},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			resp := env.postForm("/create/", tc.form, cookie)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), tc.message)
			assert.Equal(t, int64(0), testutil.Count(t, env.db, &models.Post{}))
		})
	}
}

func TestCreatePostRejectsMalformedMultipart(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")

	req := httptest.NewRequest(http.MethodPost, "/create/", strings.NewReader("not a multipart body"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	resp := env.do(req, env.sessionFor(leo))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &models.Post{}))
}

func TestEditPost(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	post := testutil.CreatePost(t, env.db, leo, nil, "first draft")
	path := "/posts/" + strconv.FormatUint(uint64(post.ID), 10) + "/edit/"

	resp := env.get(path, env.sessionFor(leo))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "first draft")

	resp = env.postForm(path, url.Values{"text": {"second draft"}}, env.sessionFor(leo))

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.Post{}))

	var stored models.Post
	require.NoError(t, env.db.First(&stored, post.ID).Error)
	assert.Equal(t, "second draft", stored.Text)
}

func TestEditPostByNonAuthorRedirects(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	mia := testutil.CreateUser(t, env.db, "mia")
	post := testutil.CreatePost(t, env.db, leo, nil, "untouched")
	path := "/posts/" + strconv.FormatUint(uint64(post.ID), 10) + "/edit/"

	resp := env.get(path, env.sessionFor(mia))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))

	resp = env.postForm(path, url.Values{"text": {"hijacked"}}, env.sessionFor(mia))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))

	var stored models.Post
	require.NoError(t, env.db.First(&stored, post.ID).Error)
	assert.Equal(t, "untouched", stored.Text)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	mia := testutil.CreateUser(t, env.db, "mia")
	post := testutil.CreatePost(t, env.db, leo, nil, "short lived")
	require.NoError(t, env.db.Create(&models.Comment{PostID: post.ID, AuthorID: mia.ID, Text: "nice"}).Error)
	path := postURL(post.ID) + "delete/"

	resp := env.postForm(path, url.Values{}, env.sessionFor(mia))
	assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.Post{}))

	resp = env.postForm(path, url.Values{}, env.sessionFor(leo))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &models.Post{}))
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &models.Comment{}))
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	post := testutil.CreatePost(t, env.db, leo, nil, "discuss")
	path := postURL(post.ID) + "comment/"

	resp := env.postForm(path, url.Values{"text": {""}}, env.sessionFor(leo))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &models.Comment{}))

	resp = env.postForm(path, url.Values{"text": {"first!"}}, env.sessionFor(leo))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.Comment{}))

	resp = env.get(postURL(post.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "first!")
}

func TestAddCommentRequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	post := testutil.CreatePost(t, env.db, leo, nil, "discuss")

	resp := env.postForm(postURL(post.ID)+"comment/", url.Values{"text": {"hi"}}, "")

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/auth/login/?next="))
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &models.Comment{}))
}

func TestFeedsPaginate(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	group := testutil.CreateGroup(t, env.db, "novels")
	for i := 0; i < 15; i++ {
		testutil.CreatePost(t, env.db, leo, group, "post "+strconv.Itoa(i))
	}

	for _, path := range []string{"/profile/leo/", "/group/novels/"} {
		resp := env.get(path, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, 10, strings.Count(readBody(t, resp), `<article class="post">`), path)

		resp = env.get(path+"?page=2", "")
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		body := readBody(t, resp)
		assert.Equal(t, 5, strings.Count(body, `<article class="post">`), path)
		assert.Contains(t, body, `<span class="current">2</span>`, path)
		assert.Contains(t, body, `<a href="?page=1">1</a>`, path)
	}
}

func TestGroupFeedOnlyShowsGroupPosts(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	novels := testutil.CreateGroup(t, env.db, "novels")
	poems := testutil.CreateGroup(t, env.db, "poems")
	testutil.CreatePost(t, env.db, leo, novels, "a long novel")
	testutil.CreatePost(t, env.db, leo, poems, "a short poem")

	body := readBody(t, env.get("/group/novels/", ""))

	assert.Contains(t, body, "a long novel")
	assert.NotContains(t, body, "a short poem")
}

func TestNotFoundPages(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/posts/999/", "/posts/abc/", "/group/nope/", "/profile/ghost/", "/nowhere/"} {
		resp := env.get(path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Contains(t, readBody(t, resp), "Page not found", path)
	}
}

func TestIndexCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	env := newTestEnvWithRedis(t, rdb)
	leo := testutil.CreateUser(t, env.db, "leo")
	testutil.CreatePost(t, env.db, leo, nil, "already here")

	first := env.get("/", "")
	require.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, "miss", first.Header.Get("X-Cache"))
	firstBody := readBody(t, first)
	assert.Contains(t, firstBody, "already here")

	fresh := testutil.CreatePost(t, env.db, leo, nil, "brand new")
	require.NoError(t, env.db.Delete(&models.Post{}, fresh.ID).Error)
	testutil.CreatePost(t, env.db, leo, nil, "written later")

	second := env.get("/", "")
	assert.Equal(t, "hit", second.Header.Get("X-Cache"))
	assert.Equal(t, firstBody, readBody(t, second))

	require.NoError(t, env.srv.PageCache().Invalidate(context.Background()))

	third := env.get("/", "")
	assert.Equal(t, "miss", third.Header.Get("X-Cache"))
	assert.Contains(t, readBody(t, third), "written later")
}

func TestIndexCacheIgnoresNoCacheRequests(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	env := newTestEnvWithRedis(t, rdb)
	leo := testutil.CreateUser(t, env.db, "leo")
	testutil.CreatePost(t, env.db, leo, nil, "already here")

	firstBody := readBody(t, env.get("/", ""))
	testutil.CreatePost(t, env.db, leo, nil, "written later")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	forced := env.do(req, "")
	assert.Equal(t, "hit", forced.Header.Get("X-Cache"))
	assert.Equal(t, firstBody, readBody(t, forced))

	after := env.get("/", "")
	assert.Equal(t, "hit", after.Header.Get("X-Cache"))
	assert.NotContains(t, readBody(t, after), "written later")
}

func TestIndexIsViewerNeutral(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")

	body := readBody(t, env.get("/", env.sessionFor(leo)))

	assert.NotContains(t, body, "/auth/logout/")
	assert.Contains(t, body, "/auth/login/")
}
