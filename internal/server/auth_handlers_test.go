package server

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"scribe/internal/models"
	"scribe/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/auth/signup/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.postForm("/auth/signup/", url.Values{
		"username":  {"reader"},
		"email":     {"reader@example.com"},
		"password1": {"correct-horse"},
		"password2": {"correct-horse"},
	}, "")

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	session := findCookie(resp, sessionCookie)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.User{}))

	resp = env.get("/create/", sessionCookie+"="+session.Value)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignupInvalid(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "taken")

	tests := []struct {
		name string
		form url.Values
	}{
		{name: "password mismatch", form: url.Values{"username": {"reader"}, "password1": {"correct-horse"}, "password2": {"battery-staple"}}},
		{name: "bad username", form: url.Values{"username": {"no spaces"}, "password1": {"correct-horse"}, "password2": {"correct-horse"}}},
		{name: "taken username", form: url.Values{"username": {"taken"}, "password1": {"correct-horse"}, "password2": {"correct-horse"}}},
		{name: "password over 72 bytes", form: url.Values{"username": {"verbose"}, "password1": {strings.Repeat("x", 80)}, "password2": {strings.Repeat("x", 80)}}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			resp := env.postForm("/auth/signup/", tc.form, "")

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Nil(t, findCookie(resp, sessionCookie))
			assert.Contains(t, readBody(t, resp), `class="error"`)
		})
	}
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &models.User{}))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "leo")

	resp := env.get("/auth/login/?next=%2Fcreate%2F", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `value="/create/"`)

	tests := []struct {
		name     string
		next     string
		location string
	}{
		{name: "local next", next: "/follow/", location: "/follow/"},
		{name: "no next", next: "", location: "/"},
		{name: "external next", next: "https://evil.example/", location: "/"},
		{name: "protocol relative next", next: "//evil.example/", location: "/"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			resp := env.postForm("/auth/login/", url.Values{
				"username": {"leo"},
				"password": {"password123"},
				"next":     {tc.next},
			}, "")

			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tc.location, resp.Header.Get("Location"))
			assert.NotNil(t, findCookie(resp, sessionCookie))
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "leo")

	for _, form := range []url.Values{
		{"username": {"leo"}, "password": {"wrong-password"}},
		{"username": {"ghost"}, "password": {"password123"}},
	} {
		resp := env.postForm("/auth/login/", form, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Nil(t, findCookie(resp, sessionCookie))
		assert.Contains(t, readBody(t, resp), "Please enter a correct username and password.")
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")

	resp := env.postForm("/auth/logout/", url.Values{}, env.sessionFor(leo))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "You have been logged out")
	session := findCookie(resp, sessionCookie)
	require.NotNil(t, session)
	assert.Empty(t, session.Value)
}
