package forms

import (
	"context"
	"errors"
	"strings"
	"testing"

	"scribe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type groupFinderStub struct {
	groups map[uint]*models.Group
	err    error
}

func (s groupFinderStub) GetByID(_ context.Context, id uint) (*models.Group, error) {
	if s.err != nil {
		return nil, s.err
	}
	if g, ok := s.groups[id]; ok {
		return g, nil
	}
	return nil, models.NewNotFoundError("group", id)
}

func TestPostSchema_Bind(t *testing.T) {
	t.Parallel()
	finder := groupFinderStub{groups: map[uint]*models.Group{7: {ID: 7, Title: "Novels", Slug: "novels"}}}

	tests := []struct {
		name      string
		values    Values
		wantErrs  []string
		wantText  string
		wantGroup *uint
	}{
		{name: "text only", values: Values{"text": "hello"}, wantText: "hello"},
		{name: "text is trimmed", values: Values{"text": "  hello \n"}, wantText: "hello"},
		{name: "existing group", values: Values{"text": "hi", "group": "7"}, wantText: "hi", wantGroup: uintPtr(7)},
		{name: "empty text", values: Values{"text": ""}, wantErrs: []string{"text"}},
		{name: "blank text", values: Values{"text": "   "}, wantErrs: []string{"text"}},
		{name: "unknown group", values: Values{"text": "hi", "group": "99"}, wantErrs: []string{"group"}},
		{name: "garbage group", values: Values{"text": "hi", "group": "abc"}, wantErrs: []string{"group"}},
		{name: "both invalid", values: Values{"group": "0"}, wantErrs: []string{"group", "text"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var post models.Post
			errs, err := PostSchema(finder).Bind(context.Background(), tc.values, &post)
			require.NoError(t, err)
			if len(tc.wantErrs) > 0 {
				assert.Equal(t, tc.wantErrs, errs.Fields())
				return
			}
			assert.True(t, errs.Valid())
			assert.Equal(t, tc.wantText, post.Text)
			assert.Equal(t, tc.wantGroup, post.GroupID)
		})
	}
}

func TestPostSchema_EmptyTextMessage(t *testing.T) {
	t.Parallel()
	var post models.Post
	errs, err := PostSchema(groupFinderStub{}).Bind(context.Background(), Values{}, &post)
	require.NoError(t, err)
	assert.Equal(t, MsgEmptyPostText, errs.First("text"))
}

func TestPostSchema_ClearsGroup(t *testing.T) {
	t.Parallel()
	gid := uint(3)
	post := models.Post{Text: "old", GroupID: &gid}
	errs, err := PostSchema(groupFinderStub{}).Bind(context.Background(), Values{"text": "new"}, &post)
	require.NoError(t, err)
	assert.True(t, errs.Valid())
	assert.Nil(t, post.GroupID)
}

func TestPostSchema_LookupFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	var post models.Post
	_, err := PostSchema(groupFinderStub{err: boom}).Bind(context.Background(), Values{"text": "x", "group": "1"}, &post)
	assert.ErrorIs(t, err, boom)
}

func TestCommentSchema_Bind(t *testing.T) {
	t.Parallel()
	var c models.Comment
	errs, err := CommentSchema().Bind(context.Background(), Values{"text": " "}, &c)
	require.NoError(t, err)
	assert.Equal(t, MsgRequired, errs.First("text"))

	errs, err = CommentSchema().Bind(context.Background(), Values{"text": "nice"}, &c)
	require.NoError(t, err)
	assert.True(t, errs.Valid())
	assert.Equal(t, "nice", c.Text)
}

func TestBindSignup(t *testing.T) {
	t.Parallel()
	valid := func() Values {
		return Values{"username": "leo.t", "email": "leo@example.com", "password1": "longenough", "password2": "longenough"}
	}

	tests := []struct {
		name   string
		mutate func(Values)
		field  string
		msg    string
	}{
		{name: "valid", mutate: func(Values) {}},
		{name: "no email", mutate: func(v Values) { delete(v, "email") }},
		{name: "missing username", mutate: func(v Values) { v["username"] = "" }, field: "username", msg: MsgRequired},
		{name: "bad username", mutate: func(v Values) { v["username"] = "leo tolstoy" }, field: "username", msg: MsgInvalidUsername},
		{name: "long username", mutate: func(v Values) { v["username"] = strings.Repeat("a", 151) }, field: "username"},
		{name: "bad email", mutate: func(v Values) { v["email"] = "not-an-email" }, field: "email", msg: MsgInvalidEmail},
		{name: "mismatch", mutate: func(v Values) { v["password2"] = "different1" }, field: "password2", msg: MsgPasswordMismatch},
		{name: "short", mutate: func(v Values) { v["password1"], v["password2"] = "short", "short" }, field: "password2", msg: MsgPasswordTooShort},
		{name: "too long", mutate: func(v Values) { v["password1"], v["password2"] = strings.Repeat("p", 80), strings.Repeat("p", 80) }, field: "password2", msg: MsgPasswordTooLong},
		{name: "72 bytes", mutate: func(v Values) { v["password1"], v["password2"] = strings.Repeat("p", 72), strings.Repeat("p", 72) }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			values := valid()
			tc.mutate(values)
			signup, errs := BindSignup(context.Background(), values)
			if tc.field == "" {
				require.True(t, errs.Valid(), "unexpected errors: %v", errs)
				assert.Equal(t, values["username"], signup.Username)
				assert.Equal(t, values["password1"], signup.Password)
				return
			}
			require.True(t, errs.Has(tc.field), "errors: %v", errs)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, errs.First(tc.field))
			}
		})
	}
}

func TestSignupUser(t *testing.T) {
	t.Parallel()
	u := SignupUser(&Signup{Username: "leo"}, "hash")
	assert.Nil(t, u.Email)
	assert.Equal(t, "hash", u.Password)

	u = SignupUser(&Signup{Username: "leo", Email: "leo@example.com"}, "hash")
	require.NotNil(t, u.Email)
	assert.Equal(t, "leo@example.com", *u.Email)
}

func TestBindLogin(t *testing.T) {
	t.Parallel()
	_, errs := BindLogin(Values{"username": "leo"})
	assert.Equal(t, []string{"password"}, errs.Fields())

	l, errs := BindLogin(Values{"username": "leo", "password": "secret"})
	assert.True(t, errs.Valid())
	assert.Equal(t, "leo", l.Username)
}

func TestPostFormFrom(t *testing.T) {
	t.Parallel()
	gid := uint(4)
	form := PostFormFrom(&models.Post{Text: "hi", GroupID: &gid})
	assert.Equal(t, "hi", form.Values["text"])
	assert.True(t, form.GroupSelected(4))
	assert.False(t, form.GroupSelected(5))
	assert.True(t, (*Upload)(nil).Empty())
}

func uintPtr(v uint) *uint { return &v }
