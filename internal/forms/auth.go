package forms

import (
	"context"
	"regexp"

	"scribe/internal/models"
)

const (
	MsgInvalidUsername  = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgPasswordMismatch = "The two password fields didn't match."
	MsgPasswordTooShort = "This password is too short. It must contain at least 8 characters."
	MsgPasswordTooLong  = "This password is too long. It must contain at most 72 bytes."
	MsgInvalidLogin     = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

const (
	UsernameMaxLength = 150
	PasswordMinLength = 8
	// PasswordMaxBytes is the longest input bcrypt accepts.
	PasswordMaxBytes = 72
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// Signup is the cleaned result of a signup submission. Password is plain
// text and is hashed by the user service.
type Signup struct {
	Username string
	Email    string
	Password string
}

// SignupSchema is the mapping table of the signup form. The password pair
// is compared after the table has run, see BindSignup.
func SignupSchema() Schema[Signup] {
	return Schema[Signup]{
		{
			Name:  "username",
			Rules: []Rule{Required(MsgRequired), MaxLength(UsernameMaxLength), Matches(usernamePattern, MsgInvalidUsername)},
			Assign: func(_ context.Context, s *Signup, v string) error {
				s.Username = v
				return nil
			},
		},
		{
			Name:  "email",
			Rules: []Rule{MaxLength(254), Email()},
			Assign: func(_ context.Context, s *Signup, v string) error {
				s.Email = v
				return nil
			},
		},
		{
			Name:  "password1",
			Rules: []Rule{Required(MsgRequired)},
			Assign: func(_ context.Context, s *Signup, v string) error {
				s.Password = v
				return nil
			},
		},
		{
			Name:  "password2",
			Rules: []Rule{Required(MsgRequired)},
		},
	}
}

// BindSignup runs the signup table and the password pair checks.
// Passwords are compared untrimmed.
func BindSignup(ctx context.Context, values Values) (*Signup, Errors) {
	var s Signup
	errs, _ := SignupSchema().Bind(ctx, values, &s)
	p1, p2 := values["password1"], values["password2"]
	if !errs.Has("password1") && !errs.Has("password2") {
		switch {
		case p1 != p2:
			errs.Add("password2", MsgPasswordMismatch)
		case len([]rune(p1)) < PasswordMinLength:
			errs.Add("password2", MsgPasswordTooShort)
		case len(p1) > PasswordMaxBytes:
			errs.Add("password2", MsgPasswordTooLong)
		default:
			s.Password = p1
		}
	}
	return &s, errs
}

// Login is the cleaned result of a login submission.
type Login struct {
	Username string
	Password string
}

// BindLogin checks that both credentials were submitted.
func BindLogin(values Values) (*Login, Errors) {
	errs := Errors{}
	l := &Login{Username: values["username"], Password: values["password"]}
	if l.Username == "" {
		errs.Add("username", MsgRequired)
	}
	if l.Password == "" {
		errs.Add("password", MsgRequired)
	}
	return l, errs
}

// SignupUser maps a cleaned signup onto a new user record with hash as password.
func SignupUser(s *Signup, hash string) *models.User {
	user := &models.User{Username: s.Username, Password: hash}
	if s.Email != "" {
		email := s.Email
		user.Email = &email
	}
	return user
}
