package forms

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"unicode/utf8"
)

const (
	MsgRequired      = "This field is required."
	MsgEmptyPostText = "Ай ай пустое поле"
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidEmail  = "Enter a valid email address."
	MsgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// Required rejects blank values with msg.
func Required(msg string) Rule {
	return func(value string) string {
		if value == "" {
			return msg
		}
		return ""
	}
}

// MaxLength rejects values longer than n characters.
func MaxLength(n int) Rule {
	return func(value string) string {
		if l := utf8.RuneCountInString(value); l > n {
			return fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", n, l)
		}
		return ""
	}
}

// MinLength rejects non-empty values shorter than n characters.
func MinLength(n int) Rule {
	return func(value string) string {
		if value != "" && utf8.RuneCountInString(value) < n {
			return fmt.Sprintf("Ensure this value has at least %d characters.", n)
		}
		return ""
	}
}

// Matches rejects non-empty values that do not match re.
func Matches(re *regexp.Regexp, msg string) Rule {
	return func(value string) string {
		if value != "" && !re.MatchString(value) {
			return msg
		}
		return ""
	}
}

// Email rejects non-empty values that are not a bare address.
func Email() Rule {
	return func(value string) string {
		if value == "" {
			return ""
		}
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return MsgInvalidEmail
		}
		return ""
	}
}

// ID rejects non-empty values that are not a positive integer.
func ID(msg string) Rule {
	return func(value string) string {
		if value == "" {
			return ""
		}
		if n, err := strconv.ParseUint(value, 10, 64); err != nil || n == 0 {
			return msg
		}
		return ""
	}
}
