package room

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const maxUsernameLen = 32

var usernamePolicy = bluemonday.StrictPolicy()

var (
	ErrUsernameEmpty    = errors.New("username empty")
	ErrUsernameTooLong  = errors.New("username too long")
	ErrUsernameUnstable = errors.New("username altered by sanitization")
)

// ValidateUsername accepts a display name only if it is already stable under
// the sanitization pass. Values the pass would rewrite are rejected outright,
// never silently cleaned.
func ValidateUsername(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrUsernameEmpty
	}
	if utf8.RuneCountInString(name) > maxUsernameLen {
		return ErrUsernameTooLong
	}
	if usernamePolicy.Sanitize(name) != name {
		return ErrUsernameUnstable
	}
	return nil
}
