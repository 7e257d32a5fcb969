package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"duet/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	policy        = bluemonday.StrictPolicy()
	validate      = validator.New(validator.WithRequiredStructEnabled())
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// Sanitize strips all HTML from the input string.
// It is used for profile statuses.
func Sanitize(input string) string {
	return policy.Sanitize(input)
}

// NormalizeMessage trims message content and enforces length bounds. Content
// that is empty after trimming is rejected. The text is otherwise kept as
// sent; escaping is up to whoever renders it.
func NormalizeMessage(input string, maxLength int) (string, error) {
	normalized := strings.TrimSpace(input)
	if normalized == "" {
		return "", fmt.Errorf("%w: content is empty", models.ErrValidation)
	}
	if maxLength > 0 && len([]rune(normalized)) > maxLength {
		return "", fmt.Errorf("%w: content longer than %d characters", models.ErrValidation, maxLength)
	}
	return normalized, nil
}

// DecodePayload unmarshals an inbound event payload into v and validates its
// struct tags. Every failure wraps models.ErrValidation.
func DecodePayload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", models.ErrValidation)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return Validate(v)
}

// Validate checks the validate struct tags of v.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %s failed on %q", models.ErrValidation, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return nil
}

// ValidateUsername checks if the username contains only allowed characters
// (alphanumeric, dot, dash, underscore) and is not empty.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username cannot be empty")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username contains invalid characters (allowed: alphanumeric, dot, dash, underscore)")
	}
	return nil
}
