package domain

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks a card that was rejected before reaching the store.
var ErrValidation = errors.New("validation failed")

const (
	msgMissingName = "Please give your card a fun name!"
	msgMissingFace = "Add a picture or pick a background color."
)

// ValidationError describes why a card cannot be saved. Message is meant to
// be shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid card " + strings.ToLower(e.Field) + ": " + e.Message
}

// Unwrap lets callers match any validation failure with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func cardValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		v.RegisterStructValidation(func(sl validator.StructLevel) {
			c := sl.Current().Interface().(Card)
			if strings.TrimSpace(c.ImageURL) == "" && strings.TrimSpace(c.BackgroundColor) == "" {
				sl.ReportError(c.ImageURL, "ImageURL", "ImageURL", "face", "")
			}
		}, Card{})
		validate = v
	})
	return validate
}

// PrepareCard trims the user-entered text fields of c.
func PrepareCard(c Card) Card {
	c.Name = strings.TrimSpace(c.Name)
	c.BackgroundColor = strings.TrimSpace(c.BackgroundColor)
	return c
}

// ValidateCard checks the write-boundary rules: a card needs a non-blank name
// and at least one of an image or a background colour. The name is checked
// first so the user fixes one thing at a time.
func ValidateCard(c Card) error {
	err := cardValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Field() == "Name" {
			return &ValidationError{Field: "Name", Message: msgMissingName}
		}
	}
	return &ValidationError{Field: verrs[0].Field(), Message: msgMissingFace}
}
