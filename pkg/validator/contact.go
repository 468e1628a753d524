package validator

import (
	"errors"
	"regexp"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

var (
	// ErrEmptyContact indicates the contact number is empty
	ErrEmptyContact = errors.New("contact number cannot be empty")

	// ErrInvalidFormat indicates the number contains characters other than digits and a leading +
	ErrInvalidFormat = errors.New("contact number can only contain digits and an optional leading +")

	// ErrInvalidLength indicates the number is outside the E.164 digit range
	ErrInvalidLength = errors.New("contact number must have between 8 and 15 digits")
)

// ContactTag is the binding tag validated by ContactValidator
const ContactTag = "contact"

const (
	minDigits = 8
	maxDigits = 15
)

var digitsRegex = regexp.MustCompile(`^\d+$`)

// ContactValidator normalizes tourist contact numbers to E.164
type ContactValidator struct {
	countryCode string
}

// NewContactValidator creates a validator. Numbers written in national format
// (leading 0) are given countryCode.
func NewContactValidator(countryCode string) *ContactValidator {
	return &ContactValidator{countryCode: strings.TrimPrefix(countryCode, "+")}
}

// Normalize validates phone and returns it as +<country><subscriber>.
// Accepts 077 123 4567, +44 20 7946 0958 and 0044-20-7946-0958 style input.
func (v *ContactValidator) Normalize(phone string) (string, error) {
	sanitized := v.Sanitize(phone)
	if sanitized == "" {
		return "", ErrEmptyContact
	}

	digits := strings.TrimPrefix(sanitized, "+")
	international := len(digits) != len(sanitized)
	if !international && strings.HasPrefix(digits, "00") {
		digits = digits[2:]
		international = true
	}

	if !digitsRegex.MatchString(digits) {
		return "", ErrInvalidFormat
	}

	if !international && strings.HasPrefix(digits, "0") {
		digits = v.countryCode + digits[1:]
	}

	if len(digits) < minDigits || len(digits) > maxDigits {
		return "", ErrInvalidLength
	}

	return "+" + digits, nil
}

// Sanitize removes common separators, keeping a leading +
func (v *ContactValidator) Sanitize(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

// IsValid is a convenience method that returns true if phone can be normalized
func (v *ContactValidator) IsValid(phone string) bool {
	_, err := v.Normalize(phone)
	return err == nil
}

// Register adds the contact tag to a validator engine, such as gin's binding validator
func (v *ContactValidator) Register(engine *playground.Validate) error {
	return engine.RegisterValidation(ContactTag, func(fl playground.FieldLevel) bool {
		return v.IsValid(fl.Field().String())
	})
}
