package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	maxTaskNameRunes    = 45
	maxDescriptionRunes = 150
)

var validate = validator.New()

// normalizePhone brings transport-supplied numbers to E.164 form. Transports
// commonly strip the leading plus from shared contacts.
func normalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	if p != "" && !strings.HasPrefix(p, "+") {
		p = "+" + p
	}
	return p
}

func validPhone(phone string) bool {
	return validate.Var(normalizePhone(phone), "required,e164") == nil
}

func validTaskName(name string) error {
	if err := validate.Var(name, "required"); err != nil {
		return &ValidationError{Reason: "task name must not be empty"}
	}
	if utf8.RuneCountInString(name) > maxTaskNameRunes {
		return &ValidationError{Reason: "task name must be at most 45 characters"}
	}
	return nil
}

func validDescription(text string) error {
	if err := validate.Var(text, "required"); err != nil {
		return &ValidationError{Reason: "description must not be empty"}
	}
	if utf8.RuneCountInString(text) > maxDescriptionRunes {
		return &ValidationError{Reason: "description must be at most 150 characters"}
	}
	return nil
}
