package service

import (
	"errors"  // Error handling
	"fmt"     // Error wrapping
	"strings" // String manipulation

	"tutor_market/internal/domain" // Domain types

	"github.com/go-playground/validator/v10" // Struct validation
	"github.com/google/uuid"                 // UUID generation
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkStruct runs struct tag validation and folds failures into one ValidationError
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Validation("invalid input")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return domain.Validation("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "uuid":
		return field + " must be a UUID"
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// checkID rejects identifiers that are not UUIDs before they reach the store
func checkID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Validation("%s must be a UUID", field)
	}
	return nil
}
