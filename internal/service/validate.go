package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/model"
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), errdefs.ErrValidation)
}

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), errdefs.ErrNotFound)
}

func forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), errdefs.ErrForbidden)
}

func conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), errdefs.ErrConflict)
}

func validatePrice(price int) error {
	if price <= 0 || price >= model.ApplicationPriceMax {
		return invalid("price must be in (0, %d)", model.ApplicationPriceMax)
	}
	return nil
}

func validateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > model.ApplicationDescriptionMax {
		return invalid("description longer than %d characters", model.ApplicationDescriptionMax)
	}
	return nil
}

func validateLessons(count model.LessonsCount) error {
	if !count.Valid() {
		return invalid("unknown lessons_count %q", count)
	}
	return nil
}

// validateRange проверяет необязательные границы фильтра
func validateRange(name string, min, max *int, lo, hi int) error {
	for _, v := range []*int{min, max} {
		if v != nil && (*v < lo || *v > hi) {
			return invalid("%s must be in [%d, %d]", name, lo, hi)
		}
	}
	if min != nil && max != nil && *min > *max {
		return invalid("%s_min greater than %s_max", name, name)
	}
	return nil
}

func validateName(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" || utf8.RuneCountInString(value) > 64 {
		return invalid("%s must be 1..64 characters", field)
	}
	return nil
}
