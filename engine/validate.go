// ABOUTME: Field validation for entity creation and updates
// ABOUTME: Collects per-field messages into a single VALIDATION_FAILED error
package engine

import (
	"net/mail"
	"strings"
	"time"

	"github.com/harperreed/studiocrm/models"
)

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return validationError(f)
}

func (f fieldErrors) name(value string) {
	if strings.TrimSpace(value) == "" {
		f.add("name", "is required")
	}
}

func (f fieldErrors) email(value string) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		f.add("email", "is not a valid email address")
	}
}

func (f fieldErrors) priority(value string) {
	switch value {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		f.add("priority", "must be low, medium, or high")
	}
}

func (f fieldErrors) money(field string, value int64) {
	if value < 0 {
		f.add(field, "must not be negative")
	}
}

func (f fieldErrors) dates(start, due *time.Time) {
	if start != nil && due != nil && due.Before(*start) {
		f.add("dueDate", "must not be before startDate")
	}
}
