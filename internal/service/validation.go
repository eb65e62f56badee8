package service

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/equipment-tracker/internal/models"
)

// DateLayout is the ISO-8601 calendar date used by every stored date.
const DateLayout = "2006-01-02"

// NewValidator returns a validator with the inventory-specific tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := parseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("equipment_status", func(fl validator.FieldLevel) bool {
		return models.EquipmentStatus(fl.Field().String()).Valid()
	})
	return v
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// calendarDay truncates t to its calendar date in UTC so day arithmetic ignores clock time.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole days from a to b.
func daysBetween(a, b time.Time) int {
	return int(calendarDay(b).Sub(calendarDay(a)).Hours() / 24)
}
