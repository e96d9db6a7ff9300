package chart

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

const (
	dateLayout        = "2006-01-02"
	clockLayout       = "15:04"
	clockLayoutSecond = "15:04:05"
	maxOffsetHours    = 14
)

// Validate rejects malformed birth details before any provider call is made.
func (b BirthDetails) Validate() error {
	if strings.TrimSpace(b.Date) == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "birth date is required", nil)
	}
	if _, err := time.Parse(dateLayout, strings.TrimSpace(b.Date)); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "birth date must be formatted as YYYY-MM-DD", err)
	}
	if strings.TrimSpace(b.Time) == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "birth time is required", nil)
	}
	if _, err := normalizeClock(b.Time); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "birth time must be formatted as HH:MM or HH:MM:SS", err)
	}
	if math.IsNaN(b.Latitude) || b.Latitude < -90 || b.Latitude > 90 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "latitude must be within [-90, 90]", nil)
	}
	if math.IsNaN(b.Longitude) || b.Longitude < -180 || b.Longitude > 180 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "longitude must be within [-180, 180]", nil)
	}
	if math.IsNaN(b.TimezoneOffsetHours) || math.Abs(b.TimezoneOffsetHours) > maxOffsetHours {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "timezone offset must be within [-14, 14] hours", nil)
	}
	return nil
}

// Datetime builds the provider datetime YYYY-MM-DDTHH:MM:SS±HH:MM.
func (b BirthDetails) Datetime() (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	clock, _ := normalizeClock(b.Time)
	return strings.TrimSpace(b.Date) + "T" + clock + FormatOffset(b.TimezoneOffsetHours), nil
}

// Coordinates renders the "lat,long" pair the provider expects.
func (b BirthDetails) Coordinates() string {
	return strconv.FormatFloat(b.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(b.Longitude, 'f', -1, 64)
}

// FormatOffset renders fractional hours as ±HH:MM.
func FormatOffset(hours float64) string {
	sign := "+"
	if hours < 0 {
		sign = "-"
	}
	totalMinutes := int(math.Round(math.Abs(hours) * 60))
	return fmt.Sprintf("%s%02d:%02d", sign, totalMinutes/60, totalMinutes%60)
}

func normalizeClock(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	if t, err := time.Parse(clockLayoutSecond, clean); err == nil {
		return t.Format(clockLayoutSecond), nil
	}
	t, err := time.Parse(clockLayout, clean)
	if err != nil {
		return "", errors.New("unrecognized clock time")
	}
	return t.Format(clockLayoutSecond), nil
}
