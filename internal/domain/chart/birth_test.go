package chart

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

func TestFormatOffset(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{0, "+00:00"},
		{5.5, "+05:30"},
		{-8, "-08:00"},
		{5.75, "+05:45"},
		{-3.5, "-03:30"},
		{14, "+14:00"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatOffset(tc.hours), "offset %v", tc.hours)
	}
}

func TestFormatOffsetRoundTripsQuarterHours(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("quarter hour offsets format back to the same minutes", prop.ForAll(
		func(quarters int) bool {
			formatted := FormatOffset(float64(quarters) / 4)
			if len(formatted) != 6 || formatted[3] != ':' {
				return false
			}
			hh, err := strconv.Atoi(formatted[1:3])
			if err != nil {
				return false
			}
			mm, err := strconv.Atoi(formatted[4:])
			if err != nil {
				return false
			}
			minutes := hh*60 + mm
			if formatted[0] == '-' {
				minutes = -minutes
			}
			return minutes == quarters*15
		},
		gen.IntRange(-56, 56),
	))
	properties.TestingRun(t)
}

func TestBirthDetailsDatetime(t *testing.T) {
	birth := BirthDetails{Date: "1990-01-15", Time: "12:00", Latitude: 28.6139, Longitude: 77.2090, TimezoneOffsetHours: 5.5}

	dt, err := birth.Datetime()
	require.NoError(t, err)
	require.Equal(t, "1990-01-15T12:00:00+05:30", dt)
	require.Equal(t, "28.6139,77.209", birth.Coordinates())

	birth.Time = "07:45:30"
	birth.TimezoneOffsetHours = -8
	dt, err = birth.Datetime()
	require.NoError(t, err)
	require.Equal(t, "1990-01-15T07:45:30-08:00", dt)
}

func TestBirthDetailsValidate(t *testing.T) {
	valid := BirthDetails{Date: "2000-02-29", Time: "23:59", Latitude: -33.86, Longitude: 151.2, TimezoneOffsetHours: 10}
	require.NoError(t, valid.Validate())

	cases := map[string]func(b *BirthDetails){
		"missing date":   func(b *BirthDetails) { b.Date = "" },
		"bad date":       func(b *BirthDetails) { b.Date = "2001-02-29" },
		"missing time":   func(b *BirthDetails) { b.Time = " " },
		"bad time":       func(b *BirthDetails) { b.Time = "25:00" },
		"latitude high":  func(b *BirthDetails) { b.Latitude = 91 },
		"longitude low":  func(b *BirthDetails) { b.Longitude = -180.5 },
		"offset too big": func(b *BirthDetails) { b.TimezoneOffsetHours = 15 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := valid
			mutate(&b)
			err := b.Validate()
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
			_, err = b.Datetime()
			require.Error(t, err)
		})
	}
}

func TestNewChartOwnsSlices(t *testing.T) {
	planets := []Planet{{Name: "Sun", House: 1}}
	c := NewChart(BirthDetails{}, "", Nakshatra{}, planets, nil, fixedTime())
	planets[0].Name = "Mutated"

	require.Equal(t, "Sun", c.Planets[0].Name)
	require.Equal(t, SignUnknown, c.Ascendant)
	require.NotNil(t, c.Houses)
	require.Empty(t, c.Houses)
}
