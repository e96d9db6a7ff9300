package prokerala

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/astrochart/internal/domain/chart"
	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

func TestNormalizeKeepsOnePlanetPerEntry(t *testing.T) {
	generated := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := Normalize([]byte(planetFixture), []byte(birthFixture), sampleBirth, generated)
	require.NoError(t, err)

	require.Len(t, c.Planets, 4)
	require.Equal(t, sampleBirth, c.Birth)
	require.Equal(t, generated, c.GeneratedAt)
	for _, p := range c.Planets {
		require.GreaterOrEqual(t, p.House, 1)
		require.LessOrEqual(t, p.House, 12)
		require.Zero(t, p.Latitude)
		require.Zero(t, p.Speed)
	}
	require.Equal(t, chart.Planet{
		ID: 0, Name: "Sun", Longitude: 271.23, Sign: chart.SignCapricorn, Degree: 1.23, House: 10,
	}, c.Planets[0])
}

func TestNormalizeMissingAscendantIsUnknown(t *testing.T) {
	body := `{"status":"ok","data":{"planet_position":[{"id":0,"name":"Sun","longitude":10,"position":1,"rasi":{"name":"Mesha"}}]}}`
	c, err := Normalize([]byte(body), []byte(`{"status":"ok","data":{}}`), sampleBirth, time.Time{})
	require.NoError(t, err)
	require.Equal(t, chart.SignUnknown, c.Ascendant)
	require.Equal(t, chart.Nakshatra{}, c.Nakshatra)
	require.Len(t, c.Planets, 1)
	require.Empty(t, c.Planets[0].Nakshatra)
}

func TestNormalizeDefaultsIncompleteEntries(t *testing.T) {
	body := `{"data":{"planet_position":[
	  {"id":4,"name":"Jupiter","longitude":65.0,"position":17},
	  {"id":5,"name":"Venus","longitude":-15.0,"position":0,"rasi":{"name":"Unrecognised"}}
	]}}`
	c, err := Normalize([]byte(body), []byte(`{}`), sampleBirth, time.Time{})
	require.NoError(t, err)

	require.Equal(t, 0, c.Planets[0].House)
	require.Equal(t, chart.SignGemini, c.Planets[0].Sign)
	require.Equal(t, chart.SignPisces, c.Planets[1].Sign)
	require.Equal(t, 0, c.Planets[1].House)
}

func TestNormalizeRejectsMalformedPayload(t *testing.T) {
	_, err := Normalize([]byte(`[`), []byte(birthFixture), sampleBirth, time.Time{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	_, err = Normalize([]byte(planetFixture), []byte(`{"data":`), sampleBirth, time.Time{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))
}
