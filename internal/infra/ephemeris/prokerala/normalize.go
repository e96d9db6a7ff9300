package prokerala

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/yanqian/astrochart/internal/domain/chart"
	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

const ascendantName = "Ascendant"

// Normalize merges the planet-position and birth-details payloads into one Chart.
// Every planet entry yields exactly one Planet; the ascendant entry sets Chart.Ascendant.
func Normalize(planetBody, birthBody []byte, birth chart.BirthDetails, generatedAt time.Time) (chart.Chart, error) {
	var positions planetPositionResponse
	if err := json.Unmarshal(planetBody, &positions); err != nil {
		return chart.Chart{}, apperrors.Wrap(apperrors.CodeUpstream, "decode planet positions", err)
	}
	var details birthDetailsResponse
	if err := json.Unmarshal(birthBody, &details); err != nil {
		return chart.Chart{}, apperrors.Wrap(apperrors.CodeUpstream, "decode birth details", err)
	}

	nakshatra := normalizeNakshatra(details.Data.Nakshatra)
	ascendant := chart.SignUnknown
	planets := make([]chart.Planet, 0, len(positions.Data.PlanetPosition))
	for _, entry := range positions.Data.PlanetPosition {
		p := normalizePlanet(entry)
		if strings.EqualFold(p.Name, ascendantName) {
			ascendant = p.Sign
		}
		if strings.EqualFold(p.Name, "Moon") {
			p.Nakshatra = nakshatra.Name
		}
		planets = append(planets, p)
	}

	return chart.NewChart(birth, ascendant, nakshatra, planets, nil, generatedAt), nil
}

func normalizePlanet(entry planetEntry) chart.Planet {
	sign := chart.SignUnknown
	if entry.Rasi != nil {
		sign = chart.ParseSign(entry.Rasi.Name)
	}
	if sign == chart.SignUnknown {
		sign = signFromLongitude(entry.Longitude)
	}
	house := entry.Position
	if house < 1 || house > 12 {
		house = 0
	}
	return chart.Planet{
		ID:         entry.ID,
		Name:       strings.TrimSpace(entry.Name),
		Longitude:  entry.Longitude,
		Sign:       sign,
		Degree:     entry.Degree,
		House:      house,
		Retrograde: entry.IsRetrograde,
	}
}

func normalizeNakshatra(entry *nakshatraEntry) chart.Nakshatra {
	if entry == nil {
		return chart.Nakshatra{}
	}
	out := chart.Nakshatra{ID: entry.ID, Name: strings.TrimSpace(entry.Name), Pada: entry.Pada}
	if entry.Lord != nil {
		out.Lord = strings.TrimSpace(entry.Lord.Name)
	}
	return out
}

// signFromLongitude is used when the provider omits the rasi block.
func signFromLongitude(longitude float64) chart.Sign {
	if math.IsNaN(longitude) || math.IsInf(longitude, 0) {
		return chart.SignUnknown
	}
	normalized := math.Mod(longitude, 360)
	if normalized < 0 {
		normalized += 360
	}
	return chart.Signs[int(normalized/chart.SectorDegrees)%len(chart.Signs)]
}
