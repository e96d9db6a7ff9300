package chart

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the visualization produced for a chart.
type Kind string

const (
	KindNatal     Kind = "natal"
	KindWheel     Kind = "wheel"
	KindComposite Kind = "composite-visualization"
)

// Valid reports whether k is one of the known chart kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNatal, KindWheel, KindComposite:
		return true
	default:
		return false
	}
}

// BirthDetails is the caller supplied input for a chart.
type BirthDetails struct {
	Date                string  `json:"date"`
	Time                string  `json:"time"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	TimezoneOffsetHours float64 `json:"timezoneOffsetHours"`
}

// Planet is a normalized body position. The ascendant is carried as a pseudo planet.
type Planet struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Longitude          float64 `json:"longitude"`
	Latitude           float64 `json:"latitude"`
	Speed              float64 `json:"speed"`
	Sign               Sign    `json:"sign"`
	Degree             float64 `json:"degree"`
	House              int     `json:"house"`
	Retrograde         bool    `json:"retrograde"`
	Nakshatra          string  `json:"nakshatra,omitempty"`
	NakshatraLongitude float64 `json:"nakshatraLongitude,omitempty"`
}

// House is an explicit house boundary.
type House struct {
	ID        int     `json:"id"`
	Sign      Sign    `json:"sign"`
	Longitude float64 `json:"longitude"`
}

// Nakshatra is the lunar mansion of the birth moment.
type Nakshatra struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Pada int    `json:"pada"`
	Lord string `json:"lord"`
}

// Chart aggregates a normalized birth chart. Values are read-only once built by NewChart.
type Chart struct {
	Birth       BirthDetails `json:"birth"`
	Ascendant   Sign         `json:"ascendant"`
	Nakshatra   Nakshatra    `json:"nakshatra"`
	Planets     []Planet     `json:"planets"`
	Houses      []House      `json:"houses"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// NewChart builds a Chart that owns copies of the given slices.
func NewChart(birth BirthDetails, ascendant Sign, nakshatra Nakshatra, planets []Planet, houses []House, generatedAt time.Time) Chart {
	ownedPlanets := make([]Planet, len(planets))
	copy(ownedPlanets, planets)
	ownedHouses := make([]House, len(houses))
	copy(ownedHouses, houses)
	if ascendant == "" {
		ascendant = SignUnknown
	}
	return Chart{
		Birth:       birth,
		Ascendant:   ascendant,
		Nakshatra:   nakshatra,
		Planets:     ownedPlanets,
		Houses:      ownedHouses,
		GeneratedAt: generatedAt,
	}
}

// PlanetSummary is the flattened planet shape handed to downstream consumers.
type PlanetSummary struct {
	Name       string  `json:"name"`
	Sign       Sign    `json:"sign"`
	House      int     `json:"house"`
	Longitude  float64 `json:"longitude"`
	Retrograde bool    `json:"retrograde"`
}

// HouseSummary is the flattened house shape handed to downstream consumers.
type HouseSummary struct {
	ID        int     `json:"id"`
	Sign      Sign    `json:"sign"`
	Longitude float64 `json:"longitude"`
}

// ChartMetadata describes a published chart artifact.
type ChartMetadata struct {
	FileName    string          `json:"fileName"`
	ChartID     uuid.UUID       `json:"chartId"`
	ImageURL    string          `json:"imageUrl"`
	StoreID     string          `json:"storeId"`
	StoreKey    string          `json:"-"`
	SubjectName string          `json:"subjectName"`
	Birth       BirthDetails    `json:"birth"`
	Ascendant   Sign            `json:"ascendant"`
	Nakshatra   Nakshatra       `json:"nakshatra"`
	Planets     []PlanetSummary `json:"planets"`
	Houses      []HouseSummary  `json:"houses"`
	GeneratedAt time.Time       `json:"generatedAt"`
	ChartType   Kind            `json:"chartType"`
}

// GenerateRequest asks for a chart to be fetched, rendered and published.
type GenerateRequest struct {
	Birth       BirthDetails
	SubjectName string
	Kind        Kind
	Title       string
}
