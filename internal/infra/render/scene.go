package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/yanqian/astrochart/internal/domain/chart"
	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

// Shape is the drawing operation a Primitive asks for.
type Shape int

const (
	ShapeFill Shape = iota
	ShapeCircle
	ShapeDisc
	ShapeLine
	ShapeText
)

// Role names what a Primitive depicts on the wheel.
type Role string

const (
	RoleBackground  Role = "background"
	RoleOuterCircle Role = "outer-circle"
	RoleInnerRing   Role = "inner-ring"
	RoleDivider     Role = "divider"
	RoleSignLabel   Role = "sign-label"
	RoleHouseLabel  Role = "house-label"
	RolePlanet      Role = "planet-marker"
	RolePlanetLabel Role = "planet-label"
	RoleAscendant   Role = "ascendant"
	RoleTitle       Role = "title"
)

// Point is a canvas coordinate in pixels.
type Point struct {
	X float64
	Y float64
}

// Primitive is one 2D drawing instruction. From is the center for circles and text.
type Primitive struct {
	Shape  Shape
	Role   Role
	From   Point
	To     Point
	Radius float64
	Width  float64
	Color  color.RGBA
	Text   string
}

// Scene is an ordered list of primitives on a fixed canvas.
type Scene struct {
	Width      int
	Height     int
	Primitives []Primitive
}

// Canvas fixes the output image size.
type Canvas struct {
	Width  int
	Height int
}

// DefaultCanvas is the 1000x1000 chart canvas.
var DefaultCanvas = Canvas{Width: 1000, Height: 1000}

const (
	houseLabelRatio = 0.85
	planetRatio     = 0.60
	innerRingRatio  = 0.45
	signLabelRatio  = 0.95
	titleOffset     = 40.0
	markerRadius    = 8.0
	planetLabelGap  = 18.0
	sectorCount     = 12
)

var (
	backgroundColor = color.RGBA{R: 0xfb, G: 0xf8, B: 0xf1, A: 0xff}
	lineColor       = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	ringColor       = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	textColor       = color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}
	ascendantColor  = color.RGBA{R: 0xc0, G: 0x39, B: 0x2b, A: 0xff}

	// FallbackPlanetColor is used for bodies missing from planetColors.
	FallbackPlanetColor = color.RGBA{R: 0x7f, G: 0x8c, B: 0x8d, A: 0xff}
)

var planetColors = map[string]color.RGBA{
	"Sun":       {R: 0xf3, G: 0x9c, B: 0x12, A: 0xff},
	"Moon":      {R: 0x95, G: 0xa5, B: 0xa6, A: 0xff},
	"Mars":      {R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff},
	"Mercury":   {R: 0x27, G: 0xae, B: 0x60, A: 0xff},
	"Jupiter":   {R: 0xe6, G: 0x7e, B: 0x22, A: 0xff},
	"Venus":     {R: 0xe8, G: 0x43, B: 0x93, A: 0xff},
	"Saturn":    {R: 0x2c, G: 0x3e, B: 0x50, A: 0xff},
	"Rahu":      {R: 0x5d, G: 0x6d, B: 0x7e, A: 0xff},
	"Ketu":      {R: 0x8e, G: 0x44, B: 0xad, A: 0xff},
	"Uranus":    {R: 0x16, G: 0xa0, B: 0x85, A: 0xff},
	"Neptune":   {R: 0x29, G: 0x80, B: 0xb9, A: 0xff},
	"Pluto":     {R: 0x6e, G: 0x2c, B: 0x00, A: 0xff},
	"Ascendant": {R: 0xc0, G: 0x39, B: 0x2b, A: 0xff},
}

// PlanetColor looks up the marker colour for a body name.
func PlanetColor(name string) color.RGBA {
	if c, ok := planetColors[name]; ok {
		return c
	}
	return FallbackPlanetColor
}

// BuildScene lays out c on the default canvas.
func BuildScene(c chart.Chart, kind chart.Kind, title string) (Scene, error) {
	return DefaultCanvas.BuildScene(c, kind, title)
}

// BuildScene lays out c as a zodiac wheel. It has no side effects and the same input always yields the same scene.
func (cv Canvas) BuildScene(c chart.Chart, kind chart.Kind, title string) (Scene, error) {
	switch kind {
	case chart.KindNatal, chart.KindWheel:
	default:
		return Scene{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("chart type %q cannot be rendered", kind), nil)
	}
	if cv.Width <= 0 || cv.Height <= 0 {
		return Scene{}, apperrors.Wrap(apperrors.CodeRender, "canvas size must be positive", nil)
	}

	w, h := float64(cv.Width), float64(cv.Height)
	center := Point{X: w / 2, Y: h / 2}
	radius := math.Min(w, h) / 2.5

	prims := make([]Primitive, 0, 32+2*len(c.Planets))
	prims = append(prims,
		Primitive{Shape: ShapeFill, Role: RoleBackground, Color: backgroundColor},
		Primitive{Shape: ShapeCircle, Role: RoleOuterCircle, From: center, Radius: radius, Width: 2, Color: lineColor},
	)
	if kind == chart.KindWheel {
		prims = append(prims, Primitive{Shape: ShapeCircle, Role: RoleInnerRing, From: center, Radius: radius * innerRingRatio, Width: 1, Color: ringColor})
	}
	for i := 0; i < sectorCount; i++ {
		prims = append(prims, Primitive{
			Shape: ShapeLine,
			Role:  RoleDivider,
			From:  center,
			To:    polar(center, radius, float64(i)*chart.SectorDegrees),
			Width: 1,
			Color: lineColor,
		})
	}
	if kind == chart.KindWheel {
		for i, sign := range chart.Signs {
			prims = append(prims, textAt(RoleSignLabel, polar(center, radius*signLabelRatio, midAngle(i)), sign.Abbrev(), ringColor))
		}
	}
	prims = append(prims, houseLabels(c.Houses, center, radius)...)

	for _, p := range c.Planets {
		at := polar(center, radius*planetRatio, midAngle(houseSector(p.House)))
		label := p.Name
		if p.Retrograde {
			label += " (R)"
		}
		prims = append(prims,
			Primitive{Shape: ShapeDisc, Role: RolePlanet, From: at, Radius: markerRadius, Color: PlanetColor(p.Name)},
			textAt(RolePlanetLabel, Point{X: at.X, Y: at.Y + planetLabelGap}, label, textColor),
		)
	}

	if angle, ok := c.Ascendant.Angle(); ok {
		prims = append(prims, Primitive{
			Shape: ShapeLine,
			Role:  RoleAscendant,
			From:  center,
			To:    polar(center, radius, angle),
			Width: 3,
			Color: ascendantColor,
		})
	}
	prims = append(prims, textAt(RoleTitle, Point{X: center.X, Y: titleOffset}, title, textColor))

	return Scene{Width: cv.Width, Height: cv.Height, Primitives: prims}, nil
}

// houseLabels places one label per house; without explicit houses the twelve sectors are numbered.
func houseLabels(houses []chart.House, center Point, radius float64) []Primitive {
	out := make([]Primitive, 0, sectorCount)
	if len(houses) == 0 {
		for i := 0; i < sectorCount; i++ {
			out = append(out, textAt(RoleHouseLabel, polar(center, radius*houseLabelRatio, midAngle(i)), strconv.Itoa(i+1), textColor))
		}
		return out
	}
	for _, house := range houses {
		out = append(out, textAt(RoleHouseLabel, polar(center, radius*houseLabelRatio, midAngle(houseSector(house.ID))), strconv.Itoa(house.ID), textColor))
	}
	return out
}

// houseSector converts a 1-indexed house into a 0-indexed sector, wrapping out-of-range values.
func houseSector(house int) int {
	s := (house - 1) % sectorCount
	if s < 0 {
		s += sectorCount
	}
	return s
}

func midAngle(sector int) float64 {
	return float64(sector)*chart.SectorDegrees + chart.SectorDegrees/2
}

// polar returns the point at degrees from the +X axis, measured toward +Y on screen.
func polar(center Point, r, degrees float64) Point {
	rad := degrees * math.Pi / 180
	return Point{X: center.X + r*math.Cos(rad), Y: center.Y + r*math.Sin(rad)}
}

func textAt(role Role, at Point, text string, c color.RGBA) Primitive {
	return Primitive{Shape: ShapeText, Role: role, From: at, Text: text, Color: c}
}
