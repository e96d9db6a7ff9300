package chart

import "strings"

// Sign is a canonical zodiac sign name.
type Sign string

const (
	SignAries       Sign = "Aries"
	SignTaurus      Sign = "Taurus"
	SignGemini      Sign = "Gemini"
	SignCancer      Sign = "Cancer"
	SignLeo         Sign = "Leo"
	SignVirgo       Sign = "Virgo"
	SignLibra       Sign = "Libra"
	SignScorpio     Sign = "Scorpio"
	SignSagittarius Sign = "Sagittarius"
	SignCapricorn   Sign = "Capricorn"
	SignAquarius    Sign = "Aquarius"
	SignPisces      Sign = "Pisces"

	// SignUnknown marks a sign the provider did not supply.
	SignUnknown Sign = "Unknown"
)

// Signs lists the zodiac in order; the position is the sign index.
var Signs = [12]Sign{
	SignAries, SignTaurus, SignGemini, SignCancer, SignLeo, SignVirgo,
	SignLibra, SignScorpio, SignSagittarius, SignCapricorn, SignAquarius, SignPisces,
}

// SectorDegrees is the angular width of one sign or house.
const SectorDegrees = 30.0

// sidereal rasi names used by Vedic providers.
var rasiAliases = map[string]Sign{
	"mesha":      SignAries,
	"vrishabha":  SignTaurus,
	"vrushabha":  SignTaurus,
	"mithuna":    SignGemini,
	"karka":      SignCancer,
	"karkata":    SignCancer,
	"simha":      SignLeo,
	"kanya":      SignVirgo,
	"tula":       SignLibra,
	"thula":      SignLibra,
	"vrischika":  SignScorpio,
	"vrishchika": SignScorpio,
	"dhanu":      SignSagittarius,
	"dhanus":     SignSagittarius,
	"makara":     SignCapricorn,
	"kumbha":     SignAquarius,
	"meena":      SignPisces,
}

// ParseSign resolves a western or rasi sign name. Unrecognized names yield SignUnknown.
func ParseSign(name string) Sign {
	clean := strings.ToLower(strings.TrimSpace(name))
	if clean == "" {
		return SignUnknown
	}
	for _, sign := range Signs {
		if strings.ToLower(string(sign)) == clean {
			return sign
		}
	}
	if sign, ok := rasiAliases[clean]; ok {
		return sign
	}
	return SignUnknown
}

// Index returns the zodiac position of s (Aries = 0) and false for SignUnknown.
func (s Sign) Index() (int, bool) {
	for i, sign := range Signs {
		if sign == s {
			return i, true
		}
	}
	return -1, false
}

// Angle returns the start angle of the sign in degrees: Aries 0, Taurus 30, ... Pisces 330.
func (s Sign) Angle() (float64, bool) {
	idx, ok := s.Index()
	if !ok {
		return 0, false
	}
	return float64(idx) * SectorDegrees, true
}

// Abbrev returns the three letter abbreviation used on chart rings.
func (s Sign) Abbrev() string {
	if _, ok := s.Index(); !ok {
		return "?"
	}
	return string(s)[:3]
}
