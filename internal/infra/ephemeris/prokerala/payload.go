package prokerala

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

type envelope struct {
	Status string     `json:"status"`
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

type planetPositionResponse struct {
	Data struct {
		PlanetPosition []planetEntry `json:"planet_position"`
	} `json:"data"`
}

type planetEntry struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Longitude    float64   `json:"longitude"`
	IsRetrograde bool      `json:"is_retrograde"`
	Position     int       `json:"position"`
	Degree       float64   `json:"degree"`
	Rasi         *namedRef `json:"rasi"`
}

type birthDetailsResponse struct {
	Data struct {
		Nakshatra *nakshatraEntry `json:"nakshatra"`
	} `json:"data"`
}

type nakshatraEntry struct {
	ID   int       `json:"id"`
	Name string    `json:"name"`
	Pada int       `json:"pada"`
	Lord *namedRef `json:"lord"`
}

type namedRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// checkPayload classifies a provider response. 401 is handled by the caller before this point.
func checkPayload(status int, body []byte) error {
	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		detail := errorDetail(env.Errors)
		if decodeErr != nil || detail == "" {
			detail = snippet(body)
		}
		return apperrors.Wrap(apperrors.CodeUpstream, fmt.Sprintf("ephemeris provider returned status %d: %s", status, detail), nil)
	}
	if decodeErr != nil {
		return apperrors.Wrap(apperrors.CodeUpstream, "ephemeris provider returned malformed JSON", decodeErr)
	}
	if len(env.Errors) > 0 {
		return apperrors.Wrap(apperrors.CodeUpstream, "ephemeris provider error: "+errorDetail(env.Errors), nil)
	}
	if env.Status != "" && !strings.EqualFold(env.Status, "ok") {
		return apperrors.Wrap(apperrors.CodeUpstream, fmt.Sprintf("ephemeris provider status %q", env.Status), nil)
	}
	return nil
}

func errorDetail(errs []apiError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		switch {
		case strings.TrimSpace(e.Detail) != "":
			parts = append(parts, strings.TrimSpace(e.Detail))
		case strings.TrimSpace(e.Title) != "":
			parts = append(parts, strings.TrimSpace(e.Title))
		}
	}
	return strings.Join(parts, "; ")
}

func snippet(body []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit]
	}
	if text == "" {
		return "empty body"
	}
	return text
}
