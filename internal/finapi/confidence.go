package finapi

import (
	"fmt"
	"math"
	"regexp"

	"github.com/ternarybob/finsaathi/internal/models"
)

// nonFiniteToken matches the bare NaN/Infinity tokens Python's json module emits.
var nonFiniteToken = regexp.MustCompile(`-?\bNaN\b|-?\bInfinity\b`)

// SanitizeJSON replaces every NaN and ±Infinity token with null.
func SanitizeJSON(body []byte) []byte {
	return nonFiniteToken.ReplaceAll(body, []byte("null"))
}

// ParseConfidence decodes a confidence response body. Each score may be a number,
// a numeric string or a {"score": x} object; unusable scores become 0 and the rest
// are clamped to [0,1]. On a decode failure the fallback object is returned with the error.
func ParseConfidence(body []byte) (models.Confidence, error) {
	data, err := decodeEnvelope[confidenceData](SanitizeJSON(body), EndpointConfidence)
	if err != nil {
		return models.FallbackConfidence(models.ConfidenceUnavailable), fmt.Errorf("confidence: %w", err)
	}

	return models.Confidence{
		Overall:        clampScore(data.Overall),
		Technical:      clampScore(data.Technical),
		Statistical:    clampScore(data.Statistical),
		Market:         clampScore(data.Market),
		Interpretation: data.Interpretation,
		Available:      true,
	}, nil
}

func clampScore(n Number) float64 {
	return math.Max(0, math.Min(1, n.Or(0)))
}
