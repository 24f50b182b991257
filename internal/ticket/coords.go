package ticket

import (
	"strconv"
	"strings"
)

const coordinateParts = 2

// ParseCoordinates parses a "lat,lon" string into its two float components.
// Anything other than exactly two parseable numbers returns
// ErrInvalidCoordinates.
func ParseCoordinates(raw string) (float64, float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != coordinateParts {
		return 0, 0, ErrInvalidCoordinates
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinates
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinates
	}

	return lat, lon, nil
}
