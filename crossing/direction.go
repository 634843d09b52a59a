// Package crossing detects tracked objects crossing reference lines and
// keeps the resulting counters and event log.
package crossing

import (
	"strings"

	"github.com/pkg/errors"
)

// Direction is the sense in which a line was crossed.
type Direction uint8

const (
	// Up is a decreasing y crossing of a horizontal line.
	Up Direction = iota
	// Down is an increasing y crossing of a horizontal line.
	Down
	// Left is a decreasing x crossing of a perpendicular line.
	Left
	// Right is an increasing x crossing of a perpendicular line.
	Right

	numDirections
)

var directionNames = [numDirections]string{"UP", "DOWN", "LEFT", "RIGHT"}

// Directions lists every direction in counter order.
func Directions() []Direction {
	return []Direction{Up, Down, Left, Right}
}

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d < numDirections
}

func (d Direction) String() string {
	if !d.Valid() {
		return "UNKNOWN"
	}
	return directionNames[d]
}

// ParseDirection parses a direction label. Matching is case insensitive.
func ParseDirection(s string) (Direction, error) {
	for d, name := range directionNames {
		if strings.EqualFold(s, name) {
			return Direction(d), nil
		}
	}
	return 0, errors.Errorf("unknown direction %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, errors.Errorf("invalid direction %d", d)
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
