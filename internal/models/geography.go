package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Level represents the geographic granularity of a results table
type Level int

const (
	LevelNation Level = iota
	LevelRegion
	LevelDepartment
)

// Levels lists every level in the order offered by the dashboard
var Levels = []Level{LevelNation, LevelRegion, LevelDepartment}

func (l Level) String() string {
	switch l {
	case LevelNation:
		return "nation"
	case LevelRegion:
		return "region"
	case LevelDepartment:
		return "departement"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Label returns the French label shown in the geography selector
func (l Level) Label() string {
	switch l {
	case LevelNation:
		return "France"
	case LevelRegion:
		return "Région"
	case LevelDepartment:
		return "Département"
	default:
		return l.String()
	}
}

// ParseLevel accepts the canonical names and their accented French labels
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nation", "france":
		return LevelNation, nil
	case "region", "région":
		return LevelRegion, nil
	case "departement", "département", "department":
		return LevelDepartment, nil
	default:
		return 0, fmt.Errorf("invalid geography level: %q", s)
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Round is the electoral round (tour)
type Round int

const (
	RoundFirst  Round = 1
	RoundSecond Round = 2
)

// Rounds lists every supported round
var Rounds = []Round{RoundFirst, RoundSecond}

// ValidateRound checks that the round is one of the two tours
func ValidateRound(r Round) error {
	switch r {
	case RoundFirst, RoundSecond:
		return nil
	default:
		return fmt.Errorf("invalid round: %d", int(r))
	}
}

// ParseRound parses "1", "2", "1er" or "2e"
func ParseRound(s string) (Round, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSuffix(strings.TrimSuffix(s, "er"), "e")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid round: %q", s)
	}
	r := Round(n)
	if err := ValidateRound(r); err != nil {
		return 0, err
	}
	return r, nil
}

// Label returns the title used by the dashboard for the round
func (r Round) Label() string {
	if r == RoundFirst {
		return "1er tour"
	}
	return fmt.Sprintf("%de tour", int(r))
}

// GeographicUnit identifies one area of a results table
type GeographicUnit struct {
	Level Level  `json:"level"`
	Label string `json:"label"`
	Code  string `json:"code,omitempty"`
}
