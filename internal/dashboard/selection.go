package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"presidentielle/internal/aggregate"
	"presidentielle/internal/models"
)

// Selection is the state of the dashboard controls
type Selection struct {
	Round      models.Round `json:"round"`
	Level      models.Level `json:"level"`
	Percentage bool         `json:"percentage"`
	Stat       string       `json:"stat"`
	Candidate  string       `json:"candidate"`
}

// DefaultSelection matches the initial state of the controls
func DefaultSelection() Selection {
	return Selection{
		Round:      models.RoundFirst,
		Level:      models.LevelRegion,
		Percentage: true,
		Stat:       models.ColVoters,
		Candidate:  aggregate.Majority,
	}
}

// ParsePercentage accepts the radio labels (Oui/Non) and boolean forms
func ParsePercentage(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oui", "yes":
		return true, nil
	case "non", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("invalid percentage flag: %q", s)
	}
	return b, nil
}

// Values holds raw control values, for instance from a query string.
// Empty values keep the default.
type Values struct {
	Round      string
	Level      string
	Percentage string
	Stat       string
	Candidate  string
}

// ParseSelection applies raw control values over the defaults
func ParseSelection(v Values) (Selection, error) {
	sel := DefaultSelection()
	if v.Round != "" {
		r, err := models.ParseRound(v.Round)
		if err != nil {
			return sel, models.NewInvalidSelectionError("round", v.Round, err)
		}
		sel.Round = r
	}
	if v.Level != "" {
		l, err := models.ParseLevel(v.Level)
		if err != nil {
			return sel, models.NewInvalidSelectionError("level", v.Level, err)
		}
		sel.Level = l
	}
	if v.Percentage != "" {
		p, err := ParsePercentage(v.Percentage)
		if err != nil {
			return sel, models.NewInvalidSelectionError("percentage", v.Percentage, err)
		}
		sel.Percentage = p
	}
	if v.Stat != "" {
		sel.Stat = v.Stat
	}
	if v.Candidate != "" {
		sel.Candidate = v.Candidate
	}
	return sel, nil
}
