package models

import "fmt"

// Kind selects one of the two tables published per round and level
type Kind string

const (
	KindStats      Kind = "stats"
	KindCandidates Kind = "candidates"
)

// Source describes the bundled files of one round at one level
type Source struct {
	Round      Round
	Level      Level
	IDColumn   string // unit label column joined to the GeoJSON, empty at nation level
	Stats      string
	Candidates string
	Geo        string // empty at nation level
}

// File returns the table of the given kind
func (s Source) File(kind Kind) (string, error) {
	switch kind {
	case KindStats:
		return s.Stats, nil
	case KindCandidates:
		return s.Candidates, nil
	default:
		return "", fmt.Errorf("unknown table kind: %q", kind)
	}
}

// Validate ensures the source is usable for its level
func (s Source) Validate() error {
	if err := ValidateRound(s.Round); err != nil {
		return err
	}
	if s.Stats == "" || s.Candidates == "" {
		return fmt.Errorf("round %d %s: stats and candidates files are required", s.Round, s.Level)
	}
	if s.Level != LevelNation {
		if s.IDColumn == "" {
			return fmt.Errorf("round %d %s: id column is required", s.Round, s.Level)
		}
		if s.Geo == "" {
			return fmt.Errorf("round %d %s: geo file is required", s.Round, s.Level)
		}
	}
	return nil
}
